// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Operation type constants used in switch statements across metrics.
const (
	// OpFrame is one frame through the analysis pipeline.
	OpFrame = "frame"
	// OpPoseDetect is a pose provider call.
	OpPoseDetect = "pose_detect"
	// OpStroke is a registered stroke.
	OpStroke = "stroke"
	// OpBreath is a registered breath.
	OpBreath = "breath"
	// OpSession is a complete analysis session.
	OpSession = "session"
	// OpDbQuery represents database query operations.
	OpDbQuery = "db_query"
	// OpDbInsert represents database insert operations.
	OpDbInsert = "db_insert"
	// OpDbDelete represents database delete operations.
	OpDbDelete = "db_delete"
	// OpTransaction represents database transaction operations.
	OpTransaction = "transaction"
	// OpPublish represents MQTT publish operations.
	OpPublish = "publish"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	// StatusSkipped prefixes skip reasons, e.g. "skipped_no_pose".
	StatusSkipped = "skipped"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~4s range).
	BucketStart1ms = 0.001
	// BucketStart100ms is the starting bucket for 100ms histograms.
	BucketStart100ms = 0.1
	// BucketStart64B is the starting bucket for 64 byte histograms.
	BucketStart64B = 64.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12

	// ScoreBucketWidth and ScoreBucketCount cover composite scores 0-100.
	ScoreBucketWidth = 10.0
	ScoreBucketCount = 11
)

// ShutdownTimeout is the timeout for graceful shutdown operations.
const ShutdownTimeout = 5 * time.Second

// SplitPartsCount is the expected number of parts when splitting
// "operation:table" strings.
const SplitPartsCount = 2
