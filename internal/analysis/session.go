// Package analysis runs the per-frame swim analysis pipeline. A Session
// consumes frames in order, asks the pose provider for landmarks, and turns
// accepted detections into FrameRecords and, at the end, a SessionSummary.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/swimform/swimform-go/internal/analysis/events"
	"github.com/swimform/swimform-go/internal/analysis/phase"
	"github.com/swimform/swimform-go/internal/analysis/record"
	"github.com/swimform/swimform-go/internal/analysis/scene"
	"github.com/swimform/swimform-go/internal/analysis/scoring"
	"github.com/swimform/swimform-go/internal/analysis/smoothing"
	"github.com/swimform/swimform-go/internal/analysis/summary"
	"github.com/swimform/swimform-go/internal/analysis/validator"
	"github.com/swimform/swimform-go/internal/annotate"
	"github.com/swimform/swimform-go/internal/biomech"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/framesource"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/observability/metrics"
	"github.com/swimform/swimform-go/internal/pose"
)

// FrameRecord is the analysis of one accepted frame.
type FrameRecord = record.FrameRecord

// Skip reasons reported in FrameResult. Validator rejections use the
// validator's own reason strings.
const (
	SkipNoPose        = "no_pose"
	SkipProviderError = "provider_error"
)

// MetricsRecorder receives pipeline metrics.
type MetricsRecorder interface {
	metrics.Recorder
	RecordScore(score float64)
}

// EventSink is notified of stroke and breath registrations as they happen.
// Calls are made synchronously from ProcessFrame and must not block.
type EventSink interface {
	StrokeDetected(sessionID string, rec FrameRecord)
	BreathDetected(sessionID string, side events.BreathSide, rec FrameRecord)
}

// FrameResult is the outcome of ProcessFrame. Record is valid only when
// Accepted; Annotated is set only when annotation is enabled and the frame
// carried pixels.
type FrameResult struct {
	Accepted   bool
	SkipReason string
	Record     FrameRecord
	Annotated  *framesource.Frame
}

// Stats are running frame counters.
type Stats struct {
	Frames         int            `json:"frames"`
	Accepted       int            `json:"accepted"`
	Skipped        map[string]int `json:"skipped"`
	ProviderErrors int            `json:"provider_errors"`
}

// Report is the output of a finished session.
type Report struct {
	ID      string                 `json:"id"`
	Summary summary.SessionSummary `json:"summary"`
	Records []FrameRecord          `json:"records"`
	Best    *summary.Champion      `json:"-"`
	Worst   *summary.Champion      `json:"-"`

	// Evidence holds the classifier scores; nil for a forced context.
	Evidence *scene.Decision `json:"context_evidence,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Session) { s.metrics = m }
}

// WithEventSink sets the stroke and breath event sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// Session analyzes one video. It holds all per-video state; sessions share
// nothing and may run concurrently with each other, but a single Session must
// be driven from one goroutine.
type Session struct {
	id       string
	cfg      Config
	provider pose.Provider
	log      logger.Logger
	metrics  MetricsRecorder
	sink     EventSink

	clock     pose.Clock
	validator *validator.Validator
	scene     *scene.Detector
	phase     *phase.Classifier
	smoother  *smoothing.Smoother
	strokes   *events.StrokeDetector
	breaths   *events.BreathDetector
	scorer    *scoring.Scorer
	champions summary.Tracker

	records  []FrameRecord
	stats    Stats
	started  time.Time
	finished bool
	report   Report
}

// NewSession creates a Session that reads landmarks from provider.
func NewSession(cfg Config, provider pose.Provider, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		provider: provider,
		log:      GetLogger(),
		stats:    Stats{Skipped: make(map[string]int)},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.String("session_id", s.id))

	s.validator = validator.New(cfg.Validator)
	s.scene = scene.NewDetector(cfg.Scene, s.log.Module("scene"))
	s.phase = phase.New(cfg.Phase)
	s.smoother = smoothing.New(cfg.SmoothingWindow)
	s.strokes = events.NewStrokeDetector(cfg.StrokeWindow, cfg.StrokeMinInterval)
	s.breaths = events.NewBreathDetector(cfg.Breath)
	s.scorer = scoring.New(cfg.Scoring)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// ForceContext overrides automatic context detection. It must be called
// before the first frame.
func (s *Session) ForceContext(view scene.CameraView, water scene.WaterPosition) error {
	if s.stats.Frames > 0 {
		return errors.Newf("context override after %d frames", s.stats.Frames).
			Component("analysis").
			Category(errors.CategoryState).
			Context("session_id", s.id).
			Build()
	}
	ctx := s.scene.ForceContext(view, water)
	s.log.Info("context forced",
		logger.String("view", string(ctx.View)),
		logger.String("water", string(ctx.Water)))
	return nil
}

// Context returns the current camera/water context.
func (s *Session) Context() scene.Context { return s.scene.Context() }

// ProcessFrame analyzes one frame. Frames must be supplied in stream order.
// Missing or rejected detections are skips, not errors; an error is returned
// only when ctx is done or the session has finished.
func (s *Session) ProcessFrame(ctx context.Context, frame *framesource.Frame) (FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return FrameResult{}, errors.New(err).
			Component("analysis").
			Category(errors.CategoryCancellation).
			Context("session_id", s.id).
			Build()
	}
	if s.finished {
		return FrameResult{}, errors.Newf("session already finished").
			Component("analysis").
			Category(errors.CategoryState).
			Context("session_id", s.id).
			Build()
	}
	if frame == nil {
		return FrameResult{}, errors.Newf("nil frame").
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}

	if s.stats.Frames == 0 {
		s.started = time.Now()
		s.log.Debug("first frame received",
			logger.Int("width", frame.Width),
			logger.Int("height", frame.Height))
	}
	s.stats.Frames++

	start := time.Now()
	kp, ok, err := s.provider.Detect(ctx, frame, s.clock.Next(frame.Timestamp))
	s.recordDuration(metrics.OpPoseDetect, time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return FrameResult{}, errors.New(err).
				Component("analysis").
				Category(errors.CategoryCancellation).
				Context("session_id", s.id).
				Build()
		}
		s.stats.ProviderErrors++
		s.log.Warn("pose provider failed, skipping frame",
			logger.Int("frame", frame.Seq),
			logger.Error(err))
		if s.metrics != nil {
			s.metrics.RecordError(metrics.OpPoseDetect, string(errorCategory(err)))
		}
		return s.skip(frame, SkipProviderError), nil
	}
	if !ok {
		return s.skip(frame, SkipNoPose), nil
	}

	if v := s.validator.Validate(kp, frame); !v.OK {
		s.log.Trace("detection rejected",
			logger.Int("frame", frame.Seq),
			logger.String("reason", v.Reason))
		return s.skip(frame, v.Reason), nil
	}

	s.scene.Observe(frame, &kp)

	rec := s.analyze(frame, kp)
	s.records = append(s.records, rec)
	s.stats.Accepted++

	res := FrameResult{Accepted: true, Record: rec}
	var annotated *framesource.Frame
	render := func() *framesource.Frame {
		if annotated == nil && frame.HasPixels() {
			annotated = annotate.Frame(frame, kp, rec.Score, s.cfg.Style)
		}
		return annotated
	}
	if s.cfg.RetainFrames {
		s.champions.Offer(rec, render)
	} else {
		s.champions.Offer(rec, nil)
	}
	if s.cfg.Annotate {
		res.Annotated = render()
	}

	if s.metrics != nil {
		s.metrics.RecordOperation(metrics.OpFrame, metrics.StatusSuccess)
		s.metrics.RecordScore(rec.Score)
		if rec.Flags.Stroke {
			s.metrics.RecordOperation(metrics.OpStroke, metrics.StatusSuccess)
		}
		if rec.Flags.Breath {
			s.metrics.RecordOperation(metrics.OpBreath, string(rec.BreathSide))
		}
	}
	if s.sink != nil {
		if rec.Flags.Stroke {
			s.sink.StrokeDetected(s.id, rec)
		}
		if rec.Flags.Breath {
			s.sink.BreathDetected(s.id, rec.BreathSide, rec)
		}
	}
	return res, nil
}

// analyze runs metric extraction, smoothing, event detection and scoring.
func (s *Session) analyze(frame *framesource.Frame, kp pose.KeypointSet) FrameRecord {
	at := frame.Timestamp
	ph := s.phase.Classify(kp)
	align := biomech.ComputeAlignment(kp)
	catch := biomech.ComputeCatch(kp)
	kick := biomech.ComputeKick(kp)

	raw := record.Metrics{
		ElbowAngle:          ph.ElbowAngle,
		Lateral:             align.Lateral,
		VerticalDrop:        align.VerticalDrop,
		Deviation:           align.Deviation,
		BodyRoll:            biomech.BodyRoll(kp),
		KickDepth:           kick.Depth,
		KickSymmetry:        kick.Symmetry,
		TorsoLean:           biomech.TorsoLean(kp),
		ForearmAngle:        catch.ForearmAngle,
		CatchAngle:          catch.EffectiveAngle,
		HeadLift:            biomech.HeadLift(kp),
		RecoveryElbowHeight: biomech.RecoveryElbowHeight(kp),
	}

	sm := raw
	sm.ElbowAngle = s.smoother.Smooth(smoothing.ElbowAngle, raw.ElbowAngle)
	sm.Lateral = s.smoother.Smooth(smoothing.Lateral, raw.Lateral)
	sm.VerticalDrop = s.smoother.Smooth(smoothing.VerticalDrop, raw.VerticalDrop)
	sm.Deviation = sm.Lateral + sm.VerticalDrop
	sm.BodyRoll = s.smoother.Smooth(smoothing.BodyRoll, raw.BodyRoll)
	sm.KickDepth = s.smoother.Smooth(smoothing.KickDepth, raw.KickDepth)
	sm.TorsoLean = s.smoother.Smooth(smoothing.TorsoLean, raw.TorsoLean)
	sm.CatchAngle = s.smoother.Smooth(smoothing.CatchAngle, raw.CatchAngle)
	sm.HeadLift = s.smoother.Smooth(smoothing.HeadLift, raw.HeadLift)
	sm.RecoveryElbowHeight = s.smoother.Smooth(smoothing.RecoveryElbowHeight, raw.RecoveryElbowHeight)

	glide := biomech.ComputeGlide(kp, ph.Phase, sm.Deviation)
	raw.GlideScore = glide.Score
	sm.GlideScore = glide.Score

	stroke, _ := s.strokes.Observe(sm.ElbowAngle, at)
	breath := s.breaths.Observe(kp, ph.Phase, at)
	breathInPull := breath.Registered && breath.DuringPull

	graded := s.scorer.Score(scoring.Inputs{
		Phase:              ph.Phase,
		AlignmentDeviation: sm.Deviation,
		CatchAngle:         sm.CatchAngle,
		BodyRoll:           sm.BodyRoll,
		KickDepth:          sm.KickDepth,
		TorsoLean:          sm.TorsoLean,
		Gliding:            glide.Gliding,
		GlideScore:         glide.Score,
		BreathInPull:       breathInPull,
	})

	return FrameRecord{
		Index:           frame.Seq,
		Timestamp:       at,
		Confidence:      kp.MeanVisibility(),
		Phase:           ph.Phase,
		PullSide:        ph.Side,
		BreathSide:      breath.Side,
		Raw:             raw,
		Smoothed:        sm,
		AlignmentStatus: biomech.AlignmentStatus(sm.Deviation),
		CatchStatus:     biomech.CatchStatus(sm.CatchAngle, catch.DroppedElbow),
		KickStatus:      biomech.KickStatus(sm.KickDepth),
		Score:           graded.Composite,
		SubScores:       graded.Sub,
		Penalty:         graded.Penalty,
		Flags: record.Flags{
			DroppedElbow:     catch.DroppedElbow,
			Gliding:          glide.Gliding,
			Stroke:           stroke,
			Breath:           breath.Registered,
			BreathDuringPull: breathInPull,
		},
	}
}

// skip counts a frame without an accepted detection. Its pixels still feed
// the context window; body proportions need accepted landmarks.
func (s *Session) skip(frame *framesource.Frame, reason string) FrameResult {
	s.scene.Observe(frame, nil)
	s.stats.Skipped[reason]++
	if s.metrics != nil {
		s.metrics.RecordOperation(metrics.OpFrame, metrics.StatusSkipped+"_"+reason)
	}
	return FrameResult{SkipReason: reason}
}

func (s *Session) recordDuration(op string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordDuration(op, d.Seconds())
	}
}

// Records returns a copy of the accepted frame records in stream order.
func (s *Session) Records() []FrameRecord {
	out := make([]FrameRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Stats returns a copy of the frame counters.
func (s *Session) Stats() Stats {
	out := s.stats
	out.Skipped = make(map[string]int, len(s.stats.Skipped))
	for k, v := range s.stats.Skipped {
		out.Skipped[k] = v
	}
	return out
}

// Finish ends the session and aggregates it. A context still accumulating
// is finalized from whatever frames were seen. Calling Finish again returns
// the same report; ProcessFrame fails afterwards.
func (s *Session) Finish() Report {
	if s.finished {
		return s.report
	}
	s.finished = true

	sceneCtx := s.scene.Finalize()
	first, last, _ := s.strokes.Span()
	in := summary.Input{
		Records: s.records,
		Strokes: summary.StrokeStats{Count: s.strokes.Count(), First: first, Last: last},
		Breaths: s.breaths.Counts(),
		Context: sceneCtx,
	}
	if s.champions.Best.Set() {
		in.Best = &s.champions.Best
		in.Worst = &s.champions.Worst
	}
	sum := summary.Summarize(in, s.cfg.Summary)

	s.report = Report{
		ID:      s.id,
		Summary: sum,
		Records: s.Records(),
		Best:    in.Best,
		Worst:   in.Worst,
	}
	if !sceneCtx.Forced {
		dec := s.scene.Decision()
		s.report.Evidence = &dec
		s.log.Debug("context evidence",
			logger.Int("underwater_score", dec.UnderwaterScore),
			logger.Int("above_score", dec.AboveScore),
			logger.Int("side_score", dec.SideScore),
			logger.Int("front_score", dec.FrontScore),
			logger.Int("top_score", dec.TopScore),
			logger.Float64("water_confidence", dec.WaterConfidence),
			logger.Float64("view_confidence", dec.ViewConfidence))
	}

	if !s.started.IsZero() {
		s.recordDuration(metrics.OpSession, time.Since(s.started))
	}
	if s.metrics != nil {
		s.metrics.RecordOperation(metrics.OpSession, metrics.StatusSuccess)
	}
	s.log.Info("session finished",
		logger.Int("frames", s.stats.Frames),
		logger.Int("accepted", s.stats.Accepted),
		logger.Int("strokes", sum.StrokeCount),
		logger.Int("breaths", sum.Breaths.Total),
		logger.Float64("avg_score", sum.AvgScore),
		logger.String("view", string(sceneCtx.View)),
		logger.String("water", string(sceneCtx.Water)))
	return s.report
}

// errorCategory returns the category of an EnhancedError, or generic.
func errorCategory(err error) errors.ErrorCategory {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return errors.CategoryGeneric
}
