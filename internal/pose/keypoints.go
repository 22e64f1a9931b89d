// Package pose defines body landmarks and the boundary to the external
// pose-estimation service.
package pose

import (
	"fmt"
	"math"
)

// Landmark names one of the tracked body points.
type Landmark int

const (
	Nose Landmark = iota
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	// NumLandmarks is the number of tracked landmarks
	NumLandmarks
)

var landmarkNames = [NumLandmarks]string{
	"nose",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
}

func (l Landmark) String() string {
	if l < 0 || l >= NumLandmarks {
		return fmt.Sprintf("landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

// ParseLandmark resolves a landmark by its snake_case name.
func ParseLandmark(name string) (Landmark, bool) {
	for i, n := range landmarkNames {
		if n == name {
			return Landmark(i), true
		}
	}
	return 0, false
}

// Landmarks returns all tracked landmarks in index order.
func Landmarks() []Landmark {
	out := make([]Landmark, NumLandmarks)
	for i := range out {
		out[i] = Landmark(i)
	}
	return out
}

// Point is a pixel position. Image y grows downward.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Len returns the Euclidean length of p as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the distance between p and q.
func Dist(p, q Point) float64 { return p.Sub(q).Len() }

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Point) Point { return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2} }

// Keypoint is a landmark position with its visibility in [0,1].
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Point returns the keypoint position.
func (k Keypoint) Point() Point { return Point{k.X, k.Y} }

// KeypointSet is one detected body. It is a value type; once built it
// cannot be changed through any method.
type KeypointSet struct {
	points [NumLandmarks]Keypoint
}

// NewKeypointSet builds a set from a complete landmark map. Visibility is
// clamped to [0,1].
func NewKeypointSet(points map[Landmark]Keypoint) (KeypointSet, error) {
	var ks KeypointSet
	for _, l := range Landmarks() {
		kp, ok := points[l]
		if !ok {
			return KeypointSet{}, fmt.Errorf("missing landmark %s", l)
		}
		if math.IsNaN(kp.X) || math.IsNaN(kp.Y) {
			return KeypointSet{}, fmt.Errorf("landmark %s has NaN position", l)
		}
		kp.Visibility = min(max(kp.Visibility, 0), 1)
		ks.points[l] = kp
	}
	return ks, nil
}

// Get returns the keypoint for l.
func (s KeypointSet) Get(l Landmark) Keypoint {
	return s.points[l]
}

// Pt returns the position of l.
func (s KeypointSet) Pt(l Landmark) Point {
	return s.points[l].Point()
}

// MeanVisibility is the detection confidence used for session filtering.
func (s KeypointSet) MeanVisibility() float64 {
	var sum float64
	for _, kp := range s.points {
		sum += kp.Visibility
	}
	return sum / float64(NumLandmarks)
}

// Bounds returns the axis-aligned bounding box of all landmarks.
func (s KeypointSet) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, kp := range s.points {
		minX = math.Min(minX, kp.X)
		minY = math.Min(minY, kp.Y)
		maxX = math.Max(maxX, kp.X)
		maxY = math.Max(maxY, kp.Y)
	}
	return minX, minY, maxX, maxY
}

// ShoulderMid returns the midpoint of the shoulders.
func (s KeypointSet) ShoulderMid() Point {
	return Midpoint(s.Pt(LeftShoulder), s.Pt(RightShoulder))
}

// HipMid returns the midpoint of the hips.
func (s KeypointSet) HipMid() Point {
	return Midpoint(s.Pt(LeftHip), s.Pt(RightHip))
}

// AnkleMid returns the midpoint of the ankles.
func (s KeypointSet) AnkleMid() Point {
	return Midpoint(s.Pt(LeftAnkle), s.Pt(RightAnkle))
}

// ShoulderWidth returns the distance between the shoulders.
func (s KeypointSet) ShoulderWidth() float64 {
	return Dist(s.Pt(LeftShoulder), s.Pt(RightShoulder))
}

// HipWidth returns the distance between the hips.
func (s KeypointSet) HipWidth() float64 {
	return Dist(s.Pt(LeftHip), s.Pt(RightHip))
}

// TorsoLength returns the shoulder-mid to hip-mid distance.
func (s KeypointSet) TorsoLength() float64 {
	return Dist(s.ShoulderMid(), s.HipMid())
}

// Map returns the set as a landmark map, e.g. for serialization.
func (s KeypointSet) Map() map[string]Keypoint {
	out := make(map[string]Keypoint, NumLandmarks)
	for i, kp := range s.points {
		out[landmarkNames[i]] = kp
	}
	return out
}
