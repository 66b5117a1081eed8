// Package hand defines the hand-pose data model shared by the capture
// pipeline and the gesture engine.
package hand

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// PalmCenter is the anchor landmark used for cursor control and
// fingertip distances.
const PalmCenter = Wrist

// FingerTips lists the four non-thumb fingertip indices.
var FingerTips = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// Point3D represents a 3D point in space with x, y, z coordinates.
// X and Y are normalized to [0,1] relative to the source image; Z is a
// relative depth with no fixed unit.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Landmarks holds the 21 points of one detected hand.
type Landmarks [NumLandmarks]Point3D

// Detection is a single hand reported by a pose estimator. Points may
// hold any number of entries; only a list of exactly NumLandmarks is
// usable as a frame.
type Detection struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Distance returns the Euclidean distance between two points. Depth is
// only included when useDepth is set.
func Distance(a, b Point3D, useDepth bool) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	if !useDepth {
		return math.Sqrt(dx*dx + dy*dy)
	}
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Palm returns the palm-center landmark.
func (l Landmarks) Palm() Point3D {
	return l[PalmCenter]
}

// Translate returns a copy of the landmarks shifted by (dx, dy).
func (l Landmarks) Translate(dx, dy float64) Landmarks {
	for i := range l {
		l[i].X += dx
		l[i].Y += dy
	}
	return l
}

// WithPalmAt returns a copy of the landmarks moved so that the palm
// center sits exactly at (x, y).
func (l Landmarks) WithPalmAt(x, y float64) Landmarks {
	palm := l[PalmCenter]
	moved := l.Translate(x-palm.X, y-palm.Y)
	moved[PalmCenter].X = x
	moved[PalmCenter].Y = y
	return moved
}
