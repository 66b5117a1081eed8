package hand

import "time"

// Frame is one delivery from the landmark source: either a tracked hand
// or an explicit "no hand" signal.
type Frame struct {
	landmarks Landmarks
	present   bool
	malformed bool

	// Timestamp is the capture time of the underlying camera frame.
	Timestamp time.Time
}

// NewFrame builds a present frame from a full landmark set.
func NewFrame(l Landmarks, at time.Time) Frame {
	return Frame{landmarks: l, present: true, Timestamp: at}
}

// FromPoints builds a frame from a raw point list. Anything other than
// exactly NumLandmarks points yields an absent, malformed frame.
func FromPoints(points []Point3D, at time.Time) Frame {
	if len(points) != NumLandmarks {
		return Frame{malformed: true, Timestamp: at}
	}
	var l Landmarks
	copy(l[:], points)
	return NewFrame(l, at)
}

// FromDetections picks the first detected hand. An empty slice yields an
// absent frame.
func FromDetections(hands []Detection, at time.Time) Frame {
	if len(hands) == 0 {
		return Absent(at)
	}
	return FromPoints(hands[0].Points, at)
}

// Absent returns a frame that reports no hand.
func Absent(at time.Time) Frame {
	return Frame{Timestamp: at}
}

// Landmarks returns the hand landmarks and whether a hand is present.
func (f Frame) Landmarks() (Landmarks, bool) {
	return f.landmarks, f.present
}

// Present reports whether the frame carries a hand.
func (f Frame) Present() bool {
	return f.present
}

// Malformed reports whether the frame was built from a point list of the
// wrong length.
func (f Frame) Malformed() bool {
	return f.malformed
}
