package hand

// Preset poses for tests and demos. All presets share a palm center at
// (0.5, 0.8) so they can be swapped frame to frame without moving the
// cursor.

// OpenPalmLandmarks returns a right hand with all fingers extended.
func OpenPalmLandmarks() Landmarks {
	var l Landmarks

	l[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	l[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	l[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	l[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	l[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	l[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	l[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	l[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	l[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	l[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	l[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	l[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	l[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	l[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	l[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	l[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	l[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	l[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	l[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	l[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	l[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return l
}

// FistLandmarks returns a closed fist: every fingertip curled back to
// roughly 0.1 from the palm, thumb folded but clear of the index tip.
func FistLandmarks() Landmarks {
	var l Landmarks

	l[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	l[ThumbCMC] = Point3D{X: 0.55, Y: 0.78, Z: 0.01}
	l[ThumbMCP] = Point3D{X: 0.58, Y: 0.75, Z: 0.0}
	l[ThumbIP] = Point3D{X: 0.59, Y: 0.73, Z: -0.01}
	l[ThumbTip] = Point3D{X: 0.57, Y: 0.75, Z: 0.0}

	l[IndexMCP] = Point3D{X: 0.54, Y: 0.65, Z: -0.02}
	l[IndexPIP] = Point3D{X: 0.55, Y: 0.62, Z: -0.05}
	l[IndexDIP] = Point3D{X: 0.53, Y: 0.66, Z: -0.04}
	l[IndexTip] = Point3D{X: 0.52, Y: 0.70, Z: 0.0}

	l[MiddleMCP] = Point3D{X: 0.50, Y: 0.64, Z: -0.02}
	l[MiddlePIP] = Point3D{X: 0.50, Y: 0.61, Z: -0.05}
	l[MiddleDIP] = Point3D{X: 0.49, Y: 0.65, Z: -0.04}
	l[MiddleTip] = Point3D{X: 0.49, Y: 0.69, Z: 0.0}

	l[RingMCP] = Point3D{X: 0.46, Y: 0.65, Z: -0.02}
	l[RingPIP] = Point3D{X: 0.46, Y: 0.62, Z: -0.05}
	l[RingDIP] = Point3D{X: 0.46, Y: 0.66, Z: -0.04}
	l[RingTip] = Point3D{X: 0.46, Y: 0.70, Z: 0.0}

	l[PinkyMCP] = Point3D{X: 0.42, Y: 0.68, Z: -0.02}
	l[PinkyPIP] = Point3D{X: 0.42, Y: 0.66, Z: -0.05}
	l[PinkyDIP] = Point3D{X: 0.42, Y: 0.69, Z: -0.04}
	l[PinkyTip] = Point3D{X: 0.43, Y: 0.72, Z: 0.0}

	return l
}

// PinchLandmarks returns an open hand whose thumb tip touches the index
// fingertip.
func PinchLandmarks() Landmarks {
	l := OpenPalmLandmarks()

	l[ThumbMCP] = Point3D{X: 0.60, Y: 0.70, Z: 0.02}
	l[ThumbIP] = Point3D{X: 0.63, Y: 0.62, Z: 0.02}
	l[ThumbTip] = Point3D{X: 0.62, Y: 0.56, Z: 0.01}

	l[IndexPIP] = Point3D{X: 0.59, Y: 0.58, Z: 0.0}
	l[IndexDIP] = Point3D{X: 0.61, Y: 0.53, Z: 0.0}
	l[IndexTip] = Point3D{X: 0.60, Y: 0.55, Z: 0.01}

	return l
}
