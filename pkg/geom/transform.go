package geom

// Box is a rendered bounding box in client coordinates: the position and
// size the host reports for the stage element or viewport on screen.
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// Transform is the stage pan/zoom state: a uniform scale followed by a
// translation, origin top-left.
type Transform struct {
	Scale float64
	TX    float64
	TY    float64
}

// Identity returns the neutral transform (scale 1, no translation).
func Identity() Transform {
	return Transform{Scale: 1}
}

// ClientToStage converts a pointer position in client coordinates into
// stage-local pixels. Instead of inverting the transform matrix it compares
// the element's rendered bounding box against its intrinsic stage size,
// which stays correct even when CSS-driven zoom changes the rendered size
// without touching the transform.
func ClientToStage(box Box, stageW, stageH, clientX, clientY float64) Point {
	sx := box.W / stageW
	sy := box.H / stageH
	return Point{
		X: (clientX - box.X) / sx,
		Y: (clientY - box.Y) / sy,
	}
}

// ZoomAt scales t by factor, clamped so the resulting scale stays within
// [minScale, maxScale], while keeping the stage point currently under the
// client point (cx, cy) fixed under that same client point. The viewport box
// anchors the client coordinates to the transform's origin.
func ZoomAt(viewport Box, t Transform, factor, cx, cy, minScale, maxScale float64) Transform {
	px := cx - viewport.X
	py := cy - viewport.Y

	newScale := clamp(t.Scale*factor, minScale, maxScale)
	ratio := newScale / t.Scale

	return Transform{
		Scale: newScale,
		TX:    px - (px-t.TX)*ratio,
		TY:    py - (py-t.TY)*ratio,
	}
}
