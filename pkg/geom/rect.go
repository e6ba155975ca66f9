// Package geom provides the coordinate-space math for image occlusion:
// pixel rectangles on the stage, normalized rectangles for persistence,
// and the affine pan/zoom transform between client and stage space.
//
// # Coordinate Spaces
//
// Three spaces are involved:
//
//   - Client: pointer coordinates as delivered by the host (screen pixels).
//   - Stage: the full, unscaled image content, in pixels. All editing math
//     happens here.
//   - Normalized: fractions of stage width/height in [0,1], used for
//     persistence so stored rectangles are independent of any one
//     rendering size.
//
// # Usage
//
// Build a rectangle from a drag gesture and clamp it to the image:
//
//	r := geom.RectFromPoints(start, end)
//	r = geom.ClampRect(r, imgW, imgH, minSize)
//	n := geom.ToNorm(r, imgW, imgH)
package geom

import "math"

// Point is a position in stage or client coordinates.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle in stage pixels.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// NormRect is a rectangle expressed as fractions of stage width/height.
// All four fields lie in [0,1] for a valid persisted rectangle.
type NormRect struct {
	X float64
	Y float64
	W float64
	H float64
}

// RectFromPoints builds the axis-aligned rectangle spanned by two arbitrary
// corner points. The result is symmetric in its arguments.
func RectFromPoints(p1, p2 Point) Rect {
	return Rect{
		X: math.Min(p1.X, p2.X),
		Y: math.Min(p1.Y, p2.Y),
		W: math.Abs(p1.X - p2.X),
		H: math.Abs(p1.Y - p2.Y),
	}
}

// ClampRect clamps r so it is fully contained in [0,maxW]x[0,maxH] with both
// dimensions at least min. Position is clamped into [0, maxDim-min] first,
// then size into [min, maxDim-position]. The guarantees hold whenever
// maxW >= min and maxH >= min.
func ClampRect(r Rect, maxW, maxH, min float64) Rect {
	x := clamp(r.X, 0, maxW-min)
	y := clamp(r.Y, 0, maxH-min)
	return Rect{
		X: x,
		Y: y,
		W: clamp(r.W, min, maxW-x),
		H: clamp(r.H, min, maxH-y),
	}
}

// ToNorm converts a stage-pixel rectangle to normalized fractions of the
// given stage size.
func ToNorm(r Rect, stageW, stageH float64) NormRect {
	return NormRect{
		X: r.X / stageW,
		Y: r.Y / stageH,
		W: r.W / stageW,
		H: r.H / stageH,
	}
}

// ToPixels converts a normalized rectangle back to stage pixels at the given
// stage size.
func ToPixels(n NormRect, stageW, stageH float64) Rect {
	return Rect{
		X: n.X * stageW,
		Y: n.Y * stageH,
		W: n.W * stageW,
		H: n.H * stageH,
	}
}

// Clamp01 clamps every field of n into [0,1]. Used when loading externally
// modified or legacy data that may carry out-of-range values.
func Clamp01(n NormRect) NormRect {
	return NormRect{
		X: clamp(n.X, 0, 1),
		Y: clamp(n.Y, 0, 1),
		W: clamp(n.W, 0, 1),
		H: clamp(n.H, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
