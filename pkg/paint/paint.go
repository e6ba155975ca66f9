// Package paint rasterizes review masks onto images. The review package
// decides what to cover; this package turns that decision into pixels, for
// the render command and for exporting study sheets.
package paint

import (
	"context"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/review"
)

// hintColor marks the target mask in "all" mode so the learner can tell
// the answer cover from the neutral ones.
const hintColor = "#b35c00"

// Painter draws masks over an image. The zero value is usable.
type Painter struct {
	// Labels draws each mask's group label centered on the cover.
	Labels bool
}

// Render returns a copy of src with the given masks painted over it. Mask
// geometry is percent-of-image, so the source can be any size. An empty
// mask slice (a revealed card) returns the image untouched.
func (p Painter) Render(ctx context.Context, src image.Image, masks []review.Mask) (image.Image, error) {
	if len(masks) == 0 {
		return src, nil
	}

	dc := gg.NewContextForImage(src)
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	for _, m := range masks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		x := m.Left / 100 * w
		y := m.Top / 100 * h
		mw := m.Width / 100 * w
		mh := m.Height / 100 * h

		dc.SetHexColor(m.Color)
		if m.Shape == "circle" {
			dc.DrawEllipse(x+mw/2, y+mh/2, mw/2, mh/2)
		} else {
			dc.DrawRectangle(x, y, mw, mh)
		}
		dc.Fill()

		if m.Hint {
			r := hintRadius(mw, mh)
			dc.SetHexColor(hintColor)
			dc.DrawCircle(x+2*r, y+2*r, r)
			dc.Fill()
		}

		if p.Labels && m.Label != "" {
			dc.SetRGB(0.2, 0.2, 0.2)
			dc.DrawStringAnchored(m.Label, x+mw/2, y+mh/2, 0.5, 0.5)
		}
	}

	return dc.Image(), nil
}

// hintRadius sizes the marker dot relative to the mask, clamped so it stays
// visible on tiny masks and unobtrusive on large ones.
func hintRadius(w, h float64) float64 {
	r := w
	if h < r {
		r = h
	}
	r *= 0.08
	if r < 2 {
		r = 2
	}
	if r > 8 {
		r = 8
	}
	return r
}

// Open loads an image from disk. A missing file maps to IMAGE_NOT_FOUND so
// callers can distinguish it from decode failures.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeImageNotFound, err, "image not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to open image %s", path)
	}
	return img, nil
}

// Save writes an image to disk, inferring the format from the extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrap(errors.ErrCodePersistFailed, err, "failed to save image %s", path)
	}
	return nil
}
