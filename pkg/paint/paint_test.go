package paint

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/review"
)

func whiteImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func channels(t *testing.T, img image.Image, x, y int) (r, g, b uint32) {
	t.Helper()
	r, g, b, _ = img.At(x, y).RGBA()
	return r >> 8, g >> 8, b >> 8
}

func TestRenderRectMask(t *testing.T) {
	masks := []review.Mask{{
		RectID: "ra", Left: 10, Top: 10, Width: 20, Height: 20, Color: "#ff0000",
	}}

	out, err := Painter{}.Render(context.Background(), whiteImage(100, 80), masks)
	if err != nil {
		t.Fatal(err)
	}

	// Center of the mask is covered, the rest of the image is not.
	if r, g, _ := channels(t, out, 20, 16); r < 200 || g > 50 {
		t.Errorf("mask center not painted: r=%d g=%d", r, g)
	}
	if r, g, b := channels(t, out, 80, 60); r < 250 || g < 250 || b < 250 {
		t.Errorf("outside pixel painted: %d %d %d", r, g, b)
	}
}

func TestRenderCircleMask(t *testing.T) {
	masks := []review.Mask{{
		RectID: "c1", Shape: "circle", Left: 0, Top: 0, Width: 100, Height: 100, Color: "#ff0000",
	}}

	out, err := Painter{}.Render(context.Background(), whiteImage(100, 100), masks)
	if err != nil {
		t.Fatal(err)
	}

	if r, g, _ := channels(t, out, 50, 50); r < 200 || g > 50 {
		t.Errorf("ellipse center not painted: r=%d g=%d", r, g)
	}
	// The bounding-box corner stays outside the ellipse.
	if r, g, b := channels(t, out, 1, 1); r < 250 || g < 250 || b < 250 {
		t.Errorf("corner inside ellipse: %d %d %d", r, g, b)
	}
}

func TestRenderHintMarker(t *testing.T) {
	masks := []review.Mask{{
		RectID: "ra", Left: 0, Top: 0, Width: 100, Height: 100, Color: "#00ff00", Hint: true,
	}}

	out, err := Painter{}.Render(context.Background(), whiteImage(100, 100), masks)
	if err != nil {
		t.Fatal(err)
	}

	// The marker dot sits near the mask's top-left corner in a warm color;
	// the rest of the mask stays green.
	if r, _, _ := channels(t, out, 16, 16); r < 100 {
		t.Errorf("hint marker missing at (16,16): r=%d", r)
	}
	if r, g, _ := channels(t, out, 50, 50); r > 50 || g < 200 {
		t.Errorf("mask body discolored: r=%d g=%d", r, g)
	}
}

func TestRenderRevealedReturnsSource(t *testing.T) {
	src := whiteImage(10, 10)
	out, err := Painter{}.Render(context.Background(), src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != src {
		t.Error("revealed render should return the source image unchanged")
	}
}

func TestRenderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	masks := []review.Mask{{RectID: "ra", Width: 10, Height: 10, Color: "#ff0000"}}
	if _, err := (Painter{}).Render(ctx, whiteImage(10, 10), masks); err == nil {
		t.Error("expected context error")
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "ghost.png"))
	if errors.GetCode(err) != errors.ErrCodeImageNotFound {
		t.Errorf("err = %v, want IMAGE_NOT_FOUND", err)
	}
}

func TestSaveOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := Save(whiteImage(4, 3), path); err != nil {
		t.Fatal(err)
	}
	img, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}
