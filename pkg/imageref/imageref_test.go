package imageref

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/occlusionlab/occlude/pkg/errors"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"heart.png", "heart.png"},
		{"  heart.png ", "heart.png"},
		{"[[heart.png]]", "heart.png"},
		{"![[heart.png]]", "heart.png"},
		{"[[images/heart.png|the heart]]", "images/heart.png"},
		{"![[ heart.png ]]", "heart.png"},
		{"[[]]", ""},
	}

	for _, tt := range tests {
		if got := Strip(tt.in); got != tt.want {
			t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDirResolver(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "notes", "img"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(root, "heart.png"))
	mustWrite(t, filepath.Join(root, "notes", "img", "valve.png"))

	r := DirResolver{Root: root}
	ctx := context.Background()

	t.Run("vault relative", func(t *testing.T) {
		got, err := r.Resolve(ctx, "![[heart.png]]", "")
		if err != nil {
			t.Fatal(err)
		}
		if got != filepath.Join(root, "heart.png") {
			t.Errorf("resolved to %q", got)
		}
	})

	t.Run("document relative wins", func(t *testing.T) {
		got, err := r.Resolve(ctx, "img/valve.png", "notes/anatomy.md")
		if err != nil {
			t.Fatal(err)
		}
		if got != filepath.Join(root, "notes", "img", "valve.png") {
			t.Errorf("resolved to %q", got)
		}
	})

	t.Run("missing image", func(t *testing.T) {
		_, err := r.Resolve(ctx, "ghost.png", "")
		if errors.GetCode(err) != errors.ErrCodeImageNotFound {
			t.Errorf("err = %v, want IMAGE_NOT_FOUND", err)
		}
	})

	t.Run("empty after strip", func(t *testing.T) {
		if _, err := r.Resolve(ctx, "[[]]", ""); err == nil {
			t.Error("expected validation error for empty reference")
		}
	})
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
}
