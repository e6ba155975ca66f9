// Package imageref normalizes and resolves the image references stored on
// parent definitions. References come in wiki-link flavors (`![[img.png]]`,
// `[[img.png|alias]]`, `[[img.png]]`) or as plain relative paths; Strip
// reduces all of them to the bare path, and a Resolver turns the bare path
// into something a painter can open.
package imageref

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/occlusionlab/occlude/pkg/errors"
)

// Strip removes embed and wiki-link wrappers from an image reference and
// trims surrounding whitespace. An aliased link keeps only its target.
func Strip(raw string) string {
	ref := strings.TrimSpace(raw)
	ref = strings.TrimPrefix(ref, "!")
	if strings.HasPrefix(ref, "[[") && strings.HasSuffix(ref, "]]") {
		ref = ref[2 : len(ref)-2]
		if i := strings.Index(ref, "|"); i >= 0 {
			ref = ref[:i]
		}
	}
	return strings.TrimSpace(ref)
}

// Resolver maps a stripped image reference to an openable path. fromDoc is
// the path of the document the reference appeared in, for resolvers that
// honor document-relative references.
type Resolver interface {
	Resolve(ctx context.Context, ref, fromDoc string) (string, error)
}

// DirResolver resolves references against a vault directory: first
// relative to the referencing document's directory, then relative to the
// vault root.
type DirResolver struct {
	Root string
}

// Resolve returns the absolute path of the referenced image. A reference
// that validates but matches no file yields an IMAGE_NOT_FOUND error, which
// callers surface before opening an editor session on the image.
func (d DirResolver) Resolve(ctx context.Context, ref, fromDoc string) (string, error) {
	ref = Strip(ref)
	if err := errors.ValidateImageRef(ref); err != nil {
		return "", err
	}

	var candidates []string
	if fromDoc != "" {
		candidates = append(candidates, filepath.Join(d.Root, filepath.Dir(fromDoc), ref))
	}
	candidates = append(candidates, filepath.Join(d.Root, ref))

	for _, p := range candidates {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeImageNotFound, "image not found: %s", ref)
}
