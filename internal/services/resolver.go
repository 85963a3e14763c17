package services

import (
	"context"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"kfolx-backend-go/internal/models"
)

// Resolver finds uploaded image files whose stored paths were recorded
// inconsistently (with or without the uploads prefix). Paths are relative to
// Root. Nothing is cached.
type Resolver struct {
	Root   string
	Prefix string
}

func NewResolver(root, prefix string) Resolver {
	return Resolver{Root: root, Prefix: prefix}
}

func (r Resolver) prefix() string {
	p := strings.Trim(r.Prefix, "/")
	if p == "" {
		p = "uploads"
	}
	return p + "/"
}

// ResolveDisplayPath returns the path to hand to the client. It never fails;
// an unresolvable path comes back unchanged.
func (r Resolver) ResolveDisplayPath(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, r.prefix()) {
		return raw
	}
	if r.fileExists(raw) {
		return raw
	}
	candidate := r.prefix() + basename(raw)
	if r.fileExists(candidate) {
		return candidate
	}
	return raw
}

func (r Resolver) Exists(raw string) bool {
	_, ok := r.Locate(raw)
	return ok
}

// Locate returns the first candidate location holding the file, including
// the uploads/<basename> fallback used for display.
func (r Resolver) Locate(raw string) (string, bool) {
	return r.locate(raw, true)
}

// LocateOwned is Locate without the basename fallback. Anything that deletes
// or moves a file uses it, since uploads/<basename> may belong to another row.
func (r Resolver) LocateOwned(raw string) (string, bool) {
	return r.locate(raw, false)
}

func (r Resolver) locate(raw string, byBasename bool) (string, bool) {
	if raw == "" {
		return "", false
	}
	stripped := strings.ReplaceAll(raw, r.prefix(), "")
	candidates := []string{raw}
	if byBasename {
		candidates = append(candidates, r.prefix()+basename(raw))
	}
	candidates = append(candidates, stripped, r.prefix()+stripped)
	for _, candidate := range candidates {
		if r.fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// NormalizeStoredPath is the canonical form every new write uses.
func (r Resolver) NormalizeStoredPath(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return r.prefix() + basename(raw)
}

// Abs maps a stored relative path to the filesystem.
func (r Resolver) Abs(rel string) string {
	return filepath.Join(r.Root, filepath.FromSlash(rel))
}

func (r Resolver) fileExists(rel string) bool {
	info, err := os.Stat(r.Abs(rel))
	return err == nil && !info.IsDir()
}

type imagePathStore interface {
	AllImagePaths(ctx context.Context) ([]models.AdImage, error)
	UpdateImagePath(ctx context.Context, imageID int64, path string) error
}

// NormalizeImagePaths rewrites stored image paths to the canonical form,
// moving files into the uploads directory when needed. Rows whose file cannot
// be found, or whose basename is already taken by a different file, are left
// alone for read-time probing. Safe to run repeatedly.
func (r Resolver) NormalizeImagePaths(ctx context.Context, st imagePathStore) (int, error) {
	images, err := st.AllImagePaths(ctx)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, img := range images {
		canonical := r.NormalizeStoredPath(img.ImagePath)
		if canonical == "" || canonical == img.ImagePath {
			continue
		}
		current, found := r.LocateOwned(img.ImagePath)
		switch {
		case r.fileExists(canonical) && found && current != canonical:
			log.Printf("normalize image %d: %q already holds another file, keeping %q", img.ID, canonical, current)
			continue
		case r.fileExists(canonical):
		case !found:
			log.Printf("normalize image %d: file not found for %q", img.ID, img.ImagePath)
			continue
		default:
			if err := os.MkdirAll(r.Abs(r.prefix()), 0o755); err != nil {
				return fixed, err
			}
			if err := os.Rename(r.Abs(current), r.Abs(canonical)); err != nil {
				log.Printf("normalize image %d: move %q: %v", img.ID, current, err)
				continue
			}
		}
		if err := st.UpdateImagePath(ctx, img.ID, canonical); err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

func basename(raw string) string {
	return path.Base(strings.ReplaceAll(raw, "\\", "/"))
}
