package services

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageBytes          = 5 << 20
	MaxImageDimension      = 4000
	MinAdImages            = 1
	MaxAdImages            = 10
	MaxProfilePictureBytes = 2 << 20

	profilePictureDir = "profile_pictures"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var formatExtensions = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
}

var errEmptyFile = errors.New("empty file")

// UploadedFile is one file from a multipart form.
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// checkedImage is an upload that passed validation, with the extension
// derived from its decoded format.
type checkedImage struct {
	file UploadedFile
	ext  string
}

// inspectImage validates declared type, size and decoded dimensions. The
// returned message is empty when the file is acceptable.
func inspectImage(file UploadedFile) (checkedImage, string) {
	contentType := strings.ToLower(strings.TrimSpace(file.ContentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !allowedImageTypes[contentType] {
		return checkedImage{}, "Hanya file JPG, PNG, GIF, dan WebP yang diperbolehkan"
	}
	if file.Size > MaxImageBytes {
		return checkedImage{}, "Ukuran file maksimal 5MB"
	}
	if file.Size <= 0 || file.Open == nil {
		return checkedImage{}, "File harus berupa gambar yang valid"
	}
	rc, err := file.Open()
	if err != nil {
		return checkedImage{}, "File harus berupa gambar yang valid"
	}
	defer rc.Close()
	cfg, format, err := image.DecodeConfig(rc)
	if err != nil {
		return checkedImage{}, "File harus berupa gambar yang valid"
	}
	ext, ok := formatExtensions[format]
	if !ok {
		return checkedImage{}, "Hanya file JPG, PNG, GIF, dan WebP yang diperbolehkan"
	}
	if cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return checkedImage{}, fmt.Sprintf("Dimensi gambar maksimal %dx%d piksel", MaxImageDimension, MaxImageDimension)
	}
	return checkedImage{file: file, ext: ext}, ""
}

// ImageStore writes uploads under Root/<prefix>/ with random names and removes
// them best-effort.
type ImageStore struct {
	Resolver Resolver
}

func NewImageStore(resolver Resolver) ImageStore {
	return ImageStore{Resolver: resolver}
}

func (s ImageStore) EnsureStoragePath(sub string) (string, error) {
	dir := s.Resolver.Abs(path.Join(s.Resolver.prefix(), sub))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// SaveAll writes every image or none: on the first failure the files already
// written are removed.
func (s ImageStore) SaveAll(images []checkedImage) ([]string, error) {
	saved := make([]string, 0, len(images))
	for _, img := range images {
		rel, err := s.save("", "img_"+uuid.NewString()+"."+img.ext, img.file, MaxImageBytes)
		if err != nil {
			s.Remove(saved...)
			return nil, err
		}
		saved = append(saved, rel)
	}
	return saved, nil
}

func (s ImageStore) SaveProfilePicture(name string, file UploadedFile) (string, error) {
	return s.save(profilePictureDir, name, file, MaxProfilePictureBytes)
}

func (s ImageStore) save(sub, name string, file UploadedFile, limit int64) (string, error) {
	dir, err := s.EnsureStoragePath(sub)
	if err != nil {
		return "", err
	}
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	target := filepath.Join(dir, name)
	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	size, err := io.Copy(out, io.LimitReader(rc, limit+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && size == 0 {
		err = errEmptyFile
	}
	if err == nil && size > limit {
		err = fmt.Errorf("file exceeds %d bytes", limit)
	}
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return path.Join(s.Resolver.prefix(), sub, name), nil
}

// Remove unlinks stored images at the locations their paths name. The
// basename fallback is never followed. Failures are logged and never returned.
func (s ImageStore) Remove(paths ...string) {
	for _, raw := range paths {
		rel, ok := s.Resolver.LocateOwned(raw)
		if !ok {
			continue
		}
		if err := os.Remove(s.Resolver.Abs(rel)); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("remove image %q: %v", rel, err)
		}
	}
}
