package services

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectImage(t *testing.T) {
	ok := pngFile(t, 16, 16)
	img, msg := inspectImage(ok)
	assert.Empty(t, msg)
	assert.Equal(t, "png", img.ext)

	wrongType := pngFile(t, 16, 16)
	wrongType.ContentType = "application/pdf"
	_, msg = inspectImage(wrongType)
	assert.Equal(t, "Hanya file JPG, PNG, GIF, dan WebP yang diperbolehkan", msg)

	tooBig := pngFile(t, 16, 16)
	tooBig.Size = MaxImageBytes + 1
	_, msg = inspectImage(tooBig)
	assert.Equal(t, "Ukuran file maksimal 5MB", msg)

	_, msg = inspectImage(pngFile(t, MaxImageDimension+1, 1))
	assert.Equal(t, "Dimensi gambar maksimal 4000x4000 piksel", msg)

	jpgAlias := pngFile(t, 4, 4)
	jpgAlias.ContentType = "image/jpg"
	_, msg = inspectImage(jpgAlias)
	assert.Empty(t, msg)
}

func TestSaveAllWritesUniqueNames(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(NewResolver(root, "uploads"))
	a, _ := inspectImage(pngFile(t, 2, 2))
	b, _ := inspectImage(pngFile(t, 2, 2))

	paths, err := store.SaveAll([]checkedImage{a, b})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.NotEqual(t, paths[0], paths[1])
	for _, p := range paths {
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(p)))
	}

	store.Remove(paths...)
	for _, p := range paths {
		assert.NoFileExists(t, filepath.Join(root, filepath.FromSlash(p)))
	}
}

func TestSaveAllIsAllOrNothing(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(NewResolver(root, "uploads"))
	good, _ := inspectImage(pngFile(t, 2, 2))
	broken := checkedImage{ext: "png", file: UploadedFile{
		Open: func() (io.ReadCloser, error) { return nil, errors.New("stream closed") },
	}}

	_, err := store.SaveAll([]checkedImage{good, broken})
	require.Error(t, err)
	entries, err := os.ReadDir(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRejectsEmptyFile(t *testing.T) {
	store := NewImageStore(NewResolver(t.TempDir(), "uploads"))
	empty := UploadedFile{Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}}
	_, err := store.SaveProfilePicture("profile_1_1.png", empty)
	assert.ErrorIs(t, err, errEmptyFile)
}

func TestRemoveLeavesOtherRowsFiles(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(NewResolver(root, "uploads"))
	writeFile(t, root, "uploads/photo.jpg")
	writeFile(t, root, "legacy/old.jpg")

	store.Remove("c/photo.jpg", "legacy/old.jpg")
	assert.FileExists(t, filepath.Join(root, "uploads", "photo.jpg"))
	assert.NoFileExists(t, filepath.Join(root, "legacy", "old.jpg"))
}
