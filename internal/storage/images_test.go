package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func multipartHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File[field][0]
}

func TestImageStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStore(dir, "assets/images")
	require.NoError(t, err)

	header := multipartHeader(t, "image", "mug.PNG", []byte("fake-png"))

	path, err := store.Save(header)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, "assets/images/"))
	require.True(t, strings.HasSuffix(path, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(path)))
	require.NoError(t, err)
	require.Equal(t, []byte("fake-png"), data)

	// A second upload of the same filename gets a distinct stored name.
	other, err := store.Save(multipartHeader(t, "image", "mug.PNG", []byte("other")))
	require.NoError(t, err)
	require.NotEqual(t, path, other)
}

func TestImageStoreRejectsUnsupportedType(t *testing.T) {
	store, err := NewImageStore(t.TempDir(), "assets/images")
	require.NoError(t, err)

	_, err = store.Save(multipartHeader(t, "image", "malware.exe", []byte("nope")))
	require.ErrorIs(t, err, ErrUnsupportedImageType)
}

func TestImageStoreRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStore(dir, "assets/images")
	require.NoError(t, err)

	path, err := store.Save(multipartHeader(t, "image", "mug.png", []byte("data")))
	require.NoError(t, err)

	store.Remove(path)
	_, err = os.Stat(filepath.Join(dir, filepath.Base(path)))
	require.True(t, os.IsNotExist(err))

	// Removing twice is harmless.
	store.Remove(path)
	store.Remove("")
}
