package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/charlesng35/storefront/pkg/logger"
)

// ErrUnsupportedImageType is returned when an upload carries an extension
// outside the allowed set.
var ErrUnsupportedImageType = errors.New("storage: unsupported image type")

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// ImageStore persists uploaded product images on the local filesystem and
// hands back the public path clients use to fetch them.
type ImageStore struct {
	dir        string
	publicBase string
	log        *zap.Logger
}

// NewImageStore ensures the target directory exists and returns a store
// serving files under publicBase (for example "assets/images").
func NewImageStore(dir, publicBase string) (*ImageStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage: image directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create image directory: %w", err)
	}

	return &ImageStore{
		dir:        dir,
		publicBase: strings.Trim(publicBase, "/"),
		log:        logger.WithModule("storage"),
	}, nil
}

// Dir returns the filesystem directory images are written to.
func (s *ImageStore) Dir() string {
	return s.dir
}

// Save writes the uploaded file under a collision-free name and returns its
// public path.
func (s *ImageStore) Save(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrUnsupportedImageType
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("storage: open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("storage: create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("storage: write image file: %w", err)
	}

	return s.publicBase + "/" + name, nil
}

// Remove deletes the file backing a public path. Removal is best effort:
// missing files and paths outside the store are ignored.
func (s *ImageStore) Remove(publicPath string) {
	name := filepath.Base(strings.TrimSpace(publicPath))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove image file",
			zap.String("path", publicPath),
			zap.Error(err),
		)
	}
}

// RemoveAll deletes every file backing the given public paths.
func (s *ImageStore) RemoveAll(publicPaths []string) {
	for _, p := range publicPaths {
		s.Remove(p)
	}
}
