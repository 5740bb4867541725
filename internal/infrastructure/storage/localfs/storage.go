package localfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

// Storage keeps decoded result images on local disk.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/results"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// SaveResultImage decodes an inline try-on result and stores it under
// name plus the image's extension. It returns the written path.
func (s *Storage) SaveResultImage(ctx context.Context, name, ref string) (string, error) {
	img, err := domain.DecodeResultImage(ref)
	if err != nil {
		return "", err
	}
	key := strings.TrimSuffix(name, filepath.Ext(name)) + img.Extension()
	if err := s.Save(ctx, key, bytes.NewReader(img.Data)); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, key), nil
}

func (s *Storage) resolve(key string) (string, error) {
	clean := filepath.Base(filepath.Clean("/" + key))
	if clean == "/" || clean == "." || clean == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "storage key", fmt.Errorf("invalid key %q", key))
	}
	return filepath.Join(s.basePath, clean), nil
}
