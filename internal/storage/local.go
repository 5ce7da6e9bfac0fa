package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes files under a directory served at publicURL.
// Locators are the public URL path, e.g. /uploads/photo-<uuid>.png.
type LocalStorage struct {
	dir       string
	publicURL string
}

func NewLocalStorage(dir, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Dir returns the directory files are written to.
func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) pathFor(locator string) (string, error) {
	prefix := s.publicURL + "/"
	if !strings.HasPrefix(locator, prefix) {
		return "", ErrInvalidLocator
	}
	name := strings.TrimPrefix(locator, prefix)
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return "", ErrInvalidLocator
	}
	return filepath.Join(s.dir, name), nil
}

func (s *LocalStorage) Upload(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := path.Base(key)
	if name == "." || name == "/" {
		return "", ErrInvalidLocator
	}
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return s.publicURL + "/" + name, nil
}

func (s *LocalStorage) Delete(_ context.Context, locator string) error {
	p, err := s.pathFor(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

func (s *LocalStorage) Exists(_ context.Context, locator string) (bool, error) {
	p, err := s.pathFor(locator)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
