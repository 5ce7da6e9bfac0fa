package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	DocumentLimit     int64 = 2 << 20
	PaymentProofLimit int64 = 5 << 20
)

var allowed = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// File is an inspected upload ready to be stored.
type File struct {
	Field       string
	Ext         string
	ContentType string
	Size        int64
	data        []byte
}

// Validate checks an upload's extension, sniffed content type and size.
func Validate(field string, fh *multipart.FileHeader, limit int64) (*File, error) {
	invalid := func(msg string) error {
		return apperrors.Validation(apperrors.FieldError{Field: field, Message: msg})
	}
	if fh.Size > limit {
		return nil, invalid(fmt.Sprintf("must be at most %d MB", limit>>20))
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	want, ok := allowed[ext]
	if !ok {
		return nil, invalid("only JPEG, PNG and PDF files are allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, invalid(fmt.Sprintf("must be at most %d MB", limit>>20))
	}
	if len(data) == 0 {
		return nil, invalid("file is empty")
	}
	if got := mimetype.Detect(data); !got.Is(want) {
		return nil, invalid("file content does not match its extension")
	}
	return &File{Field: field, Ext: ext, ContentType: want, Size: int64(len(data)), data: data}, nil
}

// Key returns a collision-free object name such as photo-<uuid>.png.
func (f *File) Key() string {
	return f.Field + "-" + uuid.NewString() + f.Ext
}

// Store uploads the inspected file and returns its locator.
func (f *File) Store(ctx context.Context, s Storage) (string, error) {
	return s.Upload(ctx, f.Key(), bytes.NewReader(f.data), f.Size, f.ContentType)
}
