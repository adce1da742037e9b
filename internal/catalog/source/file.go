package source

import (
	"context"
	"fmt"
	"os"
)

// File reads the catalog from a local CSV file.
type File struct {
	path     string
	maxBytes int64
}

// NewFile returns a Source that reads path on every fetch.
func NewFile(path string, maxBytes int64) *File {
	return &File{path: path, maxBytes: maxBytes}
}

func (f *File) Name() string { return "file:" + f.path }

func (f *File) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fh, err := os.Open(f.path)
	if err != nil {
		return "", fmt.Errorf("open catalog file: %w", err)
	}
	defer fh.Close()

	if info, err := fh.Stat(); err == nil && f.maxBytes > 0 && info.Size() > f.maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, f.path, info.Size(), f.maxBytes)
	}

	return ReadText(fh, f.maxBytes)
}

func (f *File) Close() error { return nil }
