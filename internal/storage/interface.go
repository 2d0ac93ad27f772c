package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidPath = errors.New("invalid storage path")
)

// ProgressFunc receives the bytes written so far and the expected total
// (0 when unknown).
type ProgressFunc func(written, total int64)

// Uploader stores files and returns the public URL they are served from.
// Backends: local filesystem (development) and Firebase Storage.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader, size int64, onProgress ProgressFunc) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// CleanKey normalizes a storage key and rejects keys that escape the root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// progressReader reports cumulative bytes read to fn.
type progressReader struct {
	r       io.Reader
	total   int64
	written int64
	fn      ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		p.fn(p.written, p.total)
	}
	return n, err
}
