package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"foundation-backend/internal/logger"
)

// LocalStorage keeps uploads on the local filesystem and serves them from
// <baseURL>/files/<key>. It is meant for development.
type LocalStorage struct {
	baseURL string
	rootDir string
}

func NewLocalStorage(baseURL, rootDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		rootDir: rootDir,
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, key, contentType string, r io.Reader, size int64, onProgress ProgressFunc) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	fullPath := s.localPath(key)
	logger.ExternalServiceCall("local-storage", "upload", "key", key, "size", size)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, newProgressReader(r, size, onProgress))
	logger.ExternalServiceResult("local-storage", "upload", err, "key", key, "written", written)
	if err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return s.PublicURL(key), nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(s.localPath(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/files/%s", s.baseURL, (&url.URL{Path: key}).EscapedPath())
}

// Open returns the stored file for the /files route.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(s.localPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) localPath(key string) string {
	return filepath.Join(s.rootDir, filepath.FromSlash(key))
}
