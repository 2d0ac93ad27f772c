package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"

	"foundation-backend/internal/logger"
)

const publicHost = "https://storage.googleapis.com"

// FirebaseStorage uploads to a Firebase Storage (GCS) bucket.
type FirebaseStorage struct {
	bucket       *gcs.BucketHandle
	bucketName   string
	cacheControl string
}

// NewFirebaseStorage takes a bucket handle from the Firebase storage client.
func NewFirebaseStorage(bucket *gcs.BucketHandle, bucketName, cacheControl string) *FirebaseStorage {
	if cacheControl == "" {
		cacheControl = "public, max-age=31536000"
	}
	return &FirebaseStorage{bucket: bucket, bucketName: bucketName, cacheControl: cacheControl}
}

func (s *FirebaseStorage) Upload(ctx context.Context, key, contentType string, r io.Reader, size int64, onProgress ProgressFunc) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	logger.ExternalServiceCall("firebase-storage", "upload", "bucket", s.bucketName, "key", key, "size", size)

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = s.cacheControl
	if size > 0 && size < int64(w.ChunkSize) {
		// Single request for small images.
		w.ChunkSize = 0
	}
	if onProgress != nil {
		w.ProgressFunc = func(n int64) { onProgress(n, size) }
	}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		logger.ExternalServiceResult("firebase-storage", "upload", err, "key", key)
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	err = w.Close()
	logger.ExternalServiceResult("firebase-storage", "upload", err, "key", key)
	if err != nil {
		return "", fmt.Errorf("failed to finalize upload of %s: %w", key, err)
	}
	if onProgress != nil && size > 0 {
		onProgress(size, size)
	}
	return s.PublicURL(key), nil
}

func (s *FirebaseStorage) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	logger.ExternalServiceCall("firebase-storage", "delete", "key", key)
	err = s.bucket.Object(key).Delete(ctx)
	logger.ExternalServiceResult("firebase-storage", "delete", err, "key", key)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *FirebaseStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", publicHost, s.bucketName, (&url.URL{Path: key}).EscapedPath())
}
