package storage

import (
	"fmt"

	gcs "cloud.google.com/go/storage"
)

// Config selects and configures the upload backend.
type Config struct {
	Type      string // "local" or "firebase"
	UploadDir string // root directory for local storage
	BaseURL   string // server URL used in local file links
	Bucket    string // Firebase Storage bucket, empty for the app default
	// CacheControl is set on uploaded objects.
	CacheControl string
}

// BucketOpener returns a handle for a Firebase Storage bucket.
type BucketOpener func(name string) (*gcs.BucketHandle, error)

// New builds the configured backend. The returned *LocalStorage is non-nil
// only for local storage, which the server also has to serve. openBucket is
// only called for firebase.
func New(cfg Config, openBucket BucketOpener) (Uploader, *LocalStorage, error) {
	switch cfg.Type {
	case "", "local":
		local, err := NewLocalStorage(cfg.BaseURL, cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		return local, local, nil
	case "firebase":
		if openBucket == nil {
			return nil, nil, fmt.Errorf("firebase storage needs a firebase app")
		}
		bucket, err := openBucket(cfg.Bucket)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bucket %s: %w", cfg.Bucket, err)
		}
		return NewFirebaseStorage(bucket, cfg.Bucket, cfg.CacheControl), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
}
