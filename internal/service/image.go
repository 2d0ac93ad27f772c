package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/storage"
)

const thumbnailWidth = 400

// UploadFolders are the top-level folders uploads may be stored under.
var UploadFolders = []string{"blog", "events", "avatars", "orphanages", "issues", "receipts"}

var contentTypeExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

type UploadedImage struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	ThumbnailKey string `json:"thumbnailKey,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
}

type imageService struct {
	uploader     storage.Uploader
	maxBytes     int64
	allowedTypes map[string]bool
	now          func() time.Time
}

func NewImageService(uploader storage.Uploader, maxBytes int64, allowedTypes []string) ImageService {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(t)] = true
	}
	return &imageService{
		uploader:     uploader,
		maxBytes:     maxBytes,
		allowedTypes: allowed,
		now:          time.Now,
	}
}

// UploadImage stores the file under folder and, for raster images, a JPEG
// thumbnail under folder/thumbnails. onProgress sees the main upload only.
func (s *imageService) UploadImage(ctx context.Context, folder, filename, contentType string, r io.Reader, size int64, onProgress storage.ProgressFunc) (*UploadedImage, error) {
	logger.EnterMethod("imageService.UploadImage", "folder", folder, "filename", filename, "size", size)

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}
	mediaType = strings.ToLower(mediaType)

	verr := &domain.ValidationError{}
	if !isUploadFolder(folder) {
		verr.Add("folder", fmt.Sprintf("must be one of: %s", strings.Join(UploadFolders, ", ")))
	}
	ext, known := contentTypeExt[mediaType]
	if !known || !s.allowedTypes[mediaType] {
		verr.Add("file", fmt.Sprintf("unsupported file type %q", contentType))
	}
	if size > s.maxBytes {
		verr.Add("file", fmt.Sprintf("must be at most %d MB", s.maxBytes/(1024*1024)))
	}
	if err := verr.OrNil(); err != nil {
		logger.ExitMethodWithError("imageService.UploadImage", err)
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.NewValidationError("file", fmt.Sprintf("must be at most %d MB", s.maxBytes/(1024*1024)))
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("file", "is empty")
	}

	name := fmt.Sprintf("%d_%s", s.now().UnixNano(), uuid.NewString()[:8])
	key := path.Join(folder, name+ext)

	logger.ExternalServiceCall("storage", "Upload", "key", key)
	url, err := s.uploader.Upload(ctx, key, mediaType, bytes.NewReader(data), int64(len(data)), onProgress)
	logger.ExternalServiceResult("storage", "Upload", err, "key", key)
	if err != nil {
		logger.ExitMethodWithError("imageService.UploadImage", err, "key", key)
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	out := &UploadedImage{Key: key, URL: url, ContentType: mediaType, Size: int64(len(data))}
	if strings.HasPrefix(mediaType, "image/") {
		thumbKey := path.Join(folder, "thumbnails", name+".jpg")
		if thumbURL, err := s.uploadThumbnail(ctx, thumbKey, data); err != nil {
			logger.Warn("Failed to create thumbnail", "key", key, "error", err)
		} else {
			out.ThumbnailKey, out.ThumbnailURL = thumbKey, thumbURL
		}
	}

	logger.ExitMethod("imageService.UploadImage", "key", key)
	return out, nil
}

func (s *imageService) uploadThumbnail(ctx context.Context, key string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Dx() > thumbnailWidth {
		img = imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return s.uploader.Upload(ctx, key, "image/jpeg", &buf, int64(buf.Len()), nil)
}

// DeleteImage removes the file and its thumbnail, if any.
func (s *imageService) DeleteImage(ctx context.Context, key string) error {
	key, err := storage.CleanKey(key)
	if err != nil {
		return domain.NewValidationError("key", "invalid file path")
	}
	folder := strings.SplitN(key, "/", 2)[0]
	if !isUploadFolder(folder) {
		return domain.NewValidationError("key", "invalid file path")
	}

	if err := s.uploader.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: file %s", domain.ErrNotFound, key)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	dir, file := path.Split(key)
	if !strings.HasSuffix(strings.TrimSuffix(dir, "/"), "thumbnails") {
		thumb := path.Join(dir, "thumbnails", strings.TrimSuffix(file, path.Ext(file))+".jpg")
		if err := s.uploader.Delete(ctx, thumb); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("Failed to delete thumbnail", "key", thumb, "error", err)
		}
	}
	return nil
}

func isUploadFolder(folder string) bool {
	for _, f := range UploadFolders {
		if f == folder {
			return true
		}
	}
	return false
}
