package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"realtime-threads/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxImageSize is the largest upload accepted, in bytes.
const MaxImageSize = 10 << 20

var (
	ErrNotAnImage   = errors.New("only image files are allowed")
	ErrFileTooLarge = errors.New("file is too large")
)

// UploadResult describes a stored object.
type UploadResult struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ImageStore uploads user images to a MinIO bucket.
type ImageStore struct {
	client  objectPutter
	bucket  string
	baseURL string
}

// NewMinIOClient connects to MinIO and makes sure the bucket exists.
func NewMinIOClient(ctx context.Context, cfg config.StorageConfig) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		slog.Info("Created MinIO bucket", "bucket", cfg.Bucket)
	}

	baseURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if baseURL == "" {
		baseURL = client.EndpointURL().String()
	}

	slog.Info("Successfully connected to MinIO", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return newImageStore(client, cfg.Bucket, baseURL), nil
}

func newImageStore(client objectPutter, bucket, baseURL string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// UploadImage stores an image under images/<uuid><ext> and returns its URL.
func (s *ImageStore) UploadImage(ctx context.Context, file *multipart.FileHeader) (*UploadResult, error) {
	if file.Size > MaxImageSize {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrFileTooLarge, file.Size, MaxImageSize)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	contentType, err := sniffContentType(file.Header.Get("Content-Type"), src)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: got %s", ErrNotAnImage, contentType)
	}

	key := "images/" + uuid.New().String() + extensionFor(file.Filename, contentType)
	_, err = s.client.PutObject(ctx, s.bucket, key, src, file.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	return &UploadResult{
		URL:         fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, key),
		Key:         key,
		ContentType: contentType,
		Size:        file.Size,
	}, nil
}

// sniffContentType trusts the declared type when present and otherwise
// detects it from the first bytes. src is rewound either way.
func sniffContentType(declared string, src multipart.File) (string, error) {
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

func extensionFor(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
