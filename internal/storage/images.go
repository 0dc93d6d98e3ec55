package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

const MaxImageBytes = 5 << 20

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

type ImageStore interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

type MinIOImageStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewMinIOImageStore connects and makes sure the bucket exists.
func NewMinIOImageStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, log *zap.Logger) (*MinIOImageStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", endpoint, err)
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", bucket, err)
		}
		log.Info("image bucket created", zap.String("bucket", bucket))
	}
	return &MinIOImageStore{client: client, bucket: bucket, log: log}, nil
}

// Upload stores data under listings/<uuid><ext> and returns its URL.
func (s *MinIOImageStore) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	ext, err := ImageExt(filename)
	if err != nil {
		return "", err
	}
	key := ObjectKey(ext)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(data),
	})
	if err != nil {
		s.log.Error("image upload failed", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	s.log.Info("image uploaded", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key), nil
}

func ImageExt(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedImage
	}
	return ext, nil
}

func ObjectKey(ext string) string {
	return "listings/" + uuid.NewString() + ext
}
