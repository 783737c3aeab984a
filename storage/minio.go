// Package storage archives rendered videos in a MinIO bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"time"

	"Slidecast/config"
	"Slidecast/logger"
	"Slidecast/model"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Artifact prefixes inside the bucket.
const (
	KindSlide    = "slides"
	KindCombined = "combined"
)

var artifactKeyPattern = regexp.MustCompile(`^(slides|combined)/[0-9a-f\-]{36}\.mp4$`)

// ArtifactStore wraps a MinIO client bound to one bucket.
type ArtifactStore struct {
	client *minio.Client
	bucket string
	region string
}

// New creates a client for cfg. It does not contact the server.
func New(cfg config.MinioConfig) (*ArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}

	logger.Info("MinIO archive configured",
		logger.String("endpoint", cfg.Endpoint),
		logger.String("bucket", cfg.Bucket),
		logger.Bool("ssl", cfg.UseSSL))

	return &ArtifactStore{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// Bucket returns the bucket name.
func (s *ArtifactStore) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket when it does not exist.
func (s *ArtifactStore) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		logger.Debug("Bucket already exists", logger.String("bucket", s.bucket))
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	logger.Info("Bucket created", logger.String("bucket", s.bucket))
	return nil
}

// Ping checks that the bucket is reachable.
func (s *ArtifactStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

// ArtifactKey returns a fresh object key under kind.
func ArtifactKey(kind string) string {
	return path.Join(kind, uuid.NewString()+".mp4")
}

// ValidKey reports whether key looks like one produced by ArtifactKey.
func ValidKey(key string) bool {
	return artifactKeyPattern.MatchString(key)
}

// Put uploads the artifact under a new key of the given kind and returns the
// key.
func (s *ArtifactStore) Put(ctx context.Context, kind string, art *model.Artifact) (string, error) {
	key := ArtifactKey(kind)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(art.Data), int64(len(art.Data)), minio.PutObjectOptions{
		ContentType:        art.ContentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", art.Name),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	logger.Info("Artifact archived",
		logger.String("bucket", s.bucket),
		logger.String("key", key),
		logger.Int("size", len(art.Data)))
	return key, nil
}

// Open returns a reader for an archived artifact. The caller closes it.
func (s *ArtifactStore) Open(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get %s: %w", key, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	return obj, ObjectInfo{
		Key:          stat.Key,
		Size:         stat.Size,
		LastModified: stat.LastModified,
		ContentType:  stat.ContentType,
	}, nil
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
