// Package storage archives JSON reports to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadscore_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ReportStore is the MinIO-backed report archive.
type ReportStore struct {
	client *minio.Client
	bucket string
}

// NewReportStore connects to MinIO using cfg.
func NewReportStore(cfg config.StorageConfig) (*ReportStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &ReportStore{client: client, bucket: cfg.GetReportsBucket()}, nil
}

// EnsureBucket creates the reports bucket if it doesn't exist.
func (s *ReportStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// SaveJSON writes report as <prefix>/<RFC3339 timestamp>.json and returns the object key.
func (s *ReportStore) SaveJSON(ctx context.Context, prefix string, at time.Time, report any) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	key := ReportKey(prefix, at)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("upload report %s: %w", key, err)
	}
	return key, nil
}

// ReportKey builds the object key for a report taken at the given time.
func ReportKey(prefix string, at time.Time) string {
	return fmt.Sprintf("%s/%s.json", prefix, at.UTC().Format("20060102T150405Z"))
}
