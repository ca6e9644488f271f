// Package receipts handles uploaded receipt images: storage in GCS and
// scanning them into draft transactions.
package receipts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Storage reads and writes receipt images. Backed by GCS in production, faked
// in tests.
type Storage interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (gcsURI string, err error)
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)
}

// GCSStorage stores receipt images in one GCS bucket. It assumes Application
// Default Credentials are configured.
type GCSStorage struct {
	bucket string
}

func NewGCSStorage(bucket string) *GCSStorage {
	return &GCSStorage{bucket: bucket}
}

// Upload writes the image bytes under receipts/<objectName> and returns the
// object's gs:// URI.
func (s *GCSStorage) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	objectPath := "receipts/" + objectName
	obj := client.Bucket(s.bucket).Object(objectPath)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write receipt to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize receipt upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectPath), nil
}

// Fetch downloads the receipt bytes from the given GCS URI.
func (s *GCSStorage) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := splitGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading receipt bytes: %w", err)
	}

	return data, nil
}

// splitGCSURI splits "gs://bucket/path/to/object" into its bucket and object
// path.
func splitGCSURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}

	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}

	return parts[0], parts[1], nil
}

var _ Storage = (*GCSStorage)(nil)
