package gcsuploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// GCSArchiver writes uploads to one bucket with a shared storage client.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	now    func() time.Time
}

// NewGCSArchiver creates a storage client using Application Default Credentials.
func NewGCSArchiver(ctx context.Context, bucket string) (*GCSArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSArchiver: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket, now: time.Now}, nil
}

// Close closes the storage client.
func (a *GCSArchiver) Close() error {
	return a.client.Close()
}

// Archive uploads data under ObjectName and returns the object's gs:// URI.
func (a *GCSArchiver) Archive(ctx context.Context, userID, uploadID, filename string, data []byte) (string, error) {
	objectName := ObjectName(userID, uploadID, filename, a.now())

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/csv"
	w.Metadata = map[string]string{
		"user_id":   userID,
		"upload_id": uploadID,
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy upload to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return "gs://" + a.bucket + "/" + objectName, nil
}

// ObjectName lays uploads out as uploads/<user>/<yyyy>/<mm>/<dd>/<upload_id>-<file>.
func ObjectName(userID, uploadID, filename string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload.csv"
	}
	return fmt.Sprintf("uploads/%s/%s/%s-%s", userID, at.UTC().Format("2006/01/02"), uploadID, base)
}

// ParseURI splits gs://bucket/object into its parts.
func ParseURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}

	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.csv" → "file.csv"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
