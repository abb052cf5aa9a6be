package storage

import (
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob" // GCS driver
)

// GCSStore writes containers to Google Cloud Storage.
type GCSStore struct {
	bucket     *blob.Bucket
	bucketName string
	prefix     string
}

// NewGCSStore creates a new GCS store.
func NewGCSStore(bucketName, prefix string) (*GCSStore, error) {
	ctx := context.Background()

	bucket, err := blob.OpenBucket(ctx, fmt.Sprintf("gs://%s", bucketName))
	if err != nil {
		return nil, fmt.Errorf("open GCS bucket %s: %w", bucketName, err)
	}

	return &GCSStore{
		bucket:     bucket,
		bucketName: bucketName,
		prefix:     prefix,
	}, nil
}

// WriteContainer streams the container into a GCS object. Cancelling the
// writer context before Close aborts the upload, so a failed stream never
// publishes a partial object.
func (s *GCSStore) WriteContainer(ctx context.Context, name string, write func(w io.Writer) error) (int64, error) {
	return writeBlob(ctx, s.bucket, s.prefix+name, write)
}

// WriteManifest writes a manifest object next to the container.
func (s *GCSStore) WriteManifest(ctx context.Context, name string, manifest *Manifest) error {
	return writeManifestBlob(ctx, s.bucket, s.prefix+ManifestName(name), manifest)
}

// Exists checks if a container already exists.
func (s *GCSStore) Exists(ctx context.Context, name string) (bool, error) {
	return s.bucket.Exists(ctx, s.prefix+name)
}

// URI returns the canonical gs:// URI for the given name.
func (s *GCSStore) URI(name string) string {
	return fmt.Sprintf("gs://%s/%s%s", s.bucketName, s.prefix, name)
}

// Close releases the bucket handle.
func (s *GCSStore) Close() error {
	return s.bucket.Close()
}

// writeBlob streams into a bucket object with abort-on-error semantics.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key string, write func(w io.Writer) error) (int64, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := bucket.NewWriter(wctx, key, nil)
	if err != nil {
		return 0, fmt.Errorf("create writer for %s: %w", key, err)
	}

	cw := &countingWriter{w: w}
	if err := write(cw); err != nil {
		cancel() // abort the upload
		w.Close()
		return 0, err
	}

	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close writer for %s: %w", key, err)
	}

	return cw.n, nil
}

// writeManifestBlob marshals and writes a manifest object.
func writeManifestBlob(ctx context.Context, bucket *blob.Bucket, key string, manifest *Manifest) error {
	data, err := manifest.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write manifest to %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}

	return nil
}
