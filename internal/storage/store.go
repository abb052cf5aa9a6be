// Package storage publishes finished containers to a backend: local
// filesystem, GCS, or any S3-compatible store.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Store abstracts the backend a finished container is published to.
//
// WriteContainer takes a callback that streams the container bytes into the
// backend writer. Backends guarantee that a failed or abandoned write never
// leaves a readable object at the final name: local storage writes a temp
// file and renames, object stores abort the blob writer.
type Store interface {
	// WriteContainer streams a container to name via the write callback.
	// Returns the number of bytes written.
	WriteContainer(ctx context.Context, name string, write func(w io.Writer) error) (int64, error)

	// WriteManifest writes the run manifest next to the container.
	WriteManifest(ctx context.Context, name string, manifest *Manifest) error

	// Exists reports whether an object already exists at name.
	Exists(ctx context.Context, name string) (bool, error)

	// URI returns the canonical URI for the given name.
	// For local: file:///path, GCS: gs://bucket/path, S3: s3://bucket/path
	URI(name string) string

	// Close releases any resources.
	Close() error
}

// ManifestName returns the manifest object name for a container name.
func ManifestName(container string) string {
	return container + ".manifest.json"
}

// Manifest describes a finished container: how the input was split, which
// codec produced it, and per-block checksums of the raw input.
type Manifest struct {
	Run       RunInfo       `json:"run"`
	Container ContainerInfo `json:"container"`
	Blocks    []BlockInfo   `json:"blocks"`
	Producer  ProducerInfo  `json:"producer"`
	CreatedAt time.Time     `json:"created_at"`
}

// RunInfo identifies the run that produced the container.
type RunInfo struct {
	ID        string `json:"id"`
	Input     string `json:"input"`
	Strategy  string `json:"strategy"`
	Workers   int    `json:"workers"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// ContainerInfo describes the container as a whole.
type ContainerInfo struct {
	Codec          string `json:"codec"`
	Level          int    `json:"level"`
	BlockSize      int64  `json:"block_size"`
	BlockCount     int    `json:"block_count"`
	OriginalSize   int64  `json:"original_size"`
	CompressedSize int64  `json:"compressed_size"`
}

// BlockInfo describes one block of the container.
type BlockInfo struct {
	Index          int    `json:"index"`
	Offset         int64  `json:"offset"`
	Length         int64  `json:"length"`
	CompressedSize int64  `json:"compressed_size"`
	Checksum       string `json:"checksum"` // xxh64 of the raw block bytes
}

// ProducerInfo describes the software that produced the container.
type ProducerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	GitSHA  string `json:"git_sha,omitempty"`
}

// MarshalJSON returns the manifest as indented JSON bytes.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	type Alias Manifest
	return json.MarshalIndent((*Alias)(m), "", "  ")
}

// StorageConfig configures the storage backend.
type StorageConfig struct {
	Backend string // "local" | "gcs" | "s3"

	// Local filesystem
	LocalDir string // base directory; "" means container names resolve against the cwd

	// GCS
	GCSBucket string

	// S3 (also works for B2, R2, MinIO)
	S3Bucket   string
	S3Endpoint string // custom endpoint for B2/MinIO/R2
	S3Region   string

	// Common
	Prefix string // path prefix within bucket or local dir
}

// NewStore creates a storage backend based on configuration.
func NewStore(cfg StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.LocalDir, cfg.Prefix)
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCSBucket required for gcs backend")
		}
		return NewGCSStore(cfg.GCSBucket, cfg.Prefix)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3Bucket required for s3 backend")
		}
		return NewS3Store(cfg.S3Bucket, cfg.Prefix, cfg.S3Endpoint, cfg.S3Region)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
