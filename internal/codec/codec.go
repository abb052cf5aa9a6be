// Package codec provides the block compressors used to build output
// containers.
//
// Every implementation emits one self-delimiting compressed unit per
// Compress call (a gzip member, a zstd frame, an s2 stream, an lz4 frame).
// All four formats define a concatenation of such units as a single valid
// stream, which is what makes block-independent parallel compression
// produce a container any standard decompressor can read.
package codec

import "fmt"

// Type identifies a compression format.
type Type string

const (
	Gzip     Type = "gzip"
	Zstd     Type = "zstd"
	S2       Type = "s2"
	LZ4      Type = "lz4"
	Identity Type = "identity"
)

// DefaultLevel picks each format's own default effort.
const DefaultLevel = 0

// Codec compresses one block into one self-delimiting compressed unit.
//
// Implementations must be safe for concurrent use: workers share a single
// Codec across the whole run. The input slice is never modified and the
// returned slice is newly allocated and owned by the caller.
type Codec interface {
	// Compress returns the compressed form of data as a standalone unit.
	Compress(data []byte) ([]byte, error)

	// Type reports the compression format.
	Type() Type

	// Extension returns the conventional file suffix for containers of
	// this format, including the leading dot.
	Extension() string
}

// New creates a codec for the given format at the given effort level.
// Level semantics are format-specific; DefaultLevel selects each format's
// default. An unknown type or an out-of-range level is an error.
func New(t Type, level int) (Codec, error) {
	switch t {
	case Gzip:
		return newGzipCodec(level)
	case Zstd:
		return newZstdCodec(level)
	case S2:
		return newS2Codec(level)
	case LZ4:
		return newLZ4Codec(level)
	case Identity:
		return identityCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec type: %q", t)
	}
}

// Types lists the formats usable from configuration.
func Types() []Type {
	return []Type{Gzip, Zstd, S2, LZ4}
}
