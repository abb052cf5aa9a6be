package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdCodec emits one zstd frame per block. The zstd format defines a
// sequence of frames as a single valid stream, decodable by the reference
// zstd tool.
//
// Encoders are pooled; EncodeAll is stateless so a warmed-up encoder can be
// reused across blocks without reallocation.
type zstdCodec struct {
	level    zstd.EncoderLevel
	encoders sync.Pool
}

func newZstdCodec(level int) (*zstdCodec, error) {
	encLevel := zstd.SpeedDefault
	if level != DefaultLevel {
		if level < 1 || level > 22 {
			return nil, fmt.Errorf("zstd level %d out of range [1,22]", level)
		}
		encLevel = zstd.EncoderLevelFromZstd(level)
	}

	c := &zstdCodec{level: encLevel}
	c.encoders.New = func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(encLevel),
			zstd.WithEncoderConcurrency(1), // parallelism comes from the block workers
		)
		if err != nil {
			// Options are static and valid.
			panic(fmt.Sprintf("zstd encoder: %v", err))
		}
		return encoder
	}
	return c, nil
}

func (c *zstdCodec) Compress(data []byte) ([]byte, error) {
	encoder := c.encoders.Get().(*zstd.Encoder)
	defer c.encoders.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

func (c *zstdCodec) Type() Type        { return Zstd }
func (c *zstdCodec) Extension() string { return ".zst" }
