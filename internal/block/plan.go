// Package block computes block plans over an input file and supplies
// the raw bytes for each block under one of two memory strategies.
package block

import (
	"errors"
	"fmt"
)

// ErrInvalidBlockSize is returned when a plan is requested with a
// non-positive block size.
var ErrInvalidBlockSize = errors.New("block size must be positive")

// Range identifies one block of the input.
// Index provides monotonic ordering for the container writer.
type Range struct {
	Index  int
	Offset int64
	Length int64
}

// Plan splits [0, totalLen) into contiguous, non-overlapping ranges of
// blockSize bytes each, with the final range possibly shorter. All offset
// arithmetic is 64-bit so the plan is exact for inputs larger than 4 GiB.
//
// A zero-length input yields an empty plan.
func Plan(totalLen, blockSize int64) ([]Range, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}
	if totalLen < 0 {
		return nil, fmt.Errorf("negative input length: %d", totalLen)
	}
	if totalLen == 0 {
		return nil, nil
	}

	numBlocks := (totalLen + blockSize - 1) / blockSize
	ranges := make([]Range, 0, numBlocks)

	for i := int64(0); i < numBlocks; i++ {
		offset := i * blockSize
		length := blockSize
		if offset+length > totalLen {
			length = totalLen - offset
		}
		ranges = append(ranges, Range{
			Index:  int(i),
			Offset: offset,
			Length: length,
		})
	}

	return ranges, nil
}
