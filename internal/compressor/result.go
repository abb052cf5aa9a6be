// Package compressor implements the block-parallel compression pipeline:
// a scheduler that fans a block plan out over a worker pool, a result
// table that collects per-block outcomes, and a writer that serializes
// the compressed blocks in index order into a container.
package compressor

import (
	"errors"
	"fmt"
)

// Version information (set via ldflags)
var (
	Version = "v0.1.0"
	GitSHA  = "unknown"
)

// ErrIncompleteResult is returned when the container writer is handed a
// result table with unresolved or failed blocks. The caller is expected to
// check Failed() before writing, so hitting this is a contract violation.
var ErrIncompleteResult = errors.New("result table has unresolved blocks")

// CompressedBlock is the outcome of compressing one block. Exactly one
// worker produces the entry for a given index, and the writer consumes it
// exactly once.
type CompressedBlock struct {
	Index       int
	Data        []byte
	OriginalLen int64
	Checksum    uint64 // xxh64 of the raw block bytes
}

// BlockError records a per-block failure with its index.
type BlockError struct {
	Index int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Index, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// ResultTable maps block index to either a CompressedBlock or a failure.
// Workers write concurrently, but each index has exactly one writer, so
// the slots need no locking; only the aggregate counters in the scheduler
// are shared. Readers must wait for the scheduler to return first.
type ResultTable struct {
	blocks []*CompressedBlock
	errs   []error
}

// NewResultTable creates a table with numBlocks unresolved slots.
func NewResultTable(numBlocks int) *ResultTable {
	return &ResultTable{
		blocks: make([]*CompressedBlock, numBlocks),
		errs:   make([]error, numBlocks),
	}
}

// setSuccess records the compressed block for its index.
func (t *ResultTable) setSuccess(b *CompressedBlock) {
	t.blocks[b.Index] = b
}

// setFailure records a failure for index.
func (t *ResultTable) setFailure(index int, err error) {
	t.errs[index] = &BlockError{Index: index, Err: err}
}

// Len returns the number of block slots.
func (t *ResultTable) Len() int {
	return len(t.blocks)
}

// Block returns the compressed block at index, or nil if it failed or was
// never attempted.
func (t *ResultTable) Block(index int) *CompressedBlock {
	return t.blocks[index]
}

// Failed returns the errors of all failed blocks in index order.
func (t *ResultTable) Failed() []error {
	var failed []error
	for _, err := range t.errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return failed
}

// CompressedSize returns the total bytes of all successful blocks.
func (t *ResultTable) CompressedSize() int64 {
	var total int64
	for _, b := range t.blocks {
		if b != nil {
			total += int64(len(b.Data))
		}
	}
	return total
}
