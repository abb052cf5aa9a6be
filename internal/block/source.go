package block

import (
	"fmt"
	"io"
	"os"
)

// Source supplies the raw bytes for a single block range. Implementations
// must be safe for concurrent use by multiple workers reading different
// ranges.
type Source interface {
	// Read returns the bytes covering r. The returned slice is only valid
	// until the block has been compressed; callers must not retain it.
	Read(r Range) ([]byte, error)

	// Close releases any underlying resources.
	Close() error
}

// ResidentSource holds the entire input in memory, loaded once before any
// parallel work begins. Reads are bounds-checked subslices and never touch
// the filesystem. Peak memory is the full input size for the whole run.
type ResidentSource struct {
	data []byte
}

// LoadResident reads the whole file at path into memory.
func LoadResident(path string) (*ResidentSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load input %s: %w", path, err)
	}
	return &ResidentSource{data: data}, nil
}

// NewResidentSource wraps an already-loaded buffer.
func NewResidentSource(data []byte) *ResidentSource {
	return &ResidentSource{data: data}
}

// Read returns the subslice covering r.
func (s *ResidentSource) Read(r Range) ([]byte, error) {
	end := r.Offset + r.Length
	if r.Offset < 0 || r.Length <= 0 || end > int64(len(s.data)) {
		return nil, fmt.Errorf("range [%d,%d) outside input of %d bytes", r.Offset, end, len(s.data))
	}
	return s.data[r.Offset:end], nil
}

// Close is a no-op for the resident source.
func (s *ResidentSource) Close() error {
	return nil
}

// OnDemandSource reads each requested range directly from disk at call time
// and holds nothing else. ReadAt is positioned and cursor-free, so concurrent
// workers never share mutable read state. Peak memory is one block per
// in-flight worker, independent of the input size.
type OnDemandSource struct {
	f    *os.File
	size int64
}

// OpenOnDemand opens path for positioned block reads.
func OpenOnDemand(path string) (*OnDemandSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat input %s: %w", path, err)
	}
	return &OnDemandSource{f: f, size: fi.Size()}, nil
}

// Read allocates a buffer for r and fills it with exactly r.Length bytes
// from the file. A short read is an error: the plan was computed from the
// file size, so fewer bytes means the file changed underneath the run.
func (s *OnDemandSource) Read(r Range) ([]byte, error) {
	if r.Offset < 0 || r.Length <= 0 || r.Offset+r.Length > s.size {
		return nil, fmt.Errorf("range [%d,%d) outside input of %d bytes", r.Offset, r.Offset+r.Length, s.size)
	}

	buf := make([]byte, r.Length)
	n, err := s.f.ReadAt(buf, r.Offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read block %d at offset %d: %w", r.Index, r.Offset, err)
	}
	if int64(n) != r.Length {
		return nil, fmt.Errorf("short read for block %d: got %d of %d bytes", r.Index, n, r.Length)
	}
	return buf, nil
}

// Close closes the underlying file handle.
func (s *OnDemandSource) Close() error {
	return s.f.Close()
}
