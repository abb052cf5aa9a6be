package compressor

import "time"

// RunStats aggregates the outcome of one run for reporting. It is not part
// of the pipeline's correctness contract; the CLI formats it and maps it to
// an exit code.
type RunStats struct {
	Blocks         int
	FailedBlocks   int
	OriginalSize   int64
	CompressedSize int64
	Elapsed        time.Duration
	Strategy       string
	OutputURI      string
}

// Ratio returns compressed size over original size (< 1.0 means the
// container is smaller than the input). Zero-length inputs yield 0.
func (s RunStats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}
	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space saved as a percentage (0-100).
func (s RunStats) SpaceSavings() float64 {
	return (1.0 - s.Ratio()) * 100.0
}

// ThroughputMBps returns uncompressed megabytes processed per second.
func (s RunStats) ThroughputMBps() float64 {
	secs := s.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(s.OriginalSize) / (1024 * 1024) / secs
}
