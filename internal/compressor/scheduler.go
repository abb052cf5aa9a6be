package compressor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/blockpress/blockpress/internal/block"
	"github.com/blockpress/blockpress/internal/codec"
	"github.com/blockpress/blockpress/internal/logging"
	"github.com/blockpress/blockpress/internal/metrics"
)

// progressEvery controls how often aggregate progress is logged.
const progressEvery = 10

// Scheduler fans a block plan out over a fixed worker pool. Assignment is
// dynamic and greedy: workers pull the next unclaimed block from a shared
// channel as soon as they finish their current one, so data-dependent
// compression cost never leaves a worker idle while blocks remain.
type Scheduler struct {
	workers int
	labels  metrics.Labels
	log     *slog.Logger
}

// NewScheduler creates a scheduler with the given pool size.
func NewScheduler(workers int, labels metrics.Labels) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		workers: workers,
		labels:  labels,
		log:     logging.Component("scheduler"),
	}
}

// Run compresses every block in plan and returns the populated result
// table. Every index is attempted exactly once; per-block read or
// compression failures are recorded in the table and tallied, never
// escalated to abort sibling blocks. The only error Run itself returns is
// context cancellation, which is checked at block granularity before each
// dispatch.
func (s *Scheduler) Run(ctx context.Context, plan []block.Range, src block.Source, c codec.Codec) (*ResultTable, error) {
	table := NewResultTable(len(plan))
	if len(plan) == 0 {
		return table, nil
	}

	tasks := make(chan block.Range)
	var (
		wg        sync.WaitGroup
		completed atomic.Int64
		failed    atomic.Int64
		inFlight  atomic.Int64
	)
	total := len(plan)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log := logging.WorkerLogger(workerID)

			for r := range tasks {
				if m := metrics.Get(); m != nil {
					m.SetInFlightBlocks(float64(inFlight.Add(1)))
				}

				s.processBlock(r, src, c, table, &failed, log)

				if m := metrics.Get(); m != nil {
					m.SetInFlightBlocks(float64(inFlight.Add(-1)))
				}

				done := completed.Add(1)
				if done%progressEvery == 0 || done == int64(total) {
					s.log.Info("progress", "completed", done, "total", total)
				}
			}
		}(i)
	}

	// Dispatch. Cancellation is observed here, before each block: blocks
	// already claimed run to completion, unclaimed ones are never started.
	var dispatchErr error
dispatch:
	for _, r := range plan {
		select {
		case <-ctx.Done():
			dispatchErr = ctx.Err()
			break dispatch
		case tasks <- r:
		}
	}
	close(tasks)

	wg.Wait()

	if dispatchErr != nil {
		return table, dispatchErr
	}
	return table, nil
}

// processBlock reads, checksums, and compresses one block, recording the
// outcome at its slot. The raw buffer is dropped as soon as compression
// finishes so on-demand runs hold at most one block per worker.
func (s *Scheduler) processBlock(r block.Range, src block.Source, c codec.Codec, table *ResultTable, failed *atomic.Int64, log *slog.Logger) {
	start := time.Now()

	raw, err := src.Read(r)
	if err != nil {
		s.recordFailure(r, err, table, failed, log)
		return
	}

	sum := xxhash.Sum64(raw)

	data, err := c.Compress(raw)
	if err != nil {
		s.recordFailure(r, err, table, failed, log)
		return
	}

	table.setSuccess(&CompressedBlock{
		Index:       r.Index,
		Data:        data,
		OriginalLen: r.Length,
		Checksum:    sum,
	})

	if m := metrics.Get(); m != nil {
		m.IncBlocksCompressed(s.labels)
		m.AddBytesOriginal(s.labels, float64(r.Length))
		m.AddBytesCompressed(s.labels, float64(len(data)))
		m.ObserveBlockCompressDuration(s.labels, time.Since(start).Seconds())
		m.ObserveBlockCompressedBytes(s.labels, float64(len(data)))
	}

	log.Debug("block compressed",
		"index", r.Index,
		"original_bytes", r.Length,
		"compressed_bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (s *Scheduler) recordFailure(r block.Range, err error, table *ResultTable, failed *atomic.Int64, log *slog.Logger) {
	table.setFailure(r.Index, err)
	failed.Add(1)

	if m := metrics.Get(); m != nil {
		m.IncBlocksFailed(s.labels)
	}

	log.Warn("block failed", "index", r.Index, "offset", r.Offset, "error", err)
}
