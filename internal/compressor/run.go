package compressor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/blockpress/blockpress/internal/block"
	"github.com/blockpress/blockpress/internal/codec"
	"github.com/blockpress/blockpress/internal/config"
	"github.com/blockpress/blockpress/internal/logging"
	"github.com/blockpress/blockpress/internal/metrics"
	"github.com/blockpress/blockpress/internal/storage"
)

// Memory strategies. Resident loads the whole input once and compresses
// from memory; on-demand has each worker read only its own block from
// disk, bounding peak memory to block_size × workers.
const (
	StrategyResident = "resident"
	StrategyOnDemand = "ondemand"
)

// ErrOutputExists is returned when the output already exists and
// overwriting was not requested.
var ErrOutputExists = errors.New("output already exists")

// Runner orchestrates a compression run: plan, parallel compress, publish.
type Runner struct {
	cfg   config.Config
	store storage.Store
	codec codec.Codec
	log   *slog.Logger
}

// New creates a Runner from validated configuration.
func New(cfg config.Config, store storage.Store) (*Runner, error) {
	c, err := codec.New(codec.Type(cfg.Run.Codec), cfg.Run.Level)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:   cfg,
		store: store,
		codec: c,
		log:   logging.Component("runner"),
	}, nil
}

// Codec returns the codec the runner was built with.
func (r *Runner) Codec() codec.Codec {
	return r.codec
}

// Run compresses the file at input into a container named output on the
// runner's store. The phases are strictly sequential: plan, parallel
// compression, then the write. If any block fails, nothing is published
// and the returned stats carry the failure count alongside the error.
func (r *Runner) Run(ctx context.Context, input, output string) (*RunStats, error) {
	start := time.Now()

	fi, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat input %s: %w", input, err)
	}
	totalLen := fi.Size()

	if !r.cfg.Run.Overwrite {
		exists, err := r.store.Exists(ctx, output)
		if err != nil {
			return nil, fmt.Errorf("check output %s: %w", output, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, r.store.URI(output))
		}
	}

	plan, err := block.Plan(totalLen, r.cfg.Run.BlockSize)
	if err != nil {
		return nil, err
	}

	strategy := chooseStrategy(r.cfg.Run.Strategy, totalLen, r.cfg.Run.ResidentLimit)
	src, err := openSource(strategy, input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	runID := uuid.New().String()
	labels := metrics.Labels{
		Codec:    string(r.codec.Type()),
		Strategy: strategy,
		Backend:  r.cfg.Storage.Backend,
	}
	log := logging.RunLogger(runID, input, string(r.codec.Type()), strategy)

	log.Info("starting run",
		"input_bytes", totalLen,
		"block_size", r.cfg.Run.BlockSize,
		"blocks", len(plan),
		"workers", r.cfg.Run.Workers,
	)
	if strategy == StrategyOnDemand {
		log.Info("memory bound",
			"peak_bytes", r.cfg.Run.BlockSize*int64(r.cfg.Run.Workers),
		)
	}

	sched := NewScheduler(r.cfg.Run.Workers, labels)
	table, err := sched.Run(ctx, plan, src, r.codec)
	if err != nil {
		if m := metrics.Get(); m != nil {
			m.IncRunsFailed(labels)
		}
		return nil, err
	}

	stats := &RunStats{
		Blocks:         len(plan),
		FailedBlocks:   len(table.Failed()),
		OriginalSize:   totalLen,
		CompressedSize: table.CompressedSize(),
		Strategy:       strategy,
	}

	if failed := table.Failed(); len(failed) > 0 {
		for _, ferr := range failed {
			log.Error("block failed", "error", ferr)
		}
		if m := metrics.Get(); m != nil {
			m.IncRunsFailed(labels)
		}
		stats.Elapsed = time.Since(start)
		return stats, fmt.Errorf("%d of %d blocks failed: %w", len(failed), len(plan), errors.Join(failed...))
	}

	writeStart := time.Now()
	written, err := r.store.WriteContainer(ctx, output, func(w io.Writer) error {
		_, werr := WriteContainer(w, table)
		return werr
	})
	if err != nil {
		if m := metrics.Get(); m != nil {
			m.IncRunsFailed(labels)
		}
		return nil, fmt.Errorf("write container: %w", err)
	}
	if m := metrics.Get(); m != nil {
		m.ObserveContainerWriteDuration(labels, time.Since(writeStart).Seconds())
	}

	stats.Elapsed = time.Since(start)
	stats.OutputURI = r.store.URI(output)

	manifest := r.buildManifest(runID, input, strategy, plan, table, stats)
	if err := r.store.WriteManifest(ctx, output, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if m := metrics.Get(); m != nil {
		m.IncRunsCompleted(labels)
	}

	log.Info("run complete",
		"blocks", stats.Blocks,
		"compressed_bytes", written,
		"ratio", fmt.Sprintf("%.4f", stats.Ratio()),
		"elapsed_ms", stats.Elapsed.Milliseconds(),
		"output", stats.OutputURI,
	)

	return stats, nil
}

// chooseStrategy resolves "auto" against the input size: inputs at or under
// the resident limit are loaded whole, larger ones are read block by block.
func chooseStrategy(configured string, totalLen, residentLimit int64) string {
	switch configured {
	case StrategyResident, StrategyOnDemand:
		return configured
	default:
		if totalLen <= residentLimit {
			return StrategyResident
		}
		return StrategyOnDemand
	}
}

// openSource builds the block source for the chosen strategy.
func openSource(strategy, input string) (block.Source, error) {
	if strategy == StrategyOnDemand {
		return block.OpenOnDemand(input)
	}
	return block.LoadResident(input)
}

// buildManifest assembles the sidecar manifest for a successful run.
func (r *Runner) buildManifest(runID, input, strategy string, plan []block.Range, table *ResultTable, stats *RunStats) *storage.Manifest {
	blocks := make([]storage.BlockInfo, 0, len(plan))
	for _, rng := range plan {
		b := table.Block(rng.Index)
		blocks = append(blocks, storage.BlockInfo{
			Index:          rng.Index,
			Offset:         rng.Offset,
			Length:         rng.Length,
			CompressedSize: int64(len(b.Data)),
			Checksum:       fmt.Sprintf("xxh64:%016x", b.Checksum),
		})
	}

	return &storage.Manifest{
		Run: storage.RunInfo{
			ID:        runID,
			Input:     input,
			Strategy:  strategy,
			Workers:   r.cfg.Run.Workers,
			ElapsedMs: stats.Elapsed.Milliseconds(),
		},
		Container: storage.ContainerInfo{
			Codec:          string(r.codec.Type()),
			Level:          r.cfg.Run.Level,
			BlockSize:      r.cfg.Run.BlockSize,
			BlockCount:     len(plan),
			OriginalSize:   stats.OriginalSize,
			CompressedSize: stats.CompressedSize,
		},
		Blocks: blocks,
		Producer: storage.ProducerInfo{
			Name:    "blockpress",
			Version: Version,
			GitSHA:  GitSHA,
		},
		CreatedAt: time.Now().UTC(),
	}
}
