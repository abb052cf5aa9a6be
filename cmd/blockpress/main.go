// Command blockpress compresses a file by splitting it into fixed-size
// blocks, compressing the blocks in parallel, and concatenating the results
// into a single container readable by the format's standard decompressor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/blockpress/blockpress/internal/compressor"
	"github.com/blockpress/blockpress/internal/config"
	"github.com/blockpress/blockpress/internal/logging"
	"github.com/blockpress/blockpress/internal/metrics"
	"github.com/blockpress/blockpress/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		blockSize  = flag.String("b", "", "block size in bytes, with optional K/M/G suffix (e.g. 900K)")
		workers    = flag.Int("w", 0, "number of parallel workers (default: all CPUs)")
		codecName  = flag.String("codec", "", "compression format: gzip, zstd, s2, lz4")
		level      = flag.Int("level", -1, "compression level (0 = format default)")
		strategy   = flag.String("strategy", "", "memory strategy: auto, resident, ondemand")
		backend    = flag.String("backend", "", "storage backend: local, gcs, s3")
		overwrite  = flag.Bool("f", false, "overwrite an existing output")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		usage()
		return 2
	}
	input := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "blockpress: %v\n", err)
		return 2
	}

	// Flags override file and environment.
	if *blockSize != "" {
		n, err := config.ParseSize(*blockSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "blockpress: -b: %v\n", err)
			return 2
		}
		cfg.Run.BlockSize = n
	}
	if *workers > 0 {
		cfg.Run.Workers = *workers
	}
	if *codecName != "" {
		cfg.Run.Codec = *codecName
	}
	if *level >= 0 {
		cfg.Run.Level = *level
	}
	if *strategy != "" {
		cfg.Run.Strategy = *strategy
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *overwrite {
		cfg.Run.Overwrite = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "blockpress: %v\n", err)
		return 2
	}

	logging.Setup(logging.Config{Format: cfg.Logging.Format, Level: cfg.Logging.Level})
	log := logging.Component("main")
	log.Info("blockpress", "version", compressor.Version, "git_sha", compressor.GitSHA)

	if cfg.Metrics.Enabled {
		metrics.Init("blockpress")
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Address); err != nil {
				log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown handler
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		log.Info("received signal, stopping", "signal", sig.String())
		cancel()
	}()

	store, err := storage.NewStore(storage.StorageConfig{
		Backend:    cfg.Storage.Backend,
		LocalDir:   cfg.Storage.LocalDir,
		GCSBucket:  cfg.Storage.GCSBucket,
		S3Bucket:   cfg.Storage.S3Bucket,
		S3Endpoint: cfg.Storage.S3Endpoint,
		S3Region:   cfg.Storage.S3Region,
		Prefix:     cfg.Storage.Prefix,
	})
	if err != nil {
		log.Error("create storage", "error", err)
		return 1
	}
	defer store.Close()

	runner, err := compressor.New(cfg, store)
	if err != nil {
		log.Error("create runner", "error", err)
		return 1
	}

	output := outputName(flag.Args(), runner)

	stats, err := runner.Run(ctx, input, output)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("run cancelled, nothing published")
			return 1
		}
		log.Error("run failed", "error", err)
		if stats != nil {
			fmt.Fprintf(os.Stderr, "Compression failed for %d of %d blocks\n", stats.FailedBlocks, stats.Blocks)
		}
		return 1
	}

	printStats(stats, cfg)
	return 0
}

// outputName returns the explicit output argument, or derives one from the
// input name and the codec's conventional extension.
func outputName(args []string, runner *compressor.Runner) string {
	if len(args) == 2 {
		return args[1]
	}
	return filepath.Base(args[0]) + runner.Codec().Extension()
}

// printStats writes the human-readable run report to stdout.
func printStats(stats *compressor.RunStats, cfg config.Config) {
	fmt.Printf("Blocks: %d (block size %d bytes, %d workers, %s strategy)\n",
		stats.Blocks, cfg.Run.BlockSize, cfg.Run.Workers, stats.Strategy)
	fmt.Printf("Original size: %d bytes\n", stats.OriginalSize)
	fmt.Printf("Compressed size: %d bytes\n", stats.CompressedSize)
	fmt.Printf("Compression ratio: %.2f%%\n", stats.SpaceSavings())
	fmt.Printf("Compression time: %.3f seconds\n", stats.Elapsed.Seconds())
	fmt.Printf("Throughput: %.2f MB/s\n", stats.ThroughputMBps())
	fmt.Printf("Output: %s\n", stats.OutputURI)

	if stats.Strategy == compressor.StrategyOnDemand {
		peak := cfg.Run.BlockSize * int64(cfg.Run.Workers)
		fmt.Printf("Peak block memory: ~%d MB (block size x workers)\n", peak/(1024*1024))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: blockpress [flags] <input_file> [output]

Compresses input_file into a container of independently compressed blocks.
With no output argument, writes <input_file><ext> for the chosen codec.

Flags:
`)
	flag.PrintDefaults()
}
