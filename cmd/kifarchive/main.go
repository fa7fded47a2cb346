// kifarchive summarises a directory of converted KIF files into a parquet
// archive, or prints result counts from an existing archive.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sheerluck/csa2kif/internal/obslog"
	"github.com/sheerluck/csa2kif/pkg/kif"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := kif.ResolveConfig()
	if err != nil {
		fatal(err)
	}
	inputDir := flag.String("input", "", "input directory for KIF files")
	outputPath := flag.String("output", cfg.Archive, "output parquet file")
	parquetPath := flag.String("parquet", "", "read an existing archive and print result counts")
	workers := flag.Int("workers", cfg.Workers, "number of parallel readers")
	flag.Parse()

	logger := obslog.New(cfg.LogLevel)
	defer logger.Sync()

	if (*inputDir == "") == (*parquetPath == "") {
		fatal(fmt.Errorf("specify exactly one of -input or -parquet"))
	}
	if *workers <= 0 {
		*workers = 1
	}

	if *parquetPath != "" {
		records, err := kif.ReadParquet(*parquetPath, int64(*workers))
		if err != nil {
			fatal(err)
		}
		printCounts(*parquetPath, records)
		return
	}

	files, err := kif.CollectKIF(*inputDir)
	if err != nil {
		fatal(err)
	}
	if len(files) == 0 {
		fatal(fmt.Errorf("no .kif files found in %s", *inputDir))
	}
	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}
	}
	written, failed, err := archive(context.Background(), files, *outputPath, *workers, logger)
	if err != nil {
		fatal(err)
	}
	logger.Info("archive written",
		zap.String("output", *outputPath),
		zap.Int("games", written),
		zap.Int("failed", failed))
}

// archive reads files with a bounded pool and streams the summaries into
// the parquet writer. Unreadable files are logged and skipped.
func archive(ctx context.Context, files []string, outputPath string, workers int, logger *zap.Logger) (int, int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := make(chan kif.Summary, workers)
	type writeResult struct {
		written int
		err     error
	}
	done := make(chan writeResult, 1)
	go func() {
		written, err := kif.WriteParquet(outputPath, results, int64(workers))
		if err != nil {
			cancel()
		}
		done <- writeResult{written, err}
	}()

	failures := make(chan string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range files {
		path := path
		g.Go(func() error {
			summary, err := kif.LoadSummary(path)
			if err != nil {
				logger.Warn("failed to summarise", zap.String("path", path), zap.Error(err))
				failures <- path
				return nil
			}
			select {
			case results <- summary:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	err := g.Wait()
	close(results)
	close(failures)
	w := <-done
	if w.err != nil {
		return 0, 0, w.err
	}
	if err != nil {
		return 0, 0, err
	}
	return w.written, len(failures), nil
}

func printCounts(path string, records []kif.Summary) {
	counts := make(map[string]int)
	moves := 0
	for _, record := range records {
		counts[record.Result]++
		moves += int(record.MoveCount)
	}
	keys := maps.Keys(counts)
	sort.Strings(keys)
	fmt.Printf("input parquet: %s\n", path)
	fmt.Printf("games: %d\n", len(records))
	fmt.Printf("moves: %d\n", moves)
	for _, key := range keys {
		fmt.Printf("%s,%d\n", key, counts[key])
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
