// Batch mode: every RAW file in a directory through a bounded worker pool
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"raw-image-processor/internal/io"
	"raw-image-processor/internal/params"
	"raw-image-processor/internal/processor"
)

// Runner processes a single file; *processor.Processor satisfies it
type Runner interface {
	Run(ctx context.Context, req processor.Request) processor.Result
}

// Options controls discovery and output naming
type Options struct {
	Workers   int
	OutputDir string // empty means next to each input
	Suffix    string
	Params    params.FilterParameters

	// Filter selects input files; defaults to io.IsRawFile
	Filter func(path string) bool
}

// Summary aggregates one batch run. Results follow input order.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []processor.Result
	Duration  time.Duration
}

// Discover lists matching regular files in dir, sorted by name. It does not
// recurse.
func Discover(dir string, filter func(string) bool) ([]string, error) {
	if filter == nil {
		filter = io.IsRawFile
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if filter(path) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every discovered file. A failed file never stops the others;
// only cancellation of ctx ends the batch early, in which case the returned
// error is ctx.Err() and unstarted files are absent from the summary.
func Run(ctx context.Context, runner Runner, dir string, opts Options, logger *logrus.Logger) (Summary, error) {
	start := time.Now()

	files, err := Discover(dir, opts.Filter)
	if err != nil {
		return Summary{}, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	logger.WithFields(logrus.Fields{
		"dir":     dir,
		"files":   len(files),
		"workers": workers,
	}).Info("Batch started")

	results := make([]processor.Result, len(files))
	started := make([]bool, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := runner.Run(gctx, processor.Request{
				InputPath:  file,
				OutputPath: outputPath(file, opts),
				Params:     opts.Params,
			})

			mu.Lock()
			results[i] = res
			started[i] = true
			mu.Unlock()
			return nil
		})
	}
	waitErr := g.Wait()

	summary := Summary{Duration: time.Since(start)}
	for i, res := range results {
		if !started[i] {
			continue
		}
		summary.Results = append(summary.Results, res)
		summary.Total++
		if res.OK {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	logger.WithFields(logrus.Fields{
		"dir":       dir,
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"elapsed":   summary.Duration.String(),
	}).Info("Batch finished")

	if waitErr != nil {
		return summary, waitErr
	}
	return summary, ctx.Err()
}

func outputPath(input string, opts Options) string {
	out := io.DefaultOutputPath(input, opts.Suffix)
	if opts.OutputDir != "" {
		out = filepath.Join(opts.OutputDir, filepath.Base(out))
	}
	return out
}
