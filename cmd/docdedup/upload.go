package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	docdedup "github.com/kailas-cloud/docdedup/pkg/sdk"
)

// uploadResult is the tally of a bulk upload.
type uploadResult struct {
	Accepted   int64
	Duplicates int64
	Failed     int64
	Duration   time.Duration
}

// uploader pushes PDFs to a running server through a bounded worker pool.
type uploader struct {
	client  *docdedup.Client
	source  string
	workers int

	mu  sync.Mutex
	out io.Writer
}

func uploadCmd() *cobra.Command {
	var (
		server  string
		apiKey  string
		source  string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "upload <file.pdf|dir>...",
		Short: "Upload PDFs to a running server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectPDFs(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .pdf files under %s", strings.Join(args, ", "))
			}

			client, err := docdedup.New(server, docdedup.WithAPIKey(apiKey))
			if err != nil {
				return err
			}

			up := &uploader{client: client, source: source, workers: workers, out: cmd.OutOrStdout()}
			res := up.Run(cmd.Context(), files)
			fmt.Fprintf(cmd.OutOrStdout(), "accepted=%d duplicates=%d failed=%d duration=%s\n",
				res.Accepted, res.Duplicates, res.Failed, res.Duration.Round(time.Millisecond))
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", res.Failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", envOr("DOCDEDUP_URL", "http://localhost:5000"), "server base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("DOCDEDUP_API_KEY"), "bearer API key")
	cmd.Flags().StringVar(&source, "source", "", "source reference stored with every upload")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "parallel uploads")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

// Run uploads files and blocks until all workers finish or ctx is cancelled.
func (u *uploader) Run(ctx context.Context, files []string) uploadResult {
	workers := max(u.workers, 1)
	paths := make(chan string, workers*2)
	var wg sync.WaitGroup
	var accepted, duplicates, failed atomic.Int64

	start := time.Now()
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range paths {
				switch u.uploadOne(ctx, p) {
				case outcomeAccepted:
					accepted.Add(1)
				case outcomeDuplicate:
					duplicates.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	var skipped int64
	for i, p := range files {
		if ctx.Err() != nil {
			skipped = int64(len(files) - i)
			break
		}
		paths <- p
	}
	close(paths)
	wg.Wait()

	return uploadResult{
		Accepted:   accepted.Load(),
		Duplicates: duplicates.Load(),
		Failed:     failed.Load() + skipped,
		Duration:   time.Since(start),
	}
}

type uploadOutcome int

const (
	outcomeFailed uploadOutcome = iota
	outcomeAccepted
	outcomeDuplicate
)

func (u *uploader) uploadOne(ctx context.Context, path string) uploadOutcome {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		u.printf("failed    %s: %v\n", path, err)
		return outcomeFailed
	}

	res, err := u.client.Upload(ctx, filepath.Base(path), raw, u.source)
	if err != nil {
		u.printf("failed    %s: %v\n", path, err)
		return outcomeFailed
	}
	if res.IsDuplicate() {
		u.printf("duplicate %s: %.4f similar to %s (%s)\n",
			path, res.Duplicate.Score, res.Duplicate.Filename, res.Duplicate.ID)
		return outcomeDuplicate
	}
	u.printf("accepted  %s: %s\n", path, res.Record.ID)
	return outcomeAccepted
}

func (u *uploader) printf(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

// collectPDFs expands directories into the .pdf files beneath them, sorted.
func collectPDFs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".pdf") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
