package root

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/outfleet/bget/pkg/client"
	"github.com/outfleet/bget/pkg/config"
	"github.com/outfleet/bget/pkg/download"
	"github.com/outfleet/bget/pkg/logging"
	"github.com/outfleet/bget/pkg/progress"
)

const rootLongDesc = `
bget

bget downloads a batch of files listed in a plain text file, in parallel
across a fixed pool of workers. Interrupted transfers are resumed with HTTP
range requests, transient failures are retried with a fixed delay, and the
run exits non-zero if any file could not be completed, so the same input
file can simply be run again to pick up whatever is still missing.
`

// ErrIncomplete is returned when one or more downloads failed permanently.
var ErrIncomplete = errors.New("one or more downloads failed")

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bget [flags] <url-list-file>",
		Short: "bget",
		Long:  rootLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.PersistentStartupProcessFlags()
		},
		RunE:    runRootCMD,
		Args:    cobra.ExactArgs(1),
		Example: "  bget urls.txt\n  bget -w 8 -o /data/downloads urls.txt\n  cat urls.txt | bget -",
	}
	if err := config.AddRootPersistentFlags(cmd); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return cmd
}

func runRootCMD(cmd *cobra.Command, args []string) error {
	// After we run through the PreRun functions we want to silence usage
	// from being printed on all errors
	cmd.SilenceUsage = true

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.LogFile != "" {
		if err := logging.AddLogFile(cfg.LogFile); err != nil {
			return err
		}
	}

	file, err := listFile(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	requests, err := parseURLList(file, cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("error processing url list %s: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootExecute(ctx, cfg, requests)
}

// rootExecute wires the engine together and runs the batch.
func rootExecute(ctx context.Context, cfg config.Config, requests []download.Request) error {
	logger := logging.GetLogger()
	logger.Info().
		Int("files", len(requests)).
		Int("workers", cfg.MaxWorkers).
		Str("output_dir", cfg.OutputDir).
		Msg("Initiating")

	clientOpts := client.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		MaxRetries:     cfg.RetryCount,
		RetryDelay:     cfg.RetryDelay,
	}

	pool := &download.Pool{
		Workers: cfg.MaxWorkers,
		Planner: &download.Planner{Client: client.NewProbeClient(clientOpts)},
		Fetcher: &download.Fetcher{
			Client:      client.NewHTTPClient(clientOpts),
			ReadTimeout: cfg.ReadTimeout,
		},
		Retry: download.RetryPolicy{
			RetryCount: cfg.RetryCount,
			RetryDelay: cfg.RetryDelay,
		},
		Reporter: progress.NewReporter(progress.Options{}),
		Logger:   logger,
	}

	summary, err := pool.Run(ctx, requests)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrIncomplete, summary.Failed, summary.Completed+summary.Failed)
	}
	return nil
}

func listFile(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("url list file %s does not exist", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening url list file %s: %w", path, err)
	}
	return file, nil
}
