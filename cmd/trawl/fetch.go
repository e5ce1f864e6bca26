package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/trawl-io/trawl/internal/config"
	"github.com/trawl-io/trawl/internal/fetch"
	trawlhttp "github.com/trawl-io/trawl/internal/http"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	manifestPath := fs.String("manifest", "trawl.yaml", "Manifest file path")
	concurrency := fs.Int("concurrency", 0, "Override manifest concurrency")
	workdir := fs.String("workdir", "", "Override clone directory")
	bucketURL := fs.String("bucket", "", "Override artifact bucket URL")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: trawl fetch [options]

Fetch every resource in the manifest: shallow-clone git resources into the
workdir and store http/index artifacts in the bucket. At most -concurrency
resources are fetched at once; one progress line is printed per task event.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	cfg = cfg.Merge(config.Config{
		Concurrency: *concurrency,
		Workdir:     *workdir,
		Bucket:      *bucketURL,
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[trawl] Received interrupt, shutting down...")
		cancel()
	}()

	return fetchResources(ctx, cfg)
}

func fetchResources(ctx context.Context, cfg config.Config) int {
	var bucket *blob.Bucket
	if cfg.Bucket != "" {
		var err error
		bucket, err = blob.OpenBucket(ctx, cfg.Bucket)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
			return ExitStorageError
		}
		defer bucket.Close()
	}

	httpOpts := trawlhttp.DefaultOptions()
	httpOpts.RetryAttempts = cfg.Retry.Attempts
	httpOpts.RetryBackoff = cfg.Retry.Backoff
	httpOpts.RetryMaxBackoff = cfg.Retry.MaxBackoff

	m := fetch.New(bucket, len(cfg.Resources), fetch.Options{
		Concurrency: cfg.Concurrency,
		Workdir:     cfg.Workdir,
		GitDepth:    cfg.GitDepth,
		HTTP:        httpOpts,
	})

	m.Notef("fetching %d resources with %d workers", len(cfg.Resources), cfg.Concurrency)
	for _, res := range cfg.Resources {
		m.Fetch(ctx, res)
	}
	m.Wait()
	m.Notef("finished: %d tasks completed", m.Completed())

	if ctx.Err() != nil {
		return ExitGeneralError
	}
	return ExitSuccess
}

// loadConfig loads the manifest file and applies environment overrides.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
