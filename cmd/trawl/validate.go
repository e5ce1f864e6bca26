package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/trawl-io/trawl/internal/config"
)

// runValidate checks the manifest for structural problems without
// fetching anything.
func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)

	manifestPath := fs.String("manifest", "trawl.yaml", "Manifest file path")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: trawl validate [options]

Parse the manifest, apply environment overrides, and check it for
structural problems: missing names or urls, duplicate names, unknown
resource types, and missing workdir/bucket settings.

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

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	counts := map[config.ResourceType]int{}
	for _, r := range cfg.Resources {
		counts[r.Type]++
	}

	fmt.Printf("Manifest OK: %d resources (%d git, %d http, %d index), concurrency %d\n",
		len(cfg.Resources),
		counts[config.ResourceGit],
		counts[config.ResourceHTTP],
		counts[config.ResourceIndex],
		cfg.Concurrency,
	)
	return ExitSuccess
}
