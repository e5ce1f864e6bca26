package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
	ExitConfigError  = 3
	ExitStorageError = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "fetch":
		return runFetch(cmdArgs)
	case "validate":
		return runValidate(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: trawl <command> [options]

Commands:
  fetch     Fetch all manifest resources with bounded concurrency
  validate  Check the manifest without fetching anything

Run 'trawl <command> -h' for command-specific help.`)
}
