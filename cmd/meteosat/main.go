package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitInvalidArgs    = 2
	ExitConfigError    = 3
	ExitStorageError   = 4
	ExitNoImage        = 5
	ExitPartialFailure = 6
	ExitWallpaperError = 7
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
	case "newest":
		return runNewest(cmdArgs)
	case "animate":
		return runAnimate(cmdArgs)
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
	fmt.Fprintln(os.Stderr, `Usage: meteosat <command> [options]

Commands:
  fetch    Download every image in a time range (bounded concurrency)
  newest   Walk back from now to the most recent available image
  animate  Assemble downloaded images into an animated GIF

Run 'meteosat <command> -h' for command-specific help.`)
}
