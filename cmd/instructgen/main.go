// Command instructgen generates a synthetic instruction/response dataset by
// filling prompt templates and sending them to a text-generation backend.
//
// Usage:
//
//	instructgen run -samples 1000 [-concurrency 8] [-output data/dataset.jsonl] [-durable]
//	instructgen verify [path]
//	instructgen history [-history runs.db] [-n 20]
//	instructgen corpus [-corpus file.yaml] [-category query]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var errUsage = errors.New("usage: instructgen <run|verify|history|corpus> [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute dispatches a subcommand and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, errUsage)
		return 2
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "run":
		err = runCmd(ctx, rest, stdout, stderr)
	case "verify":
		err = verifyCmd(rest, stdout, stderr)
	case "history":
		err = historyCmd(ctx, rest, stdout, stderr)
	case "corpus":
		err = corpusCmd(rest, stdout, stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprintln(stdout, errUsage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%v\n", cmd, errUsage)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "instructgen %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
