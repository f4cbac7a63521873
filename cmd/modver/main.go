package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/modver/internal/cli"
)

// main is the entrypoint for the modver CLI.
func main() {
	// Minimal logger until the command tree configures the real one.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates command execution for easier testing.
func run(outW io.Writer, args []string) error {
	cmd := cli.NewRootCmd(outW)
	cmd.SetArgs(args)
	cmd.SetOut(outW)
	return cmd.ExecuteContext(context.Background())
}
