// Package cli wires the modver library into a cobra command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/modver/internal/ctxlog"
	"github.com/vk/modver/pkg/modver"
)

// root carries the flag state and the per-invocation directory shared by all
// subcommands.
type root struct {
	logLevel  string
	logFormat string
	stateDir  string
	watch     bool

	out io.Writer
	dir *modver.Directory
}

// NewRootCmd builds the modver command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	r := &root{out: out, dir: modver.NewDirectory()}

	cmd := &cobra.Command{
		Use:   "modver",
		Short: "Manage multiple versions of HCL module packs",
		Long: `modver registers multiple builds of the same module pack, switches which
one is active, and loads any of them on demand. The registry for each
package persists to ~/.modver/<package>.json, so state survives restarts.

Examples:
  # Register two builds of the httpbench pack
  modver register httpbench 1.0.0 ./packs/httpbench-1.0.0
  modver register httpbench 2.0.0-rc1 ./packs/httpbench-rc --meta channel=rc

  # Inspect and switch
  modver list httpbench
  modver use httpbench 2.0.0-rc1
  modver info httpbench

  # Pick up the installed build from $MODVER_PATH or ~/.modver/packs
  modver main httpbench`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := newLogger(r.logLevel, r.logFormat, cmd.ErrOrStderr())
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		},
	}

	cmd.PersistentFlags().StringVar(&r.logLevel, "log-level", "warn", "logging level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&r.logFormat, "log-format", "text", "log output format: text or json")
	cmd.PersistentFlags().StringVar(&r.stateDir, "state-dir", "", "registry state directory (default: ~/.modver)")
	cmd.PersistentFlags().BoolVar(&r.watch, "watch", false, "invalidate cached packs when their paths change on disk")

	cmd.AddCommand(
		newRegisterCmd(r),
		newUnregisterCmd(r),
		newListCmd(r),
		newUseCmd(r),
		newInfoCmd(r),
		newMainCmd(r),
		newPacksCmd(r),
	)

	return cmd
}

// newLogger creates a slog.Logger per the CLI flags. It does not touch the
// global logger, keeping invocations isolated.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler)
}

// manager resolves the manager for a package, honoring --state-dir and
// --watch on first construction.
func (r *root) manager(cmd *cobra.Command, name string) (*modver.Manager, error) {
	var opts []modver.Option
	if r.stateDir != "" {
		opts = append(opts, modver.WithStatePath(filepath.Join(r.stateDir, name+".json")))
	}
	if r.watch {
		opts = append(opts, modver.WithWatch())
	}
	return r.dir.GetOrCreate(cmd.Context(), name, opts...)
}

// parseMetadata turns repeated key=value flags into a metadata map.
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q (want key=value)", pair)
		}
		meta[key] = value
	}
	return meta, nil
}
