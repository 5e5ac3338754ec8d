// Package cli implements presencactl, the offline companion of the API:
// it runs the liveness gate over captured frames and compares stored
// reference embeddings without a server round trip.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "1.0.0"

// NewRootCmd wires every subcommand under a fresh root.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "presencactl",
		Short:         "Offline liveness and embedding tools for Presenca",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newCompareCmd())

	return root
}

// Execute runs the root command until completion or Ctrl+C.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stderrLogger only surfaces problems; results go to stdout.
func stderrLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
