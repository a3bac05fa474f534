// Package main provides the necro diagnostics CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/necronomicon/backend/internal/util"
	"github.com/necronomicon/backend/pkg/logger"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	util.LoadEnv()
	util.SetupLogger("necro")
	defer logger.Close()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "necro",
		Short:         "Inspect dependency graphs and entities built from annotated documents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRenderCmd(),
		newParseCmd(),
		newFeaturesCmd(),
	)
	return rootCmd
}
