package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/project-copacetic/anchore-scan/pkg/cli"
)

// These variables are set by the build process using ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "anchore-scan",
		Short: "Anchore image analysis for build pipelines",
		Long: `anchore-scan submits a container image to an Anchore Engine, waits for the analysis to finish
and saves the vulnerability, policy evaluation and content reports as JSON files.
It exits non-zero when the image cannot be analyzed or any report cannot be saved.`,
		Version: fmt.Sprintf("Version: %s\nCommit: %s\nBuild Date: %s", version, commit, date),
	}

	rootCmd.AddCommand(cli.NewScanCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(rootCmd.Version)
		},
	})
	return rootCmd
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}
