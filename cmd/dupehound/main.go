package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "dupehound",
		Short:   "Find duplicate files by name or content",
		Version: version + " (" + commit + ")",
	}
	root.PersistentFlags().String("config", "", "Config file (default ./dupehound.yaml)")

	root.AddCommand(newScanCmd())
	root.AddCommand(newDecodeCmd())
	return root
}
