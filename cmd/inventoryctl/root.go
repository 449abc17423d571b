package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/bootstrap"
	"github.com/floorplan-inventory/backend/internal/config"
)

type options struct {
	backend string
	verbose bool
	now     func() time.Time
}

func newRootCmd() *cobra.Command {
	opts := &options{now: time.Now}

	root := &cobra.Command{
		Use:   "inventoryctl",
		Short: "Floor plan inventory maintenance",
		Long: `inventoryctl reads and writes the saved inventory directly.

Storage is configured through the same environment variables as the service
(STORAGE_BACKEND, DATA_DIR, REDIS_URL, DATABASE_URL, BADGER_PATH, STATE_KEY).

Examples:
  # Export every item as CSV
  inventoryctl export --format csv -o inventory.csv

  # Replace the items on a floor from a spreadsheet export
  inventoryctl import csv --floor floor1 inventory.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.backend, "storage", "", "Storage backend, overrides STORAGE_BACKEND")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(newExportCmd(opts), newImportCmd(opts), newFloorsCmd(opts), newResetCmd(opts))
	return root
}

// open restores the inventory from the configured store.
func (o *options) open(cmd *cobra.Command) (*bootstrap.Runtime, *zap.Logger, error) {
	cfg := config.New()
	if o.backend != "" {
		cfg.StorageBackend = o.backend
	}

	logger := zap.NewNop()
	if o.verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, nil, err
		}
	}

	rt, err := bootstrap.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return rt, logger, nil
}

// output opens the destination named by path; "" and "-" mean stdout.
func output(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
