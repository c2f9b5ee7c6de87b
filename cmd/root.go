// Package cmd implements the assaynet command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TFMV/assaynet/config"
	"github.com/TFMV/assaynet/models"
	"github.com/TFMV/assaynet/network"
	"github.com/TFMV/assaynet/render"
	"github.com/TFMV/assaynet/storage"
)

var version = "0.3.0"

var (
	configPath string
	debug      bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "assaynet",
	Short: "assaynet — explore similarity networks",
	Long: Brand.Sprint("assaynet") + " — lay out, cluster and serve similarity networks\n" +
		Subtle.Sprint("Nodes are compounds, edges are similarity pairs above a cutoff"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		layoutCmd(),
		clusterCmd(),
		inspectCmd(),
		serveCmd(),
		storeCmd(),
		configCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// shutdown.
func ExecuteContext(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		Bad.Fprintf(os.Stderr, "assaynet: %v\n", err)
		return err
	}
	return nil
}

// loadDataset reads a dataset from a file, falling back to the dataset
// store when no such file exists.
func loadDataset(ctx context.Context, ref string) (*models.Dataset, error) {
	if _, err := os.Stat(ref); err == nil {
		return storage.LoadFile(ref)
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	d, err := store.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%s: not a file or stored dataset: %w", ref, err)
	}
	return d, nil
}

func openStore() (*storage.FileStore, error) {
	return storage.NewFileStore(cfg.Storage.Dir, "json")
}

// offscreen builds a view whose frames are dropped.
func offscreen(d *models.Dataset) (*network.View, error) {
	return network.NewView(d, render.NewRecorder(), network.OptionsFrom(cfg))
}

// writeDataset writes d to path, or as JSON to stdout when path is empty.
func writeDataset(d *models.Dataset, path string) error {
	if path == "" {
		return storage.Encode(os.Stdout, d, "json")
	}
	if err := storage.WriteFile(path, d); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "  %s %s\n", StatusIcon(true), Brand.Sprint(path))
	return nil
}
