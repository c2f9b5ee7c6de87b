package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/TFMV/assaynet/network"
	"github.com/TFMV/assaynet/render"
	"github.com/TFMV/assaynet/server"
	"github.com/TFMV/assaynet/storage"
)

func serveCmd() *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve <dataset>",
		Short: "Serve an interactive view of a dataset",
		Long: `Start the HTTP server. Browsers receive render frames over a websocket
and send drag, zoom and selection events back. Saved snapshots go to
the dataset store.

  assaynet serve pairs.json
  assaynet serve pairs.csv --addr :9000 --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			d, err := loadDataset(ctx, args[0])
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			recorder := render.NewRecorder()
			v, err := network.NewView(d, recorder, network.OptionsFrom(cfg))
			if err != nil {
				return err
			}
			loop := network.NewLoop(v, cfg.TickInterval())
			if addr == "" {
				addr = cfg.Server.Addr
			}
			srv := server.New(loop, recorder, store, server.Config{Addr: addr, Cluster: cfg.Cluster})

			fmt.Printf("  %s %s on %s\n", Brand.Sprint("assaynet"), v.Name(), Info.Sprint(addr))
			fmt.Printf("  %s %s\n", Subtle.Sprint("store:"), store.Dir())

			loopErr := make(chan error, 1)
			go func() { loopErr <- loop.Run(ctx) }()

			if watch {
				if _, err := os.Stat(args[0]); err != nil {
					return fmt.Errorf("--watch needs a dataset file: %w", err)
				}
				go func() {
					err := storage.Watch(ctx, args[0], 250*time.Millisecond, func(path string) {
						reloadFile(ctx, loop, path)
					})
					if err != nil {
						slog.Error("watching dataset", "error", err)
					}
				}()
			}

			err = srv.ListenAndServe(ctx)
			cancel()
			if lerr := <-loopErr; err == nil && !errors.Is(lerr, context.Canceled) {
				err = lerr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the view when the dataset file changes")

	return cmd
}

func reloadFile(ctx context.Context, loop *network.Loop, path string) {
	d, err := storage.LoadFile(path)
	if err != nil {
		slog.Warn("reload skipped", "path", path, "error", err)
		return
	}
	err = loop.Do(ctx, func(v *network.View) error { return v.Reload(d) })
	if err != nil {
		slog.Warn("reload failed", "path", path, "error", err)
		return
	}
	slog.Info("dataset reloaded", "path", path, "nodes", len(d.Nodes.Records))
}
