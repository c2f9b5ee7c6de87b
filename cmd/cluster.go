package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TFMV/assaynet/cluster"
	"github.com/TFMV/assaynet/layout"
)

func clusterCmd() *cobra.Command {
	var (
		output    string
		threshold float64
		maxTicks  int
	)
	opts := cluster.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "cluster <dataset>",
		Short: "Detect communities and join them as a node field",
		Long: `Partition the network over the edges above the network threshold and
store the community of every node in a field (default "cluster").
Nodes without a partner are left unassigned unless --nulliso=false.

  assaynet cluster pairs.json --threshold 0.8 -o clustered.json
  assaynet cluster pairs.json --field scaffold --resolution 0.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := cfg.Cluster
			flags := cmd.Flags()
			if flags.Changed("nulliso") {
				o.NullIsolated = opts.NullIsolated
			}
			if flags.Changed("resolution") {
				o.Resolution = opts.Resolution
			}
			if flags.Changed("seed") {
				o.Seed = opts.Seed
			}
			if flags.Changed("field") {
				o.Field = opts.Field
			}
			if flags.Changed("color") {
				o.Color = opts.Color
			}

			d, err := loadDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v, err := offscreen(d)
			if err != nil {
				return err
			}
			if flags.Changed("threshold") {
				if err := v.SetNetworkThreshold(threshold); err != nil {
					return err
				}
			}
			if v.State() == layout.Simulating {
				v.Settle(maxTicks)
				if err := v.Stick(); err != nil {
					return err
				}
			}

			r, err := v.Cluster(o)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "  %s %s clusters at threshold %s\n", StatusIcon(true),
				Brand.Sprint(r.Clusters(o.NullIsolated)), Info.Sprint(v.Model().NetworkThreshold()))
			if output != "" {
				rows := make([][]string, 0, len(r.Sizes))
				for id, n := range r.Sizes {
					if o.NullIsolated && n < 2 {
						continue
					}
					rows = append(rows, []string{strconv.Itoa(id), strconv.Itoa(n)})
				}
				printTable([]string{"CLUSTER", "NODES"}, rows)
			}
			return writeDataset(v.Export(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .json or .yaml (default stdout)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "network threshold (default: the stored one)")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 3000, "tick budget when the dataset has no layout")
	cmd.Flags().BoolVar(&opts.NullIsolated, "nulliso", opts.NullIsolated, "leave singleton nodes unassigned")
	cmd.Flags().Float64Var(&opts.Resolution, "resolution", opts.Resolution, "modularity resolution")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed of the community search")
	cmd.Flags().StringVar(&opts.Field, "field", opts.Field, "node field receiving the cluster id")
	cmd.Flags().BoolVar(&opts.Color, "color", opts.Color, "color nodes by cluster")

	return cmd
}
