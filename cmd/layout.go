package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func layoutCmd() *cobra.Command {
	var (
		output    string
		maxTicks  int
		threshold float64
		restart   bool
	)

	cmd := &cobra.Command{
		Use:   "layout <dataset>",
		Short: "Run the force layout and write the positioned dataset",
		Long: `Run the force simulation offscreen until it cools down, stick the
layout and write the dataset with its view snapshot.

  assaynet layout pairs.csv -o pairs.json
  assaynet layout pairs.json --restart --threshold 0.7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v, err := offscreen(d)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				if err := v.SetNetworkThreshold(threshold); err != nil {
					return err
				}
			}
			if restart {
				if err := v.Restart(); err != nil {
					return err
				}
			}

			ticks := v.Settle(maxTicks)
			if v.Simulation().Running() {
				fmt.Fprintf(os.Stderr, "  %s stopped after %d ticks at temperature %.3f\n",
					Warn.Sprint("!"), ticks, v.Temperature())
			} else {
				fmt.Fprintf(os.Stderr, "  %s settled in %d ticks\n", StatusIcon(true), ticks)
			}
			if err := v.Stick(); err != nil {
				return err
			}
			return writeDataset(v.Export(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .json or .yaml (default stdout)")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 3000, "tick budget of the simulation")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "network threshold to store with the layout")
	cmd.Flags().BoolVar(&restart, "restart", false, "discard a stored layout and simulate again")

	return cmd
}
