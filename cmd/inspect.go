package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <dataset>",
		Short: "Show the size, view state and fields of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v, err := offscreen(d)
			if err != nil {
				return err
			}
			m := v.Model()
			nodes, edges := v.Sync().Rendered()

			fmt.Printf("%s %s\n\n", Brand.Sprint(v.Name()), Subtle.Sprint(v.ID()))
			field("Nodes", len(m.Nodes()))
			field("Edges", len(m.Edges()))
			field("Cutoff", m.Cutoff())
			field("Threshold", m.NetworkThreshold())
			field("Above", len(m.ThresholdEdges()))
			field("Layout", v.State())
			field("Rendered", fmt.Sprintf("%d nodes, %d edges", len(nodes), len(edges)))

			detail := "normal"
			switch lod := v.Detail(); {
			case lod.Focused:
				detail = "focused"
			case lod.Overlook:
				detail = "overlook"
			}
			field("Detail", detail)
			fmt.Println()

			rows := make([][]string, 0, len(v.Fields()))
			for _, f := range v.Fields() {
				rows = append(rows, []string{f.Key, f.Name, f.Format, strconv.FormatBool(f.Visible)})
			}
			printTable([]string{"KEY", "NAME", "FORMAT", "VISIBLE"}, rows)
			return nil
		},
	}
}
