package cmd

import (
	"github.com/spf13/cobra"

	"github.com/TFMV/assaynet/storage"
)

func storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the dataset store",
		Long: `Datasets kept in the store can be passed to every command by id.

  assaynet store add pairs.csv
  assaynet store list
  assaynet store get <id> -o pairs.yaml
  assaynet store rm <id>`,
	}

	cmd.AddCommand(
		storeListCmd(),
		storeAddCmd(),
		storeGetCmd(),
		storeRemoveCmd(),
	)

	return cmd
}

func storeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				Subtle.Println("  No datasets in " + store.Dir())
				return nil
			}

			var rows [][]string
			for _, id := range ids {
				d, err := store.Get(cmd.Context(), id)
				if err != nil {
					rows = append(rows, []string{id, Bad.Sprint(err.Error()), "", ""})
					continue
				}
				laid := d.Edges.Snapshot != nil && len(d.Edges.Snapshot.Coords) > 0
				rows = append(rows, []string{id, d.Name, d.UpdatedAt.Format("2006-01-02 15:04"), StatusIcon(laid)})
			}
			printTable([]string{"ID", "NAME", "UPDATED", "LAYOUT"}, rows)
			return nil
		},
	}
}

func storeAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Import a dataset file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := storage.LoadFile(args[0])
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Put(cmd.Context(), d); err != nil {
				return err
			}
			Good.Printf("  %s %s\n", StatusIcon(true), d.ID)
			return nil
		},
	}
}

func storeGetCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Write a stored dataset to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			d, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeDataset(d, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .json or .yaml (default stdout)")

	return cmd
}

func storeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a stored dataset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			Subtle.Printf("  removed %s\n", args[0])
			return nil
		},
	}
}
