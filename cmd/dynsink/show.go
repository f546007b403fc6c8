package main

import (
	"fmt"
	"io"

	"github.com/acksell/dynsink/store"
	"github.com/spf13/cobra"
)

func newShowCommand(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print rows stored in a local badger database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			table, _ := cmd.Flags().GetString("table")
			row, _ := cmd.Flags().GetString("row")

			db, err := store.New(store.StoreOptions{Path: path})
			if err != nil {
				return err
			}
			defer db.Close()

			rows := [][]byte{[]byte(row)}
			if row == "" {
				if rows, err = db.Rows(table); err != nil {
					return err
				}
			}
			for _, r := range rows {
				cells, err := db.GetRow(table, r)
				if err != nil {
					return err
				}
				for _, c := range cells {
					col := string(c.Column)
					if len(c.Family) > 0 {
						col = string(c.Family) + ":" + col
					}
					fmt.Fprintf(stdout, "%s\t%s\t%q\n", r, col, c.Value)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("db", "", "Badger data directory (required).")
	cmd.Flags().String("table", "", "Table to print (required).")
	cmd.Flags().String("row", "", "Only print this row.")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}
