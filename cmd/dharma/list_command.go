package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dharma/internal/transcripts"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored transcriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *transcripts.Store) error {
				items, err := store.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list transcriptions: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, items)
				}

				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No transcriptions found")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{strconv.FormatInt(item.ID, 10), item.Title})
				}
				table := renderTable([]string{"ID", "Title"}, rows, []columnAlignment{alignRight, alignLeft}, shouldColorize(out))
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
