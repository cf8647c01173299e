package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/mappers"
)

func newCategoriesCmd(global *globalOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Print the rule table of a list kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := global.table()
			if err != nil {
				return err
			}
			m, err := parseMode(mode)
			if err != nil {
				return err
			}
			ctx, err := localize(cmd.Context(), global.lang)
			if err != nil {
				return err
			}
			return writeJSONLine(cmd.OutOrStdout(), mappers.CategoriesToDTO(ctx, table, m))
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "create", "Mode: create | edit | view")
	return cmd
}
