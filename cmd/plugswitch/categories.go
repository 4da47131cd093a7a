package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCategoriesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Group plugin files by category folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cats, err := c.app.Categories(cmd.Context())

			t := newTable(out)
			t.AppendHeader(table.Row{"Category", "Plugin", "Path"})
			for i, name := range cats.Names() {
				if i > 0 {
					t.AppendSeparator()
				}
				for _, e := range cats[name] {
					t.AppendRow(table.Row{name, e.Name, e.Path})
				}
			}
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
			t.AppendFooter(table.Row{len(cats), cats.Total(), ""})
			t.Render()

			if err != nil {
				printWarn(out, "some folders could not be read")
			}
			return err
		},
	}
}
