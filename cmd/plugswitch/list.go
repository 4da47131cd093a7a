package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dshills/plugswitch/internal/state"
)

func newListCmd(c *cli) *cobra.Command {
	var (
		onlyDisabled bool
		onlyEnabled  bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the recorded state of every tracked plugin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if onlyDisabled && onlyEnabled {
				return fmt.Errorf("--disabled and --enabled are mutually exclusive")
			}
			out := cmd.OutOrStdout()

			tbl, err := c.app.State()
			if err != nil {
				return err
			}

			if asJSON {
				data, err := state.Encode(tbl)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			t := newTable(out)
			t.AppendHeader(table.Row{"Plugin", "Status", "Extension", "Path"})
			shown, disabled := 0, 0
			for _, key := range tbl.Keys() {
				st := tbl[key]
				if (onlyDisabled && !st.IsRemoved) || (onlyEnabled && st.IsRemoved) {
					continue
				}
				status := okColor.Sprint("enabled")
				if st.IsRemoved {
					status = failColor.Sprint("disabled")
					disabled++
				}
				if !st.Consistent() {
					status += warnColor.Sprint(" (mismatch)")
				}
				t.AppendRow(table.Row{st.Name, status, st.Extension, st.Path})
				shown++
			}
			t.AppendFooter(table.Row{"", fmt.Sprintf("%d shown", shown), fmt.Sprintf("%d disabled", disabled), c.app.StatePath()})
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&onlyDisabled, "disabled", false, "only show disabled plugins")
	cmd.Flags().BoolVar(&onlyEnabled, "enabled", false, "only show enabled plugins")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the state record as JSON")
	return cmd
}
