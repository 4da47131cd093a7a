package main

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/plugswitch/internal/app"
)

func newScanCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Discover plugins and reconcile them with the state file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			stop := c.startSpinner(cmd.ErrOrStderr(), " Scanning plugin folders...")
			res, err := c.app.Scan(cmd.Context())
			stop()

			printScanResult(out, res)
			if err != nil {
				printWarn(out, "scan finished with errors")
				return err
			}
			printOK(out, "state saved to %s", c.app.StatePath())
			return nil
		},
	}
}

func printScanResult(out io.Writer, res app.ScanResult) {
	rep := res.Report
	infoColor.Fprintf(out, "Discovered %d plugin file(s): %d new, %d moved, %d mismatched, %d untracked, %d orphaned\n",
		len(res.Entries), len(rep.Added), len(rep.Refreshed), len(rep.Mismatches), len(rep.Untracked), len(rep.Orphaned))

	if len(rep.Mismatches) > 0 {
		t := newTable(out)
		t.SetTitle("State mismatches")
		t.AppendHeader(table.Row{"Plugin", "Problem", "Path"})
		for _, m := range rep.Mismatches {
			t.AppendRow(table.Row{m.Name, warnColor.Sprint(m.Kind.String()), m.Path})
		}
		t.Render()
	}

	if len(rep.Duplicates) > 0 {
		t := newTable(out)
		t.SetTitle("Plugins found in more than one place")
		t.AppendHeader(table.Row{"Plugin", "Ignored", "Recorded"})
		for _, d := range rep.Duplicates {
			t.AppendRow(table.Row{d.Name, d.Previous, d.Current})
		}
		t.Render()
	}
}

// startSpinner shows a spinner on w while the returned stop function has not
// been called. Nothing is shown unless w is a terminal and logging is quiet.
func (c *cli) startSpinner(w io.Writer, suffix string) (stop func()) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) || !c.quiet() {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w), spinner.WithSuffix(suffix))
	s.Start()
	return s.Stop
}

// newTable returns a table writer rendering to out in the shared style.
func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}
