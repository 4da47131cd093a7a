package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/plugswitch/internal/plugin"
)

func newDisableCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name|path>...",
		Short: "Disable plugins by renaming them to " + plugin.DisabledExt,
		Long: `Disable renames each plugin file to its base name plus ` + plugin.DisabledExt + `.
A target is either a tracked plugin name, with or without extension, or a
file path. Plugins given by path are tracked if they were not already.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd.Context(), cmd.OutOrStdout(), "disabled", args, c.app.Disable)
		},
	}
}

func newEnableCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name|path>...",
		Short: "Enable disabled plugins by restoring their extension",
		Long: `Enable renames each disabled plugin file back to its recorded extension.
Only plugins present in the state file can be enabled.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd.Context(), cmd.OutOrStdout(), "enabled", args, c.app.Enable)
		},
	}
}

type toggleFunc func(ctx context.Context, target string) (plugin.State, error)

// runToggle applies fn to every target. Targets already in the requested
// state are reported but do not fail the command.
func runToggle(ctx context.Context, out io.Writer, verb string, targets []string, fn toggleFunc) error {
	var errs []error
	for _, target := range targets {
		st, err := fn(ctx, target)
		switch {
		case err == nil:
			printOK(out, "%s %s -> %s", verb, st.Name, st.Path)
		case plugin.IsNoop(err):
			printWarn(out, "%s: already %s", target, verb)
		default:
			printFail(out, "%s: %v", target, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
