package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/plugswitch/internal/watcher"
)

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rescan whenever plugin folders change, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watcher.NewFSNotifyWatcher(watcher.WithEventFilter(c.app.WatchFilter()))
			if err != nil {
				return err
			}

			err = c.app.Watch(ctx, w)
			if errors.Is(err, context.Canceled) {
				printOK(cmd.OutOrStdout(), "stopped watching")
				return nil
			}
			return err
		},
	}
}
