// Package app wires discovery, the state store, the reconciler and the toggle
// engine into the operations the command line exposes.
//
// Every operation that changes the state table runs inside state.Store.Update,
// so concurrent callers (a watch loop and a toggle, say) never lose updates.
package app

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dshills/plugswitch/internal/config"
	"github.com/dshills/plugswitch/internal/discovery"
	"github.com/dshills/plugswitch/internal/notify"
	"github.com/dshills/plugswitch/internal/plugin"
	"github.com/dshills/plugswitch/internal/reconcile"
	"github.com/dshills/plugswitch/internal/state"
	"github.com/dshills/plugswitch/internal/toggle"
	"github.com/dshills/plugswitch/internal/vfs"
	"github.com/dshills/plugswitch/internal/watcher"
)

// App is the central coordinator for plugswitch components.
type App struct {
	opts     config.Options
	fs       vfs.VFS
	notifier notify.Notifier

	finder     *discovery.Finder
	store      *state.Store
	reconciler *reconcile.Reconciler
	toggler    *toggle.Engine
	metrics    *Metrics

	watching atomic.Bool

	overwriteUnreadable bool
}

// Option configures an App.
type Option func(*App)

// WithOverwriteUnreadableState lets operations save over a state record that
// failed to load.
func WithOverwriteUnreadableState(overwrite bool) Option {
	return func(a *App) { a.overwriteUnreadable = overwrite }
}

// New validates opts and builds an App on fsys.
func New(opts config.Options, fsys vfs.VFS, n notify.Notifier, options ...Option) (*App, error) {
	if n == nil {
		n = notify.Discard
	}
	if err := opts.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	a := &App{
		opts:     opts,
		fs:       fsys,
		notifier: n,
		metrics:  NewMetrics(),
	}
	for _, opt := range options {
		opt(a)
	}

	finder, err := discovery.NewFinder(fsys, opts, n)
	if err != nil {
		return nil, &InitError{Component: "discovery", Err: err}
	}
	a.finder = finder

	var storeOpts []state.Option
	if a.overwriteUnreadable {
		storeOpts = append(storeOpts, state.WithOverwriteUnreadable())
	}
	a.store = state.NewStore(fsys, opts.StatePath, n, storeOpts...)

	a.reconciler = reconcile.New(fsys, n)
	a.reconciler.ReportOrphans = opts.ReportOrphans

	a.toggler = toggle.New(fsys, n)
	return a, nil
}

// Options returns the configuration the App was built with.
func (a *App) Options() config.Options { return a.opts }

// Metrics returns the App's counters.
func (a *App) Metrics() *Metrics { return a.metrics }

// ScanResult is the outcome of one scan.
type ScanResult struct {
	Entries []plugin.Entry
	Report  reconcile.Report
	Table   plugin.Table // copy of the table as saved
}

// Scan discovers plugin files, reconciles them into the state table and saves
// it. The result is returned even when err is non-nil; err aggregates every
// discovery, load and save failure.
func (a *App) Scan(ctx context.Context) (ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return ScanResult{}, err
	}

	start := time.Now()
	var res ScanResult
	err := a.store.Update(func(table plugin.Table) error {
		entries, err := a.finder.FindAllPlugins()
		res.Entries = entries
		res.Report = a.reconciler.Reconcile(entries, table)
		res.Table = table.Clone()
		return err
	})
	a.metrics.RecordScan(time.Since(start), len(res.Entries), res.Report, err)
	if err != nil {
		return res, NewOperationError("scan", a.opts.Root, err)
	}
	return res, nil
}

// Categories groups the plugin files by category folder.
func (a *App) Categories(ctx context.Context) (plugin.Categories, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.finder.CategorizePlugins()
}

// RootFolders returns the plugin root folders that exist.
func (a *App) RootFolders() ([]string, error) {
	return a.finder.FindPluginRootFolders()
}

// State loads the state table without modifying it.
func (a *App) State() (plugin.Table, error) {
	return a.store.Load()
}

// StatePath returns the location of the state record.
func (a *App) StatePath() string { return a.store.Path() }

// Disable disables the plugin named by target, a base name or a file path,
// and saves the table. The entry as it stands afterwards is returned.
func (a *App) Disable(ctx context.Context, target string) (plugin.State, error) {
	return a.toggle(ctx, "disable", target, a.toggler.Disable)
}

// Enable enables the plugin named by target, a base name or a file path,
// and saves the table. The entry as it stands afterwards is returned.
func (a *App) Enable(ctx context.Context, target string) (plugin.State, error) {
	return a.toggle(ctx, "enable", target, a.toggler.Enable)
}

func (a *App) toggle(ctx context.Context, op, target string, fn func(string, plugin.Table) error) (plugin.State, error) {
	if err := ctx.Err(); err != nil {
		return plugin.State{}, err
	}
	if strings.TrimSpace(target) == "" {
		return plugin.State{}, NewOperationError(op, target, ErrEmptyTarget)
	}

	var (
		result    plugin.State
		toggleErr error
	)
	err := a.store.Update(func(table plugin.Table) error {
		path, err := a.resolve(target, table)
		if err != nil {
			notify.Warnf(a.notifier, "Plugin '%s' not found in state table; run a scan or pass its path", target)
			toggleErr = err
			return err
		}
		toggleErr = fn(path, table)
		if st, ok := table.Get(plugin.BaseName(path)); ok {
			result = *st
		}
		return toggleErr
	})
	a.metrics.RecordToggle(toggleErr)
	if err != nil {
		return result, NewOperationError(op, target, err)
	}
	return result, nil
}

// resolve turns a toggle target into a file path. Anything containing a path
// separator, or naming an existing file, is a path. Otherwise the target is
// looked up in the table, first verbatim and then with its extension removed.
func (a *App) resolve(target string, table plugin.Table) (string, error) {
	if strings.ContainsAny(target, `/\`) || a.fs.IsRegular(target) {
		return target, nil
	}
	if st, ok := table[target]; ok {
		return st.Path, nil
	}
	if st, ok := table.Lookup(target); ok {
		return st.Path, nil
	}
	return "", plugin.NewPathError("resolve", target, plugin.ErrNotTracked, nil)
}

// WatchFilter returns an event filter that keeps events for plugin files,
// in either form.
func (a *App) WatchFilter() watcher.EventFilter {
	patterns := append(a.opts.FilePatterns(), "*"+plugin.DisabledExt)
	compiled := make([]*vfs.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if c, err := vfs.CompilePattern(p); err == nil {
			compiled = append(compiled, c)
		}
	}
	return func(e watcher.Event) bool {
		name := a.fs.Base(e.Path)
		for _, c := range compiled {
			if c.Match(name) {
				return true
			}
		}
		return false
	}
}

// Watch scans once, then watches every plugin root folder through w and
// rescans after each burst of changes, until ctx is cancelled. Only one Watch
// may run at a time. Watch closes w before returning.
func (a *App) Watch(ctx context.Context, w watcher.Watcher) error {
	if !a.watching.CompareAndSwap(false, true) {
		return ErrAlreadyWatching
	}
	defer a.watching.Store(false)
	defer w.Close()

	roots, err := a.finder.FindPluginRootFolders()
	if len(roots) == 0 {
		return errors.Join(ErrNothingToWatch, err)
	}

	watched := 0
	for _, root := range roots {
		if err := w.WatchRecursive(root); err != nil {
			notify.Warnf(a.notifier, "Can not watch %s: %v", root, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return ErrNothingToWatch
	}

	if _, err := a.Scan(ctx); err != nil && ctx.Err() == nil {
		notify.Warnf(a.notifier, "Initial scan finished with errors: %v", err)
	}

	batcher := watcher.NewBatcher(a.opts.WatchDebounce.Std())
	notify.Infof(a.notifier, "Watching %d plugin root folder(s); changes settle after %s", watched, batcher.Delay())

	return batcher.Run(ctx, w,
		func(batch watcher.Batch) {
			notify.Infof(a.notifier, "Detected changes to %d path(s), rescanning", len(batch.Paths()))
			if _, err := a.Scan(ctx); err != nil && ctx.Err() == nil {
				notify.Warnf(a.notifier, "Rescan finished with errors: %v", err)
			}
		},
		func(err error) {
			notify.Errorf(a.notifier, "Watcher error: %v", err)
		},
	)
}
