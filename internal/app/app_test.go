package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/plugswitch/internal/config"
	"github.com/dshills/plugswitch/internal/notify"
	"github.com/dshills/plugswitch/internal/plugin"
	"github.com/dshills/plugswitch/internal/state"
	"github.com/dshills/plugswitch/internal/vfs"
	"github.com/dshills/plugswitch/internal/watcher"
)

const (
	pluginDir = "/Adobe/Adobe After Effects 2023/Support Files/Plug-ins"
	effectX   = pluginDir + "/Stylize/EffectX.aex"
	statePath = "/state/plugins_state.json"
)

func testOptions() config.Options {
	o := config.Default()
	o.Root = "/Adobe"
	o.StatePath = statePath
	o.WatchDebounce = config.Duration(20 * time.Millisecond)
	return o
}

func newTestApp(t *testing.T, options ...Option) (*App, *vfs.MemFS, *notify.Recorder) {
	t.Helper()
	m := vfs.NewMemFS()
	require.NoError(t, m.AddFile(effectX, "x"))
	require.NoError(t, m.AddFile(pluginDir+"/Preset.ffx", "p"))
	rec := notify.NewRecorder()
	a, err := New(testOptions(), m, rec, options...)
	require.NoError(t, err)
	return a, m, rec
}

func TestNew_InvalidConfig(t *testing.T) {
	o := testOptions()
	o.Root = ""
	_, err := New(o, vfs.NewMemFS(), nil)

	var ie *InitError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "config", ie.Component)
}

func TestScan(t *testing.T) {
	a, m, _ := newTestApp(t)

	res, err := a.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)
	assert.ElementsMatch(t, []string{"EffectX", "Preset"}, res.Report.Added)
	assert.Equal(t, &plugin.State{Name: "EffectX", Extension: ".aex", Path: effectX}, res.Table["EffectX"])

	assert.True(t, m.IsRegular(statePath), "scan saves the table")
	saved, err := a.State()
	require.NoError(t, err)
	assert.Equal(t, res.Table, saved)

	snap := a.Metrics().Snapshot()
	assert.Equal(t, uint64(1), snap.Scans)
	assert.Equal(t, 2, snap.Discovered)
	assert.Equal(t, uint64(2), snap.Added)
}

func TestScan_Cancelled(t *testing.T) {
	a, m, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, m.Exists(statePath))
}

func TestScan_MissingRootStillSaves(t *testing.T) {
	rec := notify.NewRecorder()
	a, err := New(testOptions(), vfs.NewMemFS(), rec)
	require.NoError(t, err)

	res, err := a.Scan(context.Background())
	assert.ErrorIs(t, err, plugin.ErrNotFound)
	assert.Empty(t, res.Entries)
	assert.Equal(t, uint64(1), a.Metrics().Snapshot().ScanFailures)
}

func TestScan_UnreadableStateProtected(t *testing.T) {
	a, m, _ := newTestApp(t)
	require.NoError(t, m.AddFile(statePath, "garbage"))

	_, err := a.Scan(context.Background())
	assert.ErrorIs(t, err, state.ErrSaveSkipped)

	data, err := m.ReadFile(statePath)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data))
}

func TestScan_OverwriteUnreadableState(t *testing.T) {
	a, m, _ := newTestApp(t, WithOverwriteUnreadableState(true))
	require.NoError(t, m.AddFile(statePath, "garbage"))

	_, err := a.Scan(context.Background())
	assert.ErrorIs(t, err, plugin.ErrMalformedState)

	saved, err := a.State()
	require.NoError(t, err)
	assert.Contains(t, saved, "EffectX")
}

func TestDisableEnableByName(t *testing.T) {
	a, m, _ := newTestApp(t)
	ctx := context.Background()
	_, err := a.Scan(ctx)
	require.NoError(t, err)

	st, err := a.Disable(ctx, "EffectX")
	require.NoError(t, err)
	assert.True(t, st.IsRemoved)
	assert.Equal(t, pluginDir+"/Stylize/EffectX.removed", st.Path)
	assert.True(t, m.IsRegular(st.Path))
	assert.False(t, m.Exists(effectX))

	saved, err := a.State()
	require.NoError(t, err)
	assert.True(t, saved["EffectX"].IsRemoved, "the toggle is persisted")

	// A file name with its extension resolves to the same entry.
	st, err = a.Enable(ctx, "EffectX.aex")
	require.NoError(t, err)
	assert.False(t, st.IsRemoved)
	assert.Equal(t, effectX, st.Path)
	assert.True(t, m.IsRegular(effectX))

	snap := a.Metrics().Snapshot()
	assert.Equal(t, uint64(2), snap.Toggles)
}

func TestDisableByPathUntracked(t *testing.T) {
	a, m, _ := newTestApp(t)

	st, err := a.Disable(context.Background(), pluginDir+"/Preset.ffx")
	require.NoError(t, err)
	assert.Equal(t, plugin.State{Name: "Preset", Extension: ".ffx", IsRemoved: true, Path: pluginDir + "/Preset.removed"}, st)
	assert.True(t, m.IsRegular(pluginDir+"/Preset.removed"))
}

func TestDisableEnable_DottedNameAcrossRuns(t *testing.T) {
	a, m, _ := newTestApp(t)
	ctx := context.Background()
	sapphire := pluginDir + "/Stylize/Sapphire.v2.aex"
	require.NoError(t, m.AddFile(sapphire, "s"))

	st, err := a.Disable(ctx, sapphire)
	require.NoError(t, err)
	assert.Equal(t, "Sapphire.v2", st.Name)
	assert.True(t, m.IsRegular(pluginDir+"/Stylize/Sapphire.v2.removed"))

	// A second App reads the saved record from scratch.
	next, err := New(testOptions(), m, nil)
	require.NoError(t, err)

	tbl, err := next.State()
	require.NoError(t, err)
	assert.Contains(t, tbl, "Sapphire.v2")
	assert.NotContains(t, tbl, "Sapphire")

	st, err = next.Enable(ctx, "Sapphire.v2")
	require.NoError(t, err)
	assert.False(t, st.IsRemoved)
	assert.True(t, m.IsRegular(sapphire))

	res, err := next.Scan(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Report.Untracked)
	assert.Empty(t, res.Report.Mismatches)
}

func TestDisable_Twice(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	_, err := a.Disable(ctx, effectX)
	require.NoError(t, err)

	st, err := a.Disable(ctx, "EffectX")
	assert.ErrorIs(t, err, plugin.ErrAlreadyDisabled)
	assert.True(t, st.IsRemoved)

	var oe *OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "disable", oe.Op)
	assert.Equal(t, uint64(1), a.Metrics().Snapshot().ToggleNoops)
}

func TestToggle_UnknownTarget(t *testing.T) {
	a, _, rec := newTestApp(t)
	ctx := context.Background()

	_, err := a.Disable(ctx, "Nope")
	assert.ErrorIs(t, err, plugin.ErrNotTracked)
	assert.True(t, rec.Contains(notify.LevelWarn, "'Nope' not found in state table"))

	_, err = a.Enable(ctx, "  ")
	assert.ErrorIs(t, err, ErrEmptyTarget)
	assert.Equal(t, uint64(1), a.Metrics().Snapshot().ToggleFailures)
}

func TestCategories(t *testing.T) {
	a, _, _ := newTestApp(t)

	cats, err := a.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Stylize", plugin.Uncategorized}, cats.Names())
}

func TestWatchFilter(t *testing.T) {
	a, _, _ := newTestApp(t)
	keep := a.WatchFilter()

	assert.True(t, keep(watcher.Event{Path: pluginDir + "/EffectX.AEX"}))
	assert.True(t, keep(watcher.Event{Path: pluginDir + "/EffectX.removed"}))
	assert.True(t, keep(watcher.Event{Path: pluginDir + "/Preset.ffx"}))
	assert.False(t, keep(watcher.Event{Path: pluginDir + "/readme.txt"}))
}

// fakeWatcher is a channel-backed watcher.Watcher.
type fakeWatcher struct {
	mu      sync.Mutex
	watched []string
	events  chan watcher.Event
	errors  chan error
	closed  bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		events: make(chan watcher.Event, 10),
		errors: make(chan error, 10),
	}
}

func (f *fakeWatcher) WatchRecursive(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, path)
	return nil
}

func (f *fakeWatcher) Events() <-chan watcher.Event { return f.events }
func (f *fakeWatcher) Errors() <-chan error         { return f.errors }

func (f *fakeWatcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeWatcher) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestWatch(t *testing.T) {
	a, m, rec := newTestApp(t)
	fw := newFakeWatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, fw) }()

	require.Eventually(t, func() bool { return a.Metrics().Snapshot().Scans == 1 }, time.Second, 5*time.Millisecond,
		"initial scan")

	assert.ErrorIs(t, a.Watch(ctx, newFakeWatcher()), ErrAlreadyWatching)

	// A plugin disabled behind the tool's back is picked up by the rescan.
	require.NoError(t, m.Rename(effectX, pluginDir+"/Stylize/EffectX.removed"))
	fw.events <- watcher.Event{Path: effectX, Op: watcher.OpRename}
	fw.events <- watcher.Event{Path: pluginDir + "/Stylize/EffectX.removed", Op: watcher.OpCreate}

	require.Eventually(t, func() bool { return a.Metrics().Snapshot().Scans == 2 }, time.Second, 5*time.Millisecond,
		"one rescan per burst")

	saved, err := a.State()
	require.NoError(t, err)
	assert.Equal(t, pluginDir+"/Stylize/EffectX.removed", saved["EffectX"].Path)
	assert.True(t, rec.Contains(notify.LevelWarn, "marked as enabled, but the file"))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
	assert.True(t, fw.isClosed())
	assert.Equal(t, []string{pluginDir}, fw.watched)
}

func TestWatch_NothingToWatch(t *testing.T) {
	a, err := New(testOptions(), vfs.NewMemFS(), nil)
	require.NoError(t, err)

	err = a.Watch(context.Background(), newFakeWatcher())
	assert.ErrorIs(t, err, ErrNothingToWatch)
}

func TestOperationError(t *testing.T) {
	err := NewOperationError("disable", "EffectX", plugin.ErrNotFound)
	assert.Equal(t, "disable EffectX: not found", err.Error())
	assert.True(t, errors.Is(err, plugin.ErrNotFound))

	var nilErr *OperationError
	assert.Equal(t, "", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}
