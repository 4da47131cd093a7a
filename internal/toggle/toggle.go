// Package toggle enables and disables plugins by renaming their files.
//
// A disabled plugin keeps its base name and carries plugin.DisabledExt. The
// rename and the state change form one unit: the table entry is updated only
// after the rename succeeded.
package toggle

import (
	"strings"

	"github.com/dshills/plugswitch/internal/notify"
	"github.com/dshills/plugswitch/internal/plugin"
	"github.com/dshills/plugswitch/internal/vfs"
)

// Engine performs rename-based toggles against a state table.
type Engine struct {
	fs       vfs.VFS
	notifier notify.Notifier
}

// New creates an Engine.
func New(fsys vfs.VFS, n notify.Notifier) *Engine {
	if n == nil {
		n = notify.Discard
	}
	return &Engine{fs: fsys, notifier: n}
}

// Disable renames the plugin file at path to its disabled form and marks its
// entry removed, creating the entry first if the plugin was untracked.
//
// The returned error is nil on success. Otherwise it is a *plugin.PathError
// whose kind is one of plugin.ErrAlreadyDisabled, plugin.ErrNotFound,
// plugin.ErrCollision, plugin.ErrPermission or plugin.ErrIO, and the entry
// keeps its previous flag and path.
func (e *Engine) Disable(path string, table plugin.Table) error {
	base := plugin.BaseName(path)
	key := table.Key(base)
	st, tracked := table[key]

	if (tracked && st.IsRemoved) || plugin.HasDisabledExt(path) {
		notify.Infof(e.notifier, "Plugin '%s' is already removed", key)
		return plugin.NewPathError("disable", path, plugin.ErrAlreadyDisabled, nil)
	}
	if !e.fs.IsRegular(path) {
		notify.Warnf(e.notifier, "Plugin file not found: %s", path)
		return plugin.NewPathError("disable", path, plugin.ErrNotFound, nil)
	}

	ext := plugin.Ext(path)
	if !tracked {
		st = &plugin.State{Name: key, Extension: ext, Path: path}
		table[key] = st
		notify.Debugf(e.notifier, "Plugin '%s' was not tracked, added to state", key)
	}

	dest := e.fs.Join(e.fs.Dir(path), base+plugin.DisabledExt)
	if err := e.fs.Rename(path, dest); err != nil {
		return e.failed("disable", path, key, err)
	}

	st.IsRemoved = true
	st.Path = dest
	st.Extension = ext
	notify.Infof(e.notifier, "Plugin '%s' disabled: %s", key, dest)
	return nil
}

// Enable renames a disabled plugin file back to its recorded extension and
// clears its removed flag. Only tracked plugins can be enabled.
//
// The returned error is nil on success. Otherwise it is a *plugin.PathError
// whose kind is one of plugin.ErrNotTracked, plugin.ErrAlreadyEnabled,
// plugin.ErrNotFound, plugin.ErrUnknownExtension, plugin.ErrCollision,
// plugin.ErrPermission or plugin.ErrIO, and the entry is left unchanged.
func (e *Engine) Enable(path string, table plugin.Table) error {
	base := plugin.BaseName(path)
	key := table.Key(base)
	st, tracked := table[key]

	if !tracked {
		notify.Warnf(e.notifier, "Plugin '%s' not found in state table", key)
		return plugin.NewPathError("enable", path, plugin.ErrNotTracked, nil)
	}
	if !st.IsRemoved {
		notify.Infof(e.notifier, "Plugin '%s' is already enabled", key)
		return plugin.NewPathError("enable", path, plugin.ErrAlreadyEnabled, nil)
	}
	if !e.fs.IsRegular(path) {
		notify.Warnf(e.notifier, "Plugin file not found: %s", path)
		return plugin.NewPathError("enable", path, plugin.ErrNotFound, nil)
	}
	if st.Extension == "" || strings.EqualFold(st.Extension, plugin.DisabledExt) {
		notify.Errorf(e.notifier, "Plugin '%s' has no recorded original extension", key)
		return plugin.NewPathError("enable", path, plugin.ErrUnknownExtension, nil)
	}

	dest := e.fs.Join(e.fs.Dir(path), base+st.Extension)
	if err := e.fs.Rename(path, dest); err != nil {
		return e.failed("enable", path, key, err)
	}

	st.IsRemoved = false
	st.Path = dest
	notify.Infof(e.notifier, "Plugin '%s' enabled: %s", key, dest)
	return nil
}

func (e *Engine) failed(op, path, key string, err error) error {
	pe := plugin.NewPathError(op, path, nil, err)
	switch pe.Kind {
	case plugin.ErrCollision:
		notify.Errorf(e.notifier, "Failed to %s plugin '%s': destination is in the way: %v", op, key, err)
	case plugin.ErrPermission:
		notify.Errorf(e.notifier, "Failed to %s plugin '%s': access denied: %v", op, key, err)
	default:
		notify.Errorf(e.notifier, "Failed to %s plugin '%s': %v", op, key, err)
	}
	return pe
}
