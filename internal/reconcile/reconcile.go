// Package reconcile merges discovery results into the state table.
//
// The reconciler records where each plugin was last seen and reports any
// disagreement between a plugin's recorded flag and the form of its file. It
// never renames files and never deletes table entries.
package reconcile

import (
	"strings"

	"github.com/dshills/plugswitch/internal/notify"
	"github.com/dshills/plugswitch/internal/plugin"
	"github.com/dshills/plugswitch/internal/vfs"
)

// MismatchKind describes how a state entry disagrees with its file.
type MismatchKind int

const (
	// MarkedDisabledFileEnabled means the entry is flagged removed but the
	// discovered file is in its enabled form.
	MarkedDisabledFileEnabled MismatchKind = iota + 1
	// MarkedEnabledFileDisabled means the entry is not flagged removed but the
	// discovered file carries the disabled extension.
	MarkedEnabledFileDisabled
)

func (k MismatchKind) String() string {
	switch k {
	case MarkedDisabledFileEnabled:
		return "marked disabled, file enabled"
	case MarkedEnabledFileDisabled:
		return "marked enabled, file disabled"
	default:
		return "unknown"
	}
}

// Mismatch is a state entry whose flag disagrees with the discovered file.
type Mismatch struct {
	Name string
	Path string
	Kind MismatchKind
}

// Duplicate records two discovered files sharing one base name.
// The later file wins.
type Duplicate struct {
	Name     string
	Previous string
	Current  string
}

// Report summarizes one reconciliation pass.
type Report struct {
	Added      []string // base names inserted into the table
	Refreshed  []string // base names whose recorded path changed
	Mismatches []Mismatch
	Duplicates []Duplicate
	Untracked  []string // disabled files with no table entry
	Orphaned   []string // base names whose file is gone in both forms
}

// Changed reports whether the pass modified the table.
func (r Report) Changed() bool {
	return len(r.Added) > 0 || len(r.Refreshed) > 0
}

// Reconciler merges discovery output into a state table.
type Reconciler struct {
	fs       vfs.VFS
	notifier notify.Notifier

	// ReportOrphans enables the check for entries whose file vanished.
	ReportOrphans bool
}

// New creates a Reconciler. fsys is only consulted for the orphan check.
func New(fsys vfs.VFS, n notify.Notifier) *Reconciler {
	if n == nil {
		n = notify.Discard
	}
	return &Reconciler{fs: fsys, notifier: n}
}

// Reconcile applies entries to table in order and returns what happened.
//
// An entry missing from the table is inserted as enabled with the extension
// of its discovered path. A disabled file with no entry is reported and left
// out, since its enabled-form extension is unknown. For an entry already in
// the table the recorded path is always replaced by the discovered one, and a
// flag that disagrees with the file's form is reported without being changed.
func (r *Reconciler) Reconcile(entries []plugin.Entry, table plugin.Table) Report {
	var rep Report
	seen := make(map[string]string, len(entries))

	for _, e := range entries {
		key := table.Key(e.BaseName())
		disabled := e.IsDisabled()

		folded := strings.ToLower(key)
		if prev, ok := seen[folded]; ok && !strings.EqualFold(prev, e.Path) {
			notify.Warnf(r.notifier, "Plugin '%s' found in more than one place: %s and %s; using the latter", key, prev, e.Path)
			rep.Duplicates = append(rep.Duplicates, Duplicate{Name: key, Previous: prev, Current: e.Path})
		}
		seen[folded] = e.Path

		st, ok := table[key]
		if !ok {
			if disabled {
				notify.Warnf(r.notifier, "Untracked disabled plugin '%s' at %s; original extension unknown, not tracked", key, e.Path)
				rep.Untracked = append(rep.Untracked, e.Path)
				continue
			}
			table[key] = &plugin.State{
				Name:      key,
				Extension: plugin.Ext(e.Path),
				IsRemoved: false,
				Path:      e.Path,
			}
			notify.Infof(r.notifier, "New plugin discovered and added to state: %s", e.Name)
			rep.Added = append(rep.Added, key)
			continue
		}

		switch {
		case st.IsRemoved && !disabled:
			notify.Warnf(r.notifier, "Plugin '%s' is marked as disabled, but the file '%s' does not have a '%s' extension", key, e.Path, plugin.DisabledExt)
			rep.Mismatches = append(rep.Mismatches, Mismatch{Name: key, Path: e.Path, Kind: MarkedDisabledFileEnabled})
		case !st.IsRemoved && disabled:
			notify.Warnf(r.notifier, "Plugin '%s' is marked as enabled, but the file '%s' has a '%s' extension", key, e.Path, plugin.DisabledExt)
			rep.Mismatches = append(rep.Mismatches, Mismatch{Name: key, Path: e.Path, Kind: MarkedEnabledFileDisabled})
		}

		if st.Path != e.Path {
			notify.Debugf(r.notifier, "Plugin '%s' moved: %s -> %s", key, st.Path, e.Path)
			st.Path = e.Path
			rep.Refreshed = append(rep.Refreshed, key)
		}
	}

	if r.ReportOrphans && r.fs != nil {
		for _, key := range table.Keys() {
			if _, ok := seen[strings.ToLower(key)]; ok {
				continue
			}
			if st := table[key]; !r.anyFormExists(st) {
				notify.Warnf(r.notifier, "Plugin '%s' is tracked but no longer exists: %s", key, st.Path)
				rep.Orphaned = append(rep.Orphaned, key)
			}
		}
	}

	notify.Infof(r.notifier, "Reconciled %d plugin file(s): %d new, %d mismatched, %d tracked",
		len(entries), len(rep.Added), len(rep.Mismatches), len(table))
	return rep
}

// anyFormExists reports whether the recorded path, or the enabled or disabled
// form next to it, is present.
func (r *Reconciler) anyFormExists(st *plugin.State) bool {
	if st.Path == "" {
		return false
	}
	if r.fs.Exists(st.Path) {
		return true
	}
	dir := r.fs.Dir(st.Path)
	candidates := []string{r.fs.Join(dir, st.Name+plugin.DisabledExt)}
	if st.Extension != "" {
		candidates = append(candidates, r.fs.Join(dir, st.Name+st.Extension))
	}
	for _, c := range candidates {
		if r.fs.Exists(c) {
			return true
		}
	}
	return false
}
