// Package plugin defines the plugswitch data model: discovered plugin files,
// persisted enable/disable state, and the category map.
package plugin

import (
	"fmt"
	"sort"
	"strings"
)

// DisabledExt is the sentinel extension a plugin file carries while disabled.
// It is part of the on-disk contract and must not change.
const DisabledExt = ".removed"

// Uncategorized is the category for files found directly in a root folder.
const Uncategorized = "Uncategorized"

// Entry is a plugin file found during discovery.
// Entries are values; they are rebuilt on every discovery pass.
type Entry struct {
	// Name is the file name as returned by the file system, extension included.
	Name string
	// Path is the absolute location of the file.
	Path string

	Description string
	ImagePath   string
}

// NewEntry creates an Entry for the file at path.
func NewEntry(name, path string) Entry {
	return Entry{Name: name, Path: path}
}

// BaseName returns the state-table key for the entry.
func (e Entry) BaseName() string {
	return BaseName(e.Name)
}

// IsDisabled reports whether the entry's path carries the sentinel extension.
func (e Entry) IsDisabled() bool {
	return HasDisabledExt(e.Path)
}

func (e Entry) String() string {
	return fmt.Sprintf("Name: %s, Path: %s", e.Name, e.Path)
}

// State is the persisted record for one plugin.
//
// When IsRemoved is true, Path ends in DisabledExt; otherwise Path ends in
// Extension.
type State struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	IsRemoved bool   `json:"isRemoved"`
	Path      string `json:"path"`
}

// Consistent reports whether the state's path agrees with its IsRemoved flag.
func (s *State) Consistent() bool {
	if s.IsRemoved {
		return HasDisabledExt(s.Path)
	}
	return strings.EqualFold(Ext(s.Path), s.Extension)
}

// Table maps a plugin base name to its state. Entries are mutated in place.
//
// Base names compare case-insensitively, as they do on the Windows file
// systems plugins live on. Use Key to find the spelling a name is stored
// under; the first spelling recorded is kept.
type Table map[string]*State

// NewTable returns an empty table.
func NewTable() Table {
	return make(Table)
}

// Keys returns the table keys in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Key returns the key name is stored under, matching case-insensitively.
// If no entry matches, name itself is returned.
func (t Table) Key(name string) string {
	if _, ok := t[name]; ok {
		return name
	}
	for k := range t {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	return name
}

// Get returns the state stored under name, matching case-insensitively.
func (t Table) Get(name string) (*State, bool) {
	st, ok := t[t.Key(name)]
	return st, ok
}

// Lookup returns the state for name, ignoring any extension on name.
func (t Table) Lookup(name string) (*State, bool) {
	return t.Get(BaseName(name))
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		cp := *v
		out[k] = &cp
	}
	return out
}

// Categories maps a category name to the plugin files found in it.
type Categories map[string][]Entry

// Names returns the category names in sorted order.
func (c Categories) Names() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Total returns the number of entries across all categories.
func (c Categories) Total() int {
	n := 0
	for _, entries := range c {
		n += len(entries)
	}
	return n
}

// BaseName strips the last extension from a file name or path element.
// Both slash kinds are treated as separators so Windows paths stored in the
// state file normalize the same way on every platform.
func BaseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, Ext(name))
}

// HasDisabledExt reports whether path ends in DisabledExt, ignoring case.
func HasDisabledExt(path string) bool {
	return strings.EqualFold(Ext(path), DisabledExt)
}

// Ext returns the extension of the last element of name, dot included.
// Both slash kinds are treated as separators.
func Ext(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/' && name[i] != '\\'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}
