// Package state persists the plugin state table.
//
// The durable record is a JSON array of plugin.State objects. It is always
// rewritten whole, through a temporary file and a rename, so a crash never
// leaves a truncated record behind.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/dshills/plugswitch/internal/notify"
	"github.com/dshills/plugswitch/internal/plugin"
	"github.com/dshills/plugswitch/internal/vfs"
)

// ErrSaveSkipped is returned by Update when the record on disk could not be
// loaded and overwriting it was not allowed.
var ErrSaveSkipped = errors.New("state not saved: durable record could not be loaded")

// Store loads and saves the state table at a fixed path.
//
// A Store is safe for concurrent use: Update serializes whole
// load-mutate-save cycles.
type Store struct {
	fs       vfs.VFS
	path     string
	notifier notify.Notifier

	overwriteUnreadable bool

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithOverwriteUnreadable lets Update save over a record that failed to load.
func WithOverwriteUnreadable() Option {
	return func(s *Store) { s.overwriteUnreadable = true }
}

// NewStore creates a store for the record at path.
func NewStore(fsys vfs.VFS, path string, n notify.Notifier, opts ...Option) *Store {
	if n == nil {
		n = notify.Discard
	}
	s := &Store{fs: fsys, path: path, notifier: n}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the durable record.
func (s *Store) Path() string { return s.path }

// Load reads the table. A missing record yields an empty table and no error.
// An unreadable or malformed record yields an empty table and an error; the
// file itself is left untouched.
func (s *Store) Load() (plugin.Table, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			notify.Infof(s.notifier, "State file not found '%s'. A new one will be created.", s.path)
			return plugin.NewTable(), nil
		}
		notify.Errorf(s.notifier, "Error reading state file '%s': %v", s.path, err)
		return plugin.NewTable(), plugin.NewPathError("load", s.path, nil, err)
	}

	table, err := Decode(data)
	if err != nil {
		notify.Errorf(s.notifier, "State file '%s' is malformed and was ignored: %v", s.path, err)
		return plugin.NewTable(), plugin.NewPathError("load", s.path, plugin.ErrMalformedState, err)
	}

	notify.Debugf(s.notifier, "Loaded %d plugin state record(s) from %s", len(table), s.path)
	return table, nil
}

// Save writes the table atomically, sorted by key.
func (s *Store) Save(table plugin.Table) error {
	data, err := Encode(table)
	if err != nil {
		notify.Errorf(s.notifier, "Error encoding state: %v", err)
		return plugin.NewPathError("save", s.path, plugin.ErrIO, err)
	}
	if err := vfs.WriteFileAtomic(s.fs, s.path, data, 0644); err != nil {
		notify.Errorf(s.notifier, "Error saving state to %s: %v", s.path, err)
		return plugin.NewPathError("save", s.path, nil, err)
	}
	notify.Infof(s.notifier, "Plugins state saved")
	return nil
}

// Update loads the table, passes it to fn and saves the result, holding the
// store lock throughout. The table is saved even when fn returns an error,
// since fn leaves every entry consistent with the file system. When the
// record could not be loaded the save is skipped unless the store was created
// WithOverwriteUnreadable.
func (s *Store) Update(fn func(plugin.Table) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, loadErr := s.Load()
	fnErr := fn(table)

	if loadErr != nil && !s.overwriteUnreadable {
		notify.Warnf(s.notifier, "Not saving state over unreadable record %s", s.path)
		return errors.Join(loadErr, fnErr, ErrSaveSkipped)
	}
	return errors.Join(loadErr, fnErr, s.Save(table))
}

// Encode renders the table as indented JSON, one object per entry, sorted by key.
func Encode(table plugin.Table) ([]byte, error) {
	records := make([]plugin.State, 0, len(table))
	for _, key := range table.Keys() {
		records = append(records, *table[key])
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a durable record. Legacy records that stored a full file
// name, such as "EffectX.aex", load under the plugin's base name; any other
// name is a base name already and is kept as is, dots included. The legacy
// "_path" key and capitalized keys are accepted.
func Decode(data []byte) (plugin.Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}

	root := gjson.ParseBytes(data)
	table := plugin.NewTable()
	switch {
	case root.Type == gjson.Null:
		return table, nil
	case !root.IsArray():
		return nil, fmt.Errorf("expected an array of records, got %s", root.Type)
	}

	var decodeErr error
	root.ForEach(func(idx, rec gjson.Result) bool {
		if !rec.IsObject() {
			decodeErr = fmt.Errorf("record %d: expected an object", idx.Int())
			return false
		}
		name := first(rec, "name", "Name").String()
		if name == "" {
			decodeErr = fmt.Errorf("record %d: missing name", idx.Int())
			return false
		}

		ext := first(rec, "extension", "Extension", "_extension").String()
		key := table.Key(recordKey(name, ext))
		table[key] = &plugin.State{
			Name:      key,
			Extension: ext,
			IsRemoved: first(rec, "isRemoved", "IsRemoved").Bool(),
			Path:      first(rec, "path", "_path", "Path").String(),
		}
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return table, nil
}

// recordKey returns the table key for a stored name. Only a name ending in
// its own recorded extension or the disabled extension is a full file name.
func recordKey(name, ext string) string {
	switch e := plugin.Ext(name); {
	case e == "":
		return name
	case ext != "" && strings.EqualFold(e, ext), strings.EqualFold(e, plugin.DisabledExt):
		return strings.TrimSuffix(name, e)
	}
	return name
}

// first returns the first of keys present in rec.
func first(rec gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := rec.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
