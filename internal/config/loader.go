package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/plugswitch/internal/vfs"
)

// Load returns the defaults overlaid with the file at path.
// An empty path or a missing file yields the defaults.
func Load(fsys vfs.VFS, path string) (Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}
	if err := LoadInto(fsys, path, &opts); err != nil {
		return Default(), err
	}
	return opts, nil
}

// LoadInto decodes the file at path over opts. Keys absent from the file keep
// their current value. A missing file is not an error.
func LoadInto(fsys vfs.VFS, path string, opts *Options) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Decode(path, data, opts)
}

// Decode parses data in the format implied by name's extension over opts.
func Decode(name string, data []byte, opts *Options) error {
	switch ext := strings.ToLower(extension(name)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, opts); err != nil {
			perr := &ParseError{Path: name, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, _ = derr.Position()
			}
			return perr
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, opts); err != nil {
			return &ParseError{Path: name, Message: err.Error(), Err: err}
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(opts); err != nil {
			return &ParseError{Path: name, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// Encode renders opts as TOML, the format `plugswitch config` prints.
func Encode(opts Options) ([]byte, error) {
	return toml.Marshal(opts)
}

func extension(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/' && name[i] != '\\'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}
