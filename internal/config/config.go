// Package config holds the static configuration values plugswitch runs with:
// where the host application is installed, how its versioned installs are
// named, which files are plugins and which folders are never plugin folders.
//
// Values come from, in increasing precedence: built-in defaults, a TOML, YAML
// or JSON file, PLUGSWITCH_* environment variables, and command-line flags.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/dshills/plugswitch/internal/plugin"
	"github.com/dshills/plugswitch/internal/vfs"
)

// DefaultStateFile is the state file name used when no path is configured.
const DefaultStateFile = "plugins_state.json"

// Options is the complete configuration surface.
type Options struct {
	// Root is the installation root holding the versioned installs.
	Root string `toml:"root" yaml:"root" json:"root"`

	// VersionDirPattern is the glob versioned install directories match.
	VersionDirPattern string `toml:"version_dir_pattern" yaml:"version_dir_pattern" json:"version_dir_pattern"`

	// VersionNamePattern is the regular expression (.NET syntax) a versioned
	// install directory name must also match.
	VersionNamePattern string `toml:"version_name_pattern" yaml:"version_name_pattern" json:"version_name_pattern"`

	// SharedPluginsPath is the shared plugin folder relative to Root.
	// Either slash kind separates elements.
	SharedPluginsPath string `toml:"shared_plugins_path" yaml:"shared_plugins_path" json:"shared_plugins_path"`

	// VersionPluginsPath is the plugin folder relative to a versioned install.
	VersionPluginsPath string `toml:"version_plugins_path" yaml:"version_plugins_path" json:"version_plugins_path"`

	// CategoryFilePattern selects files inside category subfolders.
	CategoryFilePattern string `toml:"category_file_pattern" yaml:"category_file_pattern" json:"category_file_pattern"`

	// RootFilePattern selects uncategorized files directly inside a root folder.
	RootFilePattern string `toml:"root_file_pattern" yaml:"root_file_pattern" json:"root_file_pattern"`

	// PluginFilePatterns select plugin files during flat discovery.
	PluginFilePatterns []string `toml:"plugin_file_patterns" yaml:"plugin_file_patterns" json:"plugin_file_patterns"`

	// ExcludedFolders are folder names that never hold plugins.
	ExcludedFolders []string `toml:"excluded_folders" yaml:"excluded_folders" json:"excluded_folders"`

	// IncludeDisabled adds the disabled sentinel extension to flat discovery.
	IncludeDisabled bool `toml:"include_disabled" yaml:"include_disabled" json:"include_disabled"`

	// ReportOrphans warns about state entries whose file vanished.
	ReportOrphans bool `toml:"report_orphans" yaml:"report_orphans" json:"report_orphans"`

	// StatePath is the durable state record.
	StatePath string `toml:"state_path" yaml:"state_path" json:"state_path"`

	LogLevel string `toml:"log_level" yaml:"log_level" json:"log_level"`
	LogJSON  bool   `toml:"log_json" yaml:"log_json" json:"log_json"`

	// WatchDebounce coalesces bursts of file system events in watch mode.
	WatchDebounce Duration `toml:"watch_debounce" yaml:"watch_debounce" json:"watch_debounce"`
}

// Default returns the built-in configuration for After Effects on Windows.
func Default() Options {
	return Options{
		Root:                `C:\Program Files\Adobe`,
		VersionDirPattern:   "Adobe After Effects*",
		VersionNamePattern:  `^Adobe After Effects \d{4}$`,
		SharedPluginsPath:   "Common/Plug-ins/7.0/MediaCore",
		VersionPluginsPath:  "Support Files/Plug-ins",
		CategoryFilePattern: "*.aex",
		RootFilePattern:     "*.ffx",
		PluginFilePatterns:  []string{"*.ffx", "*.aex"},
		ExcludedFolders: []string{
			"(AdobePSL)",
			"Cineware by Maxon",
			"Effects",
			"Extensions",
			"Format",
			"Keyframe",
		},
		IncludeDisabled: true,
		ReportOrphans:   true,
		StatePath:       defaultStatePath(),
		LogLevel:        "info",
		WatchDebounce:   Duration(500 * time.Millisecond),
	}
}

// defaultStatePath places the state file next to the executable.
func defaultStatePath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultStateFile
	}
	return filepath.Join(filepath.Dir(exe), DefaultStateFile)
}

// FilePatterns returns the flat-discovery patterns, including the disabled
// sentinel pattern when IncludeDisabled is set. Duplicates are dropped.
func (o Options) FilePatterns() []string {
	patterns := append([]string(nil), o.PluginFilePatterns...)
	if o.IncludeDisabled {
		patterns = append(patterns, "*"+plugin.DisabledExt)
	}

	seen := make(map[string]bool, len(patterns))
	out := patterns[:0]
	for _, p := range patterns {
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// IsExcluded reports whether name is an excluded folder name, ignoring case.
func (o Options) IsExcluded(name string) bool {
	for _, ex := range o.ExcludedFolders {
		if strings.EqualFold(ex, name) {
			return true
		}
	}
	return false
}

// Validate checks every pattern compiles and required values are present.
// All problems are reported together.
func (o Options) Validate() error {
	var errs []error

	if strings.TrimSpace(o.Root) == "" {
		errs = append(errs, &ValidationError{Field: "root", Message: "must not be empty"})
	}
	if len(o.PluginFilePatterns) == 0 {
		errs = append(errs, &ValidationError{Field: "plugin_file_patterns", Message: "at least one pattern is required"})
	}

	globs := map[string]string{
		"version_dir_pattern":   o.VersionDirPattern,
		"category_file_pattern": o.CategoryFilePattern,
		"root_file_pattern":     o.RootFilePattern,
	}
	for field, p := range globs {
		if _, err := vfs.CompilePattern(p); err != nil {
			errs = append(errs, &ValidationError{Field: field, Value: p, Message: err.Error()})
		}
	}
	for _, p := range o.PluginFilePatterns {
		if _, err := vfs.CompilePattern(p); err != nil {
			errs = append(errs, &ValidationError{Field: "plugin_file_patterns", Value: p, Message: err.Error()})
		}
	}

	if _, err := regexp2.Compile(o.VersionNamePattern, regexp2.None); err != nil {
		errs = append(errs, &ValidationError{Field: "version_name_pattern", Value: o.VersionNamePattern, Message: err.Error()})
	}

	for _, ex := range o.ExcludedFolders {
		if ex == "" || strings.ContainsAny(ex, `/\`) {
			errs = append(errs, &ValidationError{Field: "excluded_folders", Value: ex, Message: "must be a single folder name"})
		}
	}

	return errors.Join(errs...)
}

// SplitRelative splits a relative path written with either slash kind into
// its elements.
func SplitRelative(rel string) []string {
	return strings.FieldsFunc(rel, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

// Duration is a time.Duration that decodes from strings like "500ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
