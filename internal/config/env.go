package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PLUGSWITCH_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envSetter func(o *Options, val string) error

// envMapping maps environment variables to the option they override.
var envMapping = map[string]envSetter{
	EnvPrefix + "ROOT":                 func(o *Options, v string) error { o.Root = v; return nil },
	EnvPrefix + "STATE_PATH":           func(o *Options, v string) error { o.StatePath = v; return nil },
	EnvPrefix + "LOG_LEVEL":            func(o *Options, v string) error { o.LogLevel = v; return nil },
	EnvPrefix + "VERSION_DIR_PATTERN":  func(o *Options, v string) error { o.VersionDirPattern = v; return nil },
	EnvPrefix + "VERSION_NAME_PATTERN": func(o *Options, v string) error { o.VersionNamePattern = v; return nil },
	EnvPrefix + "SHARED_PLUGINS_PATH":  func(o *Options, v string) error { o.SharedPluginsPath = v; return nil },
	EnvPrefix + "PLUGIN_FILE_PATTERNS": func(o *Options, v string) error { o.PluginFilePatterns = splitList(v); return nil },
	EnvPrefix + "EXCLUDED_FOLDERS":     func(o *Options, v string) error { o.ExcludedFolders = splitList(v); return nil },
	EnvPrefix + "INCLUDE_DISABLED":     boolSetter(func(o *Options, b bool) { o.IncludeDisabled = b }),
	EnvPrefix + "REPORT_ORPHANS":       boolSetter(func(o *Options, b bool) { o.ReportOrphans = b }),
	EnvPrefix + "LOG_JSON":             boolSetter(func(o *Options, b bool) { o.LogJSON = b }),
	EnvPrefix + "WATCH_DEBOUNCE": func(o *Options, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		o.WatchDebounce = Duration(d)
		return nil
	},
}

func boolSetter(set func(*Options, bool)) envSetter {
	return func(o *Options, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		set(o, b)
		return nil
	}
}

// ApplyEnv applies PLUGSWITCH_* overrides found through lookup.
// Empty values are treated as set. Every unparsable value is reported and the
// remaining overrides are still applied.
func ApplyEnv(opts *Options, lookup LookupFunc) error {
	var errs []error
	for _, key := range envKeys() {
		val, ok := lookup(key)
		if !ok {
			continue
		}
		if err := envMapping[key](opts, val); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, key, val, err))
		}
	}
	return errors.Join(errs...)
}

// envKeys returns the supported environment variables in sorted order.
func envKeys() []string {
	keys := make([]string, 0, len(envMapping))
	for k := range envMapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
