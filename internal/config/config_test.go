package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/plugswitch/internal/vfs"
)

func TestDefault(t *testing.T) {
	o := Default()
	assert.Equal(t, `C:\Program Files\Adobe`, o.Root)
	assert.Equal(t, "Adobe After Effects*", o.VersionDirPattern)
	assert.Equal(t, []string{"*.ffx", "*.aex"}, o.PluginFilePatterns)
	assert.Contains(t, o.ExcludedFolders, "Effects")
	assert.True(t, o.IncludeDisabled)
	assert.NotEmpty(t, o.StatePath)
	assert.NoError(t, o.Validate())
}

func TestFilePatterns(t *testing.T) {
	o := Default()
	assert.Equal(t, []string{"*.ffx", "*.aex", "*.removed"}, o.FilePatterns())

	o.IncludeDisabled = false
	assert.Equal(t, []string{"*.ffx", "*.aex"}, o.FilePatterns())

	o.PluginFilePatterns = []string{"*.aex", "*.AEX", "*.removed"}
	o.IncludeDisabled = true
	assert.Equal(t, []string{"*.aex", "*.removed"}, o.FilePatterns())
	assert.Len(t, o.PluginFilePatterns, 3, "FilePatterns must not modify the options")
}

func TestIsExcluded(t *testing.T) {
	o := Default()
	assert.True(t, o.IsExcluded("effects"))
	assert.True(t, o.IsExcluded("(AdobePSL)"))
	assert.False(t, o.IsExcluded("Effects Extra"))
}

func TestSplitRelative(t *testing.T) {
	assert.Equal(t, []string{"Common", "Plug-ins", "7.0", "MediaCore"}, SplitRelative("Common/Plug-ins/7.0/MediaCore"))
	assert.Equal(t, []string{"Support Files", "Plug-ins"}, SplitRelative(`Support Files\Plug-ins`))
	assert.Empty(t, SplitRelative(""))
}

func TestValidate(t *testing.T) {
	o := Default()
	o.Root = " "
	o.VersionNamePattern = `^Adobe (`
	o.ExcludedFolders = []string{"ok", "a/b"}
	o.PluginFilePatterns = nil

	err := o.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	msg := err.Error()
	assert.Contains(t, msg, "invalid root")
	assert.Contains(t, msg, "version_name_pattern")
	assert.Contains(t, msg, "excluded_folders")
	assert.Contains(t, msg, "plugin_file_patterns")
}

func TestLoad_TOML(t *testing.T) {
	m := vfs.NewMemFS()
	require.NoError(t, m.AddFile("/etc/plugswitch.toml", `
root = "/opt/adobe"
excluded_folders = ["Effects"]
include_disabled = false
watch_debounce = "2s"
`))

	o, err := Load(m, "/etc/plugswitch.toml")
	require.NoError(t, err)
	assert.Equal(t, "/opt/adobe", o.Root)
	assert.Equal(t, []string{"Effects"}, o.ExcludedFolders)
	assert.False(t, o.IncludeDisabled)
	assert.Equal(t, 2*time.Second, o.WatchDebounce.Std())
	// Unset keys keep their defaults.
	assert.Equal(t, "Adobe After Effects*", o.VersionDirPattern)
}

func TestLoad_YAML(t *testing.T) {
	m := vfs.NewMemFS()
	require.NoError(t, m.AddFile("/cfg.yaml", `
root: /srv/adobe
plugin_file_patterns:
  - "*.aex"
report_orphans: false
`))

	o, err := Load(m, "/cfg.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/srv/adobe", o.Root)
	assert.Equal(t, []string{"*.aex"}, o.PluginFilePatterns)
	assert.False(t, o.ReportOrphans)
}

func TestLoad_JSON(t *testing.T) {
	m := vfs.NewMemFS()
	require.NoError(t, m.AddFile("/cfg.json", `{"root": "/json/adobe", "state_path": "/var/lib/state.json", "watch_debounce": "250ms"}`))

	o, err := Load(m, "/cfg.json")
	require.NoError(t, err)
	assert.Equal(t, "/json/adobe", o.Root)
	assert.Equal(t, "/var/lib/state.json", o.StatePath)
	assert.Equal(t, 250*time.Millisecond, o.WatchDebounce.Std())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	o, err := Load(vfs.NewMemFS(), "/nope.toml")
	require.NoError(t, err)
	assert.Equal(t, Default().Root, o.Root)

	o, err = Load(vfs.NewMemFS(), "")
	require.NoError(t, err)
	assert.Equal(t, Default().Root, o.Root)
}

func TestLoad_ParseError(t *testing.T) {
	m := vfs.NewMemFS()
	require.NoError(t, m.AddFile("/bad.toml", "root = \n"))

	_, err := Load(m, "/bad.toml")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "/bad.toml", perr.Path)
}

func TestLoad_JSONUnknownField(t *testing.T) {
	m := vfs.NewMemFS()
	require.NoError(t, m.AddFile("/typo.json", `{"rooot": "/x"}`))

	_, err := Load(m, "/typo.json")
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	m := vfs.NewMemFS()
	require.NoError(t, m.AddFile("/cfg.ini", "root=/x"))

	_, err := Load(m, "/cfg.ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEncode_RoundTrip(t *testing.T) {
	o := Default()
	o.Root = "/round/trip"

	data, err := Encode(o)
	require.NoError(t, err)

	var back Options
	require.NoError(t, Decode("x.toml", data, &back))
	assert.Equal(t, o, back)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PLUGSWITCH_ROOT":             "/env/adobe",
		"PLUGSWITCH_EXCLUDED_FOLDERS": "Effects, Format ,,",
		"PLUGSWITCH_INCLUDE_DISABLED": "false",
		"PLUGSWITCH_WATCH_DEBOUNCE":   "1s",
		"UNRELATED":                   "x",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	o := Default()
	require.NoError(t, ApplyEnv(&o, lookup))
	assert.Equal(t, "/env/adobe", o.Root)
	assert.Equal(t, []string{"Effects", "Format"}, o.ExcludedFolders)
	assert.False(t, o.IncludeDisabled)
	assert.Equal(t, time.Second, o.WatchDebounce.Std())
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	env := map[string]string{
		"PLUGSWITCH_LOG_JSON":       "maybe",
		"PLUGSWITCH_WATCH_DEBOUNCE": "soon",
		"PLUGSWITCH_ROOT":           "/still/applied",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	o := Default()
	err := ApplyEnv(&o, lookup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEnv)
	assert.Contains(t, err.Error(), "PLUGSWITCH_LOG_JSON")
	assert.Contains(t, err.Error(), "PLUGSWITCH_WATCH_DEBOUNCE")
	assert.Equal(t, "/still/applied", o.Root)
}
