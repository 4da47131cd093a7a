// Package discovery locates plugin folders and plugin files for every
// installed version of the host application.
//
// Discovery is best effort. A folder that can not be read is reported through
// the notifier, recorded in the returned error, and skipped; the rest of the
// tree is still searched and the partial result is always returned.
package discovery

import (
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"

	"github.com/dshills/plugswitch/internal/config"
	"github.com/dshills/plugswitch/internal/notify"
	"github.com/dshills/plugswitch/internal/plugin"
	"github.com/dshills/plugswitch/internal/vfs"
)

// Finder walks the configured installation tree.
type Finder struct {
	fs       vfs.VFS
	opts     config.Options
	notifier notify.Notifier

	versionDirs  *vfs.Pattern
	versionName  *regexp2.Regexp
	categoryFile *vfs.Pattern
	rootFile     *vfs.Pattern
	pluginFiles  []*vfs.Pattern
}

// NewFinder compiles the configured patterns and returns a Finder.
func NewFinder(fsys vfs.VFS, opts config.Options, n notify.Notifier) (*Finder, error) {
	if fsys == nil {
		return nil, errors.New("discovery: nil file system")
	}
	if n == nil {
		n = notify.Discard
	}

	f := &Finder{fs: fsys, opts: opts, notifier: n}

	var err error
	if f.versionDirs, err = vfs.CompilePattern(opts.VersionDirPattern); err != nil {
		return nil, err
	}
	if f.versionName, err = regexp2.Compile(opts.VersionNamePattern, regexp2.None); err != nil {
		return nil, fmt.Errorf("invalid version name pattern %q: %w", opts.VersionNamePattern, err)
	}
	if f.categoryFile, err = vfs.CompilePattern(opts.CategoryFilePattern); err != nil {
		return nil, err
	}
	if f.rootFile, err = vfs.CompilePattern(opts.RootFilePattern); err != nil {
		return nil, err
	}
	for _, p := range opts.FilePatterns() {
		compiled, err := vfs.CompilePattern(p)
		if err != nil {
			return nil, err
		}
		f.pluginFiles = append(f.pluginFiles, compiled)
	}
	return f, nil
}

// FindPluginRootFolders returns every existing plugin root folder: the shared
// plugin folder first, then the plugin folder of each versioned install in
// enumeration order.
func (f *Finder) FindPluginRootFolders() ([]string, error) {
	root := f.opts.Root
	notify.Debugf(f.notifier, "Installation root: %s", root)
	notify.Debugf(f.notifier, "Shared plugins path to check: %s", f.opts.SharedPluginsPath)
	notify.Debugf(f.notifier, "Version directory pattern: %s", f.versionDirs)
	notify.Debugf(f.notifier, "Version name pattern: %s", f.opts.VersionNamePattern)

	if !f.fs.IsDir(root) {
		notify.Warnf(f.notifier, "Installation folder '%s' not found", root)
		return nil, plugin.NewPathError("discover", root, plugin.ErrNotFound, nil)
	}

	var (
		found []string
		errs  []error
	)

	shared := f.join(root, f.opts.SharedPluginsPath)
	if f.fs.IsDir(shared) {
		found = append(found, shared)
	} else {
		notify.Debugf(f.notifier, "Shared plugin folder not found: %s", shared)
	}

	dirs, err := vfs.Dirs(f.fs, root, f.versionDirs)
	if err != nil {
		notify.Errorf(f.notifier, "Error searching version directories in '%s': %v", root, err)
		errs = append(errs, plugin.NewPathError("discover", root, plugin.ErrTraversal, err))
	}
	if len(dirs) == 0 && err == nil {
		notify.Debugf(f.notifier, "No directory in '%s' matches '%s'", root, f.versionDirs)
	}

	for _, dir := range dirs {
		name := f.fs.Base(dir)
		ok, err := f.versionName.MatchString(name)
		if err != nil {
			notify.Errorf(f.notifier, "Error matching '%s' against '%s': %v", name, f.opts.VersionNamePattern, err)
			errs = append(errs, plugin.NewPathError("discover", dir, plugin.ErrTraversal, err))
			continue
		}
		if !ok {
			notify.Debugf(f.notifier, "Directory name '%s' does not match '%s'", name, f.opts.VersionNamePattern)
			continue
		}

		pluginsPath := f.join(dir, f.opts.VersionPluginsPath)
		if !f.fs.IsDir(pluginsPath) {
			notify.Debugf(f.notifier, "Version plugin folder not found: %s", pluginsPath)
			continue
		}
		found = append(found, pluginsPath)
	}

	if len(found) == 0 {
		notify.Infof(f.notifier, "No plugin root folders found")
	} else {
		for _, p := range found {
			notify.Debugf(f.notifier, "Plugin root folder: %s", p)
		}
		notify.Infof(f.notifier, "Found %d plugin root folder(s)", len(found))
	}

	return found, errors.Join(errs...)
}

// FindAllPlugins returns every plugin file below every root folder, skipping
// files inside excluded folders. A file reached twice is reported once.
func (f *Finder) FindAllPlugins() ([]plugin.Entry, error) {
	roots, err := f.FindPluginRootFolders()
	errs := []error{err}

	if len(roots) == 0 {
		notify.Infof(f.notifier, "No root plugin folders to search for plugins")
		return nil, errors.Join(errs...)
	}

	registry := plugin.NewRegistry()
	for _, root := range roots {
		if !f.fs.IsDir(root) {
			notify.Warnf(f.notifier, "Root folder not found, skipping: %s", root)
			continue
		}

		var candidates []string
		for _, pattern := range f.pluginFiles {
			files, err := vfs.Files(f.fs, root, pattern, true)
			if err != nil {
				notify.Errorf(f.notifier, "Error searching for %s files in '%s': %v", pattern, root, err)
				errs = append(errs, plugin.NewPathError("discover", root, plugin.ErrTraversal, err))
			}
			candidates = append(candidates, files...)
		}
		notify.Debugf(f.notifier, "Found %d potential plugin files in %s", len(candidates), root)

		kept := 0
		for _, file := range candidates {
			if f.inExcludedFolder(root, f.fs.Dir(file)) {
				continue
			}
			kept++
			name := f.fs.Base(file)
			if registry.Add(plugin.NewEntry(name, file)) {
				notify.Debugf(f.notifier, "Added plugin: %s (%s)", name, file)
			}
		}
		notify.Debugf(f.notifier, "Kept %d files after excluding folders in %s", kept, root)
	}

	notify.Infof(f.notifier, "Discovered %d plugin file(s)", registry.Len())
	return registry.Entries(), errors.Join(errs...)
}

// CategorizePlugins groups plugin files by the immediate subfolder of a root
// folder they live in. Files directly inside a root folder are grouped under
// plugin.Uncategorized. Lists accumulate across root folders.
func (f *Finder) CategorizePlugins() (plugin.Categories, error) {
	categories := make(plugin.Categories)
	roots, err := f.FindPluginRootFolders()
	errs := []error{err}

	if len(roots) == 0 {
		notify.Infof(f.notifier, "No root plugin folders found for categorization")
		return categories, errors.Join(errs...)
	}

	for _, root := range roots {
		if !f.fs.IsDir(root) {
			notify.Warnf(f.notifier, "Root folder not found during categorization, skipping: %s", root)
			continue
		}

		dirs, err := vfs.Dirs(f.fs, root, nil)
		if err != nil {
			notify.Errorf(f.notifier, "Error reading category folders in '%s': %v", root, err)
			errs = append(errs, plugin.NewPathError("categorize", root, plugin.ErrTraversal, err))
		}

		for _, dir := range dirs {
			name := f.fs.Base(dir)
			if f.opts.IsExcluded(name) {
				notify.Debugf(f.notifier, "Skipping excluded folder: %s", name)
				continue
			}

			files, err := vfs.Files(f.fs, dir, f.categoryFile, false)
			if err != nil {
				notify.Errorf(f.notifier, "Error reading category folder '%s': %v", dir, err)
				errs = append(errs, plugin.NewPathError("categorize", dir, plugin.ErrTraversal, err))
				continue
			}
			if len(files) == 0 {
				notify.Debugf(f.notifier, "No %s files found in %s", f.categoryFile, dir)
				continue
			}
			for _, file := range files {
				categories[name] = append(categories[name], plugin.NewEntry(f.fs.Base(file), file))
			}
		}

		rootFiles, err := vfs.Files(f.fs, root, f.rootFile, false)
		if err != nil {
			notify.Errorf(f.notifier, "Error reading root folder '%s': %v", root, err)
			errs = append(errs, plugin.NewPathError("categorize", root, plugin.ErrTraversal, err))
			continue
		}
		for _, file := range rootFiles {
			categories[plugin.Uncategorized] = append(categories[plugin.Uncategorized], plugin.NewEntry(f.fs.Base(file), file))
		}
	}

	for _, name := range categories.Names() {
		notify.Infof(f.notifier, "Category '%s' has %d plugin(s)", name, len(categories[name]))
	}
	return categories, errors.Join(errs...)
}

// inExcludedFolder reports whether any folder between root (exclusive) and
// dir (inclusive) has an excluded name. Only whole path elements match.
func (f *Finder) inExcludedFolder(root, dir string) bool {
	for d := dir; d != root; {
		if f.opts.IsExcluded(f.fs.Base(d)) {
			return true
		}
		parent := f.fs.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return false
}

// join appends a relative path written with either slash kind to base.
func (f *Finder) join(base, rel string) string {
	return f.fs.Join(append([]string{base}, config.SplitRelative(rel)...)...)
}
