package vfs

import (
	"io/fs"

	"github.com/google/uuid"
)

// WriteFileAtomic writes data to a uniquely named sibling of path and then
// renames it over path, so readers observe either the old or the new content.
// The temporary file is removed if the rename fails.
func WriteFileAtomic(fsys VFS, path string, data []byte, perm fs.FileMode) error {
	dir := fsys.Dir(path)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := fsys.Join(dir, "."+fsys.Base(path)+"."+uuid.NewString()+".tmp")
	if err := fsys.WriteFile(tmp, data, perm); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	if err := fsys.Rename(tmp, path); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	return nil
}
