package vfs

import (
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVFSInterface runs the same checks against MemFS and OSFS so both
// implementations behave consistently.
func TestVFSInterface(t *testing.T) {
	t.Run("MemFS", func(t *testing.T) {
		testVFSOperations(t, NewMemFS(), "/")
	})

	t.Run("OSFS", func(t *testing.T) {
		testVFSOperations(t, NewOSFS(), t.TempDir())
	})
}

func testVFSOperations(t *testing.T, fsys VFS, root string) {
	t.Run("WriteFile_ReadFile", func(t *testing.T) {
		p := fsys.Join(root, "test.txt")
		require.NoError(t, fsys.WriteFile(p, []byte("hello world"), 0644))

		got, err := fsys.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(got))
		assert.True(t, fsys.IsRegular(p))
		assert.False(t, fsys.IsDir(p))
	})

	t.Run("MkdirAll_ReadDir", func(t *testing.T) {
		dir := fsys.Join(root, "a", "b")
		require.NoError(t, fsys.MkdirAll(dir, 0755))
		require.NoError(t, fsys.WriteFile(fsys.Join(dir, "z.aex"), nil, 0644))
		require.NoError(t, fsys.WriteFile(fsys.Join(dir, "a.ffx"), nil, 0644))
		require.NoError(t, fsys.MkdirAll(fsys.Join(dir, "sub"), 0755))

		entries, err := fsys.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "a.ffx", entries[0].Name())
		assert.Equal(t, "sub", entries[1].Name())
		assert.True(t, entries[1].IsDir())
		assert.Equal(t, "z.aex", entries[2].Name())
	})

	t.Run("Rename_Overwrites", func(t *testing.T) {
		src := fsys.Join(root, "src.aex")
		dst := fsys.Join(root, "src.removed")
		require.NoError(t, fsys.WriteFile(src, []byte("new"), 0644))
		require.NoError(t, fsys.WriteFile(dst, []byte("old"), 0644))

		require.NoError(t, fsys.Rename(src, dst))
		assert.False(t, fsys.Exists(src))
		got, err := fsys.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("Rename_OntoDirectory", func(t *testing.T) {
		src := fsys.Join(root, "f.aex")
		dst := fsys.Join(root, "f.removed")
		require.NoError(t, fsys.WriteFile(src, nil, 0644))
		require.NoError(t, fsys.MkdirAll(dst, 0755))

		err := fsys.Rename(src, dst)
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrExist)
		assert.True(t, fsys.IsRegular(src))
	})

	t.Run("Rename_Missing", func(t *testing.T) {
		err := fsys.Rename(fsys.Join(root, "nope.aex"), fsys.Join(root, "nope.removed"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("Remove", func(t *testing.T) {
		p := fsys.Join(root, "gone.txt")
		require.NoError(t, fsys.WriteFile(p, nil, 0644))
		require.NoError(t, fsys.Remove(p))
		assert.False(t, fsys.Exists(p))
	})

	t.Run("PathHelpers", func(t *testing.T) {
		p := fsys.Join(root, "dir", "EffectX.aex")
		assert.Equal(t, "EffectX.aex", fsys.Base(p))
		assert.Equal(t, ".aex", fsys.Ext(p))
		assert.Equal(t, fsys.Join(root, "dir"), fsys.Dir(p))
	})

	t.Run("WalkDir", func(t *testing.T) {
		base := fsys.Join(root, "walk")
		require.NoError(t, fsys.MkdirAll(fsys.Join(base, "x", "y"), 0755))
		require.NoError(t, fsys.WriteFile(fsys.Join(base, "x", "y", "deep.aex"), nil, 0644))
		require.NoError(t, fsys.WriteFile(fsys.Join(base, "top.aex"), nil, 0644))

		var seen []string
		err := fsys.WalkDir(base, func(p string, info FileInfo, err error) error {
			require.NoError(t, err)
			if !info.IsDir() {
				seen = append(seen, info.Name())
			}
			return nil
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"deep.aex", "top.aex"}, seen)
	})
}

func TestMemFS_AddFileCreatesParents(t *testing.T) {
	m := NewMemFS()
	require.NoError(t, m.AddFile("/a/b/c/file.txt", "content"))

	assert.True(t, m.IsRegular("/a/b/c/file.txt"))
	assert.True(t, m.IsDir("/a/b/c"))
	assert.True(t, m.IsDir("/a/b"))
	assert.Equal(t, []string{"/a/b/c/file.txt"}, m.Files())
}

func TestMemFS_InjectFault(t *testing.T) {
	m := NewMemFS()
	require.NoError(t, m.AddFile("/root/x.aex", ""))

	m.InjectFault("rename", "/root/x.aex", fs.ErrPermission)
	err := m.Rename("/root/x.aex", "/root/x.removed")
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.True(t, m.IsRegular("/root/x.aex"))

	m.InjectFault("rename", "/root/x.aex", nil)
	require.NoError(t, m.Rename("/root/x.aex", "/root/x.removed"))

	m.InjectFault("readdir", "/root", fs.ErrPermission)
	_, err = m.ReadDir("/root")
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestMemFS_WriteParentNotExist(t *testing.T) {
	m := NewMemFS()
	err := m.WriteFile("/missing/file.txt", nil, 0644)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemFS_RemoveNonEmptyDir(t *testing.T) {
	m := NewMemFS()
	require.NoError(t, m.AddFile("/dir/file", ""))
	assert.Error(t, m.Remove("/dir"))
	assert.True(t, m.IsDir("/dir"))
}

func TestWriteFileAtomic(t *testing.T) {
	t.Run("MemFS", func(t *testing.T) {
		m := NewMemFS()
		require.NoError(t, WriteFileAtomic(m, "/state/plugins_state.json", []byte("[]"), 0644))

		got, err := m.ReadFile("/state/plugins_state.json")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(got))
		assert.Equal(t, []string{"/state/plugins_state.json"}, m.Files(), "no temp file left behind")
	})

	t.Run("OSFS", func(t *testing.T) {
		dir := t.TempDir()
		fsys := NewOSFS()
		target := fsys.Join(dir, "plugins_state.json")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0644))

		require.NoError(t, WriteFileAtomic(fsys, target, []byte("new"), 0644))

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("RenameFailureLeavesOriginal", func(t *testing.T) {
		m := NewMemFS()
		require.NoError(t, m.AddFile("/state/s.json", "old"))
		m.InjectFault("write", "/state", fs.ErrPermission)

		err := WriteFileAtomic(m, "/state/s.json", []byte("new"), 0644)
		require.Error(t, err)

		got, err := m.ReadFile("/state/s.json")
		require.NoError(t, err)
		assert.Equal(t, "old", string(got))
		for _, f := range m.Files() {
			assert.False(t, strings.HasSuffix(f, ".tmp"), "temp file %s left behind", f)
		}
	})
}
