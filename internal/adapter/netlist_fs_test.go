package adapter

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	m "github.com/tinwren/hdlcov/internal/model"
)

func TestLocalNetlistFS_Walk(t *testing.T) {
	t.Run("non recursive skips nested files", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		root := t.TempDir()
		writeArchiveFile(t, filepath.Join(root, "alu.vnl"), "alu")

		nestedDir := filepath.Join(root, "nested")
		mustMkdir(t, nestedDir)
		writeArchiveFile(t, filepath.Join(nestedDir, "fifo.vnl"), "fifo")

		var visited []string
		err := fs.Walk(m.Path(root), false, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			return nil
		})
		require.NoError(t, err)

		for _, forbidden := range []string{nestedDir, filepath.Join(nestedDir, "fifo.vnl")} {
			assert.Falsef(t, containsPath(visited, forbidden), "Walk() unexpectedly visited %s when recursive is false", forbidden)
		}

		assert.True(t, containsPath(visited, filepath.Join(root, "alu.vnl")), "Walk() did not visit top-level file")
	})

	t.Run("recursive visits nested files", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		root := t.TempDir()
		writeArchiveFile(t, filepath.Join(root, "alu.vnl"), "alu")

		nestedDir := filepath.Join(root, "nested")
		mustMkdir(t, nestedDir)
		nested := filepath.Join(nestedDir, "fifo.vnl")
		writeArchiveFile(t, nested, "fifo")

		var visited []string
		err := fs.Walk(m.Path(root), true, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			return nil
		})
		require.NoError(t, err)

		assert.True(t, containsPath(visited, nested), "Walk() did not visit nested file")
	})
}

func TestLocalNetlistFS_Get(t *testing.T) {
	t.Run("collects archives under a directory root", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		root := t.TempDir()
		aluBytes := writeArchiveFile(t, filepath.Join(root, "alu.vnl"), "alu", "alu_core")
		writeArchiveFile(t, filepath.Join(root, "fifo.vnl"), "fifo")
		writeTestFile(t, filepath.Join(root, "notes.txt"), "not a netlist")
		writeTestFile(t, filepath.Join(root, "broken.vnl"), "junk bytes")

		nestedDir := filepath.Join(root, "nested")
		mustMkdir(t, nestedDir)
		writeArchiveFile(t, filepath.Join(nestedDir, "deep.vnl"), "deep")

		files, err := fs.Get([]m.Path{m.Path(root)}, nil)
		require.NoError(t, err)
		require.Len(t, files, 2, "non-recursive root must not pick up nested archives")

		alu := findNetlistFile(files, filepath.Join(root, "alu.vnl"))
		require.NotNil(t, alu, "alu.vnl missing from results")
		assert.Equal(t, hashBytes(aluBytes), alu.Hash)
		assert.Equal(t, []string{"alu", "alu_core"}, alu.Modules)
	})

	t.Run("root ending in /... recurses", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		root := t.TempDir()
		writeArchiveFile(t, filepath.Join(root, "alu.vnl"), "alu")

		nestedDir := filepath.Join(root, "nested")
		mustMkdir(t, nestedDir)
		writeArchiveFile(t, filepath.Join(nestedDir, "deep.vnl"), "deep")

		files, err := fs.Get([]m.Path{m.Path(root + "/...")}, nil)
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("explicit file root", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		root := t.TempDir()
		path := filepath.Join(root, "alu.vnl")
		writeArchiveFile(t, path, "alu")

		files, err := fs.Get([]m.Path{m.Path(path)}, nil)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, m.Path(path), files[0].Origin)
	})

	t.Run("overlapping roots are deduplicated", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		root := t.TempDir()
		path := filepath.Join(root, "alu.vnl")
		writeArchiveFile(t, path, "alu")

		files, err := fs.Get([]m.Path{m.Path(root), m.Path(path)}, nil)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("exclude patterns drop matching files", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		root := t.TempDir()
		writeArchiveFile(t, filepath.Join(root, "alu.vnl"), "alu")
		writeArchiveFile(t, filepath.Join(root, "alu_tb.vnl"), "alu_tb")

		ipDir := filepath.Join(root, "ip")
		mustMkdir(t, ipDir)
		writeArchiveFile(t, filepath.Join(ipDir, "vendor_core.vnl"), "vendor_core")

		files, err := fs.Get([]m.Path{m.Path(root + "/...")}, []string{`_tb\.vnl$`, `^ip/`})
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, m.Path(filepath.Join(root, "alu.vnl")), files[0].Origin)
	})

	t.Run("invalid exclude pattern returns error", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		_, err := fs.Get([]m.Path{m.Path(t.TempDir())}, []string{"("})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid exclude pattern")
	})

	t.Run("missing root returns error", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		_, err := fs.Get([]m.Path{m.Path(filepath.Join(t.TempDir(), "absent"))}, nil)
		require.Error(t, err)
	})

	t.Run("no roots returns empty result", func(t *testing.T) {
		fs := NewLocalNetlistFS()

		files, err := fs.Get(nil, nil)
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestLocalNetlistFS_HashFile(t *testing.T) {
	fs := NewLocalNetlistFS()

	path := filepath.Join(t.TempDir(), "alu.vnl")
	content := []byte("stable bytes")
	writeTestBytes(t, path, content)

	hash, err := fs.HashFile(m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, hashBytes(content), hash)
}

// writeArchiveFile writes a minimal valid netlist archive (header only) so
// Get's probe accepts it.
func writeArchiveFile(t *testing.T, path string, modules ...string) []byte {
	t.Helper()

	data, err := msgpack.Marshal(&archive{Magic: archiveMagic, Version: archiveVersion, Modules: modules})
	require.NoError(t, err)
	writeTestBytes(t, path, data)

	return data
}

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	writeTestBytes(t, path, []byte(contents))
}

func writeTestBytes(t *testing.T, path string, contents []byte) {
	t.Helper()
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("failed to create dir %s: %v", path, err)
	}
}

func containsPath(paths []string, target string) bool {
	for _, p := range paths {
		if p == target {
			return true
		}
	}

	return false
}

func findNetlistFile(files []m.NetlistFile, origin string) *m.NetlistFile {
	for i := range files {
		if string(files[i].Origin) == origin {
			return &files[i]
		}
	}

	return nil
}

func hashBytes(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}
