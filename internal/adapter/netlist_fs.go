// Package adapter contains filesystem and storage adapters for the hdlcov CLI.
package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	m "github.com/tinwren/hdlcov/internal/model"
)

// netlistExt is the extension of serialized netlist archives.
const netlistExt = ".vnl"

// NetlistFS abstracts filesystem-specific operations that the workflow
// relies on when scanning designs. It intentionally hides direct `os`
// access so the workflow logic can be tested without touching the disk.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type NetlistFS interface {
	// Get collects netlist archives under the given roots. A root ending
	// in "/..." is scanned recursively; exclude patterns drop matching
	// files.
	Get(roots []m.Path, exclude []string) ([]m.NetlistFile, error)

	// Walk traverses the provided root path. When recursive is false the
	// implementation should limit itself to the root directory (no sub-dirs).
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// HashFile returns a stable fingerprint (e.g. SHA-256) for the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path so the workflow can check
	// existence or distinguish between files and directories when necessary.
	FileInfo(path m.Path) (os.FileInfo, error)

	// MkdirAll creates a directory along with any missing parents.
	MkdirAll(path m.Path, perm os.FileMode) error

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type directly into the
// workflow layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalNetlistFS is the NetlistFS implementation backed by the local disk.
type LocalNetlistFS struct{}

// NewLocalNetlistFS constructs a LocalNetlistFS instance ready to be wired
// into the workflow.
func NewLocalNetlistFS() *LocalNetlistFS {
	return &LocalNetlistFS{}
}

// Get collects netlist archives for the provided roots.
func (a *LocalNetlistFS) Get(roots []m.Path, exclude []string) ([]m.NetlistFile, error) {
	if len(roots) == 0 {
		return []m.NetlistFile{}, nil
	}

	excludes, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	var files []m.NetlistFile

	for _, root := range roots {
		rootPath, recursive, err := normalizeRootPath(string(root))
		if err != nil {
			return nil, err
		}

		info, err := a.FileInfo(m.Path(rootPath))
		if err != nil {
			return nil, fmt.Errorf("root path error: %w", err)
		}

		if !info.IsDir() {
			file, ok, err := a.processFilePath(rootPath, filepath.Dir(rootPath), excludes)
			if err != nil {
				return nil, err
			}

			if ok {
				if _, exists := seen[string(file.Origin)]; !exists {
					seen[string(file.Origin)] = struct{}{}
					files = append(files, file)
				}
			}

			continue
		}

		err = a.Walk(m.Path(rootPath), recursive, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				return nil
			}

			file, ok, err := a.processFilePath(path, rootPath, excludes)
			if err != nil {
				return err
			}

			if !ok {
				return nil
			}

			if _, exists := seen[string(file.Origin)]; exists {
				return nil
			}

			seen[string(file.Origin)] = struct{}{}
			files = append(files, file)

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalNetlistFS) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalNetlistFS) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalNetlistFS) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalNetlistFS) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// MkdirAll creates a directory along with any missing parents.
func (a *LocalNetlistFS) MkdirAll(path m.Path, perm os.FileMode) error {
	return os.MkdirAll(string(path), perm)
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalNetlistFS) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// RelPath returns the relative path from base to target.
func (a *LocalNetlistFS) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalNetlistFS) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}

func normalizeRootPath(root string) (string, bool, error) {
	rootStr, recursive := parseRootPath(root)

	if strings.HasPrefix(rootStr, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false, err
		}

		suffix := strings.TrimPrefix(rootStr, "~")
		suffix = strings.TrimPrefix(suffix, string(os.PathSeparator))
		rootStr = filepath.Join(home, suffix)
	}

	if rootStr == "" {
		rootStr = "."
	}

	abs, err := filepath.Abs(rootStr)
	if err != nil {
		return "", false, err
	}

	return abs, recursive, nil
}

func parseRootPath(rootStr string) (path string, recursive bool) {
	if len(rootStr) >= 4 && rootStr[len(rootStr)-4:] == "/..." {
		return rootStr[:len(rootStr)-4], true
	}

	return rootStr, false
}

// processFilePath qualifies one walked file: netlist extension, not
// excluded, and a readable archive header. Files that fail the header probe
// are skipped rather than reported, so a stray .vnl file does not abort a
// whole scan.
func (a *LocalNetlistFS) processFilePath(path, root string, excludes *excludeSet) (m.NetlistFile, bool, error) {
	if filepath.Ext(path) != netlistExt {
		return m.NetlistFile{}, false, nil
	}

	if excludes.matches(root, path) {
		return m.NetlistFile{}, false, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return m.NetlistFile{}, false, err
	}

	modules, err := probeArchive(m.Path(absPath))
	if err != nil {
		return m.NetlistFile{}, false, nil
	}

	hash, err := a.HashFile(m.Path(absPath))
	if err != nil {
		return m.NetlistFile{}, false, err
	}

	return m.NetlistFile{Hash: hash, Origin: m.Path(absPath), Modules: modules}, true, nil
}
