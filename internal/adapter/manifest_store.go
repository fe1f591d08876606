package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	m "github.com/tinwren/hdlcov/internal/model"
)

// ManifestStore persists the outcome of an instrumentation run so later
// runs can skip unchanged inputs and `hdlcov view` can replay the summary.
type ManifestStore interface {
	SaveManifest(dir m.Path, results []m.FileResult) error
	LoadManifest(dir m.Path) ([]m.FileResult, error)

	// CheckUpdates returns the subset of files whose archives changed since
	// the manifest in dir was written, plus files it has never seen or that
	// previously failed.
	CheckUpdates(dir m.Path, files []m.NetlistFile) ([]m.NetlistFile, error)
}

const (
	manifestFile    = "manifest.mpk"
	manifestVersion = 1
)

// LocalManifestStore keeps the manifest as a msgpack file inside the
// reports directory.
type LocalManifestStore struct{}

// NewManifestStore constructs a store backed by the local filesystem.
func NewManifestStore() *LocalManifestStore {
	return &LocalManifestStore{}
}

type manifestData struct {
	Version int          `msgpack:"ver"`
	Files   []fileRecord `msgpack:"files"`
}

type fileRecord struct {
	Origin  string     `msgpack:"o"`
	Hash    string     `msgpack:"h"`
	Modules []string   `msgpack:"mods,omitempty"`
	Output  string     `msgpack:"out,omitempty"`
	When    time.Time  `msgpack:"at"`
	Failure string     `msgpack:"fail,omitempty"`
	Points  []pointRec `msgpack:"pts,omitempty"`
}

type pointRec struct {
	Module   string `msgpack:"m"`
	Filename string `msgpack:"f"`
	Lineno   int    `msgpack:"l"`
	Page     string `msgpack:"pg"`
	Comment  string `msgpack:"cm,omitempty"`
	Lines    string `msgpack:"ln,omitempty"`
	Offset   int    `msgpack:"off,omitempty"`
	Hier     string `msgpack:"hr,omitempty"`
}

// SaveManifest writes the manifest, creating the reports directory when
// needed. The manifest is replaced wholesale; callers merge entries for
// files they skipped before saving.
func (s *LocalManifestStore) SaveManifest(dir m.Path, results []m.FileResult) error {
	if dir == "" {
		return errors.New("reports directory path is required")
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}

	data := manifestData{Version: manifestVersion, Files: make([]fileRecord, 0, len(results))}
	for _, r := range results {
		data.Files = append(data.Files, toFileRecord(r))
	}

	file, err := os.Create(filepath.Join(string(dir), manifestFile))
	if err != nil {
		return fmt.Errorf("failed to create manifest file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	if err := msgpack.NewEncoder(file).Encode(&data); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	return nil
}

// LoadManifest reads the manifest from dir.
func (s *LocalManifestStore) LoadManifest(dir m.Path) ([]m.FileResult, error) {
	file, err := os.Open(filepath.Join(string(dir), manifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	var data manifestData
	if err := msgpack.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	if data.Version != manifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", data.Version)
	}

	results := make([]m.FileResult, 0, len(data.Files))
	for _, rec := range data.Files {
		results = append(results, fromFileRecord(rec))
	}

	return results, nil
}

// CheckUpdates filters files down to those needing re-instrumentation.
func (s *LocalManifestStore) CheckUpdates(dir m.Path, files []m.NetlistFile) ([]m.NetlistFile, error) {
	if dir == "" {
		return nil, errors.New("reports directory path is required")
	}

	info, err := os.Stat(string(dir))
	if os.IsNotExist(err) {
		return files, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to stat reports directory: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	// A missing or unreadable manifest just means nothing can be skipped.
	results, err := s.LoadManifest(dir)
	if err != nil {
		return files, nil
	}

	done := make(map[m.Path]string, len(results))

	for _, r := range results {
		if r.Report.Failure != "" {
			continue
		}

		done[r.Netlist.Origin] = r.Netlist.Hash
	}

	var changed []m.NetlistFile

	for _, f := range files {
		if hash, ok := done[f.Origin]; ok && hash == f.Hash {
			continue
		}

		changed = append(changed, f)
	}

	return changed, nil
}

func toFileRecord(r m.FileResult) fileRecord {
	rec := fileRecord{
		Origin:  string(r.Netlist.Origin),
		Hash:    r.Netlist.Hash,
		Modules: r.Netlist.Modules,
		Output:  string(r.Report.Output),
		When:    r.Report.When,
		Failure: r.Report.Failure,
	}

	for _, p := range r.Points {
		rec.Points = append(rec.Points, pointRec{
			Module:   p.Module,
			Filename: p.Filename,
			Lineno:   p.Lineno,
			Page:     p.Page,
			Comment:  p.Comment,
			Lines:    p.LinesCov,
			Offset:   p.Offset,
			Hier:     p.Hier,
		})
	}

	return rec
}

func fromFileRecord(rec fileRecord) m.FileResult {
	result := m.FileResult{
		Netlist: m.NetlistFile{
			Hash:    rec.Hash,
			Origin:  m.Path(rec.Origin),
			Modules: rec.Modules,
		},
		Report: m.Report{
			Origin:  m.Path(rec.Origin),
			Output:  m.Path(rec.Output),
			Hash:    rec.Hash,
			When:    rec.When,
			Failure: rec.Failure,
		},
	}

	for _, p := range rec.Points {
		result.Points = append(result.Points, m.Point{
			Module:   p.Module,
			Filename: p.Filename,
			Lineno:   p.Lineno,
			Page:     p.Page,
			Comment:  p.Comment,
			LinesCov: p.Lines,
			Offset:   p.Offset,
			Hier:     p.Hier,
		})
	}

	result.Report.Counts = m.CountPoints(result.Points)

	return result
}
