// Package artifact names and stores exported STL files. Artifacts are
// write-once: nothing in the service rewrites or deletes them.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/r9s-ai/cadscribe/internal/mesh"
)

const Ext = ".stl"

const ModifiedSuffix = "modified"

type Store struct {
	dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("artifact dir is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// NewName returns "<32 hex>_<suffix>.stl".
func NewName(suffix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id + "_" + suffix + Ext
}

// Save exports m under a fresh name and returns the path.
func (s *Store) Save(m *mesh.Mesh, suffix string) (string, error) {
	path := filepath.Join(s.dir, NewName(suffix))
	if err := mesh.WriteSTL(path, m, suffix); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) Load(path string) (*mesh.Mesh, error) {
	return mesh.ReadSTL(path)
}

// Info describes one artifact on disk.
type Info struct {
	Name    string
	Path    string
	Suffix  string
	Size    int64
	ModTime time.Time
}

// List returns artifacts newest first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{
			Name:    e.Name(),
			Path:    filepath.Join(s.dir, e.Name()),
			Suffix:  SuffixOf(e.Name()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].Name > out[j].Name
		}
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}

// SuffixOf extracts the descriptive part of an artifact file name.
func SuffixOf(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), Ext)
	if i := strings.IndexByte(base, '_'); i >= 0 {
		return base[i+1:]
	}
	return ""
}
