package artifact

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r9s-ai/cadscribe/internal/mesh"
)

var nameRe = regexp.MustCompile(`^[0-9a-f]{32}_base_plate\.stl$`)

func TestNewName_Format(t *testing.T) {
	assert.Regexp(t, nameRe, NewName("base_plate"))
}

func TestNewName_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		n := NewName("cube")
		_, dup := seen[n]
		require.False(t, dup, "duplicate name %s", n)
		seen[n] = struct{}{}
	}
}

func TestSuffixOf(t *testing.T) {
	assert.Equal(t, "hollow_cylinder", SuffixOf("/x/0123abcd_hollow_cylinder.stl"))
	assert.Equal(t, "modified", SuffixOf("abc_modified.stl"))
	assert.Equal(t, "", SuffixOf("plain.stl"))
}

func TestStore_SaveLoadList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewStore(dir)
	require.NoError(t, err)

	p, err := s.Save(mesh.Box(mgl64.Vec3{1, 2, 3}), "cube")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(p))

	m, err := s.Load(p)
	require.NoError(t, err)
	assert.InDelta(t, 2, m.Extents()[1], 1e-6)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	items, err := s.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "cube", items[0].Suffix)
	assert.Greater(t, items[0].Size, int64(0))
}

func TestNewStore_EmptyDir(t *testing.T) {
	_, err := NewStore("  ")
	assert.Error(t, err)
}
