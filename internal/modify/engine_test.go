package modify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/r9s-ai/cadscribe/internal/artifact"
	"github.com/r9s-ai/cadscribe/internal/mesh"
	"github.com/r9s-ai/cadscribe/internal/metrics"
)

const tol = 1e-4

func newTestEngine(t *testing.T, opts Options) (*Engine, *artifact.Store) {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewEngine(store, opts, zap.NewNop(), nil), store
}

// offsetBox writes a 10x20x30 box whose centroid is away from the origin.
func offsetBox(t *testing.T, store *artifact.Store) string {
	t.Helper()
	m := mesh.Box(mgl64.Vec3{10, 20, 30})
	m.Transform(mgl64.Translate3D(5, 5, 5))
	p, err := store.Save(m, "cube")
	require.NoError(t, err)
	return p
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestModify_IncreaseLength(t *testing.T) {
	e, store := newTestEngine(t, Options{})
	src := offsetBox(t, store)

	res, err := e.Modify(context.Background(), src, "increase length by 10 mm")
	require.NoError(t, err)
	require.True(t, res.Applied)
	assert.NotEqual(t, src, res.Path)
	assert.Equal(t, "modified", artifact.SuffixOf(res.Path))

	got, err := store.Load(res.Path)
	require.NoError(t, err)
	ext := got.Extents()
	assert.InDelta(t, 11, ext[0], tol)
	assert.InDelta(t, 20, ext[1], tol)
	assert.InDelta(t, 30, ext[2], tol)
}

func TestModify_DecreaseSizeUniformAboutCentroid(t *testing.T) {
	e, store := newTestEngine(t, Options{})
	src := offsetBox(t, store)
	before, err := store.Load(src)
	require.NoError(t, err)

	res, err := e.Modify(context.Background(), src, "decrease size by 5 mm")
	require.NoError(t, err)
	require.True(t, res.Applied)

	got, err := store.Load(res.Path)
	require.NoError(t, err)
	ext := got.Extents()
	assert.InDelta(t, 9.5, ext[0], tol)
	assert.InDelta(t, 19, ext[1], tol)
	assert.InDelta(t, 28.5, ext[2], tol)

	c0, c1 := before.Centroid(), got.Centroid()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, c0[i], c1[i], tol)
	}
}

func TestModify_OriginalUntouched(t *testing.T) {
	e, store := newTestEngine(t, Options{})
	src := offsetBox(t, store)
	raw, err := os.ReadFile(src)
	require.NoError(t, err)

	_, err = e.Modify(context.Background(), src, "increase height by 50 mm")
	require.NoError(t, err)

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, raw, after)
}

func TestModify_NoPatternIsNoOp(t *testing.T) {
	e, store := newTestEngine(t, Options{})
	src := offsetBox(t, store)
	n := countFiles(t, store.Dir())

	res, err := e.Modify(context.Background(), src, "banana")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, ReasonPattern, res.Reason)
	assert.Equal(t, src, res.Path)
	assert.Equal(t, n, countFiles(t, store.Dir()))
}

func TestModify_UnloadableIsNoOp(t *testing.T) {
	e, store := newTestEngine(t, Options{})
	missing := filepath.Join(store.Dir(), "gone.stl")

	res, err := e.Modify(context.Background(), missing, "increase length by 10 mm")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, ReasonLoad, res.Reason)
	assert.Equal(t, missing, res.Path)
	assert.Equal(t, 0, countFiles(t, store.Dir()))
}

func TestModify_AxisBranchIgnoresDecreaseByDefault(t *testing.T) {
	e, store := newTestEngine(t, Options{})
	src := offsetBox(t, store)

	res, err := e.Modify(context.Background(), src, "decrease width by 10 mm")
	require.NoError(t, err)
	got, err := store.Load(res.Path)
	require.NoError(t, err)
	assert.InDelta(t, 22, got.Extents()[1], tol)
}

func TestModify_SignedAxisScaling(t *testing.T) {
	e, store := newTestEngine(t, Options{SignedAxisScaling: true})
	src := offsetBox(t, store)

	res, err := e.Modify(context.Background(), src, "decrease width by 10 mm")
	require.NoError(t, err)
	got, err := store.Load(res.Path)
	require.NoError(t, err)
	assert.InDelta(t, 18, got.Extents()[1], tol)
	assert.InDelta(t, 10, got.Extents()[0], tol)
}

func TestModify_RecordsMetrics(t *testing.T) {
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	mc := metrics.NewCollector("test", zap.NewNop())
	e := NewEngine(store, Options{}, nil, mc)
	src := offsetBox(t, store)

	_, err = e.Modify(context.Background(), src, "banana")
	require.NoError(t, err)
	_, err = e.Modify(context.Background(), src, "increase length by 1 mm")
	require.NoError(t, err)

	out, err := testutil.GatherAndCount(mc.Registry(), "test_modifications_total")
	require.NoError(t, err)
	assert.Equal(t, 2, out)
}

func TestModify_ExportFailurePropagates(t *testing.T) {
	e, store := newTestEngine(t, Options{})
	src := offsetBox(t, store)
	require.NoError(t, os.Chmod(store.Dir(), 0o500))
	t.Cleanup(func() { _ = os.Chmod(store.Dir(), 0o750) })
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	_, err := e.Modify(context.Background(), src, "increase length by 10 mm")
	assert.Error(t, err)
}
