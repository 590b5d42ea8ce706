package mesh

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-6

func assertVecInDelta(t *testing.T, want, got mgl64.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], delta, "axis %d: want=%v got=%v", i, want, got)
	}
}

// signedVolume is positive when faces wind counter-clockwise seen from outside.
func signedVolume(m *Mesh) float64 {
	var v float64
	for i := range m.Faces {
		a, b, c := m.triangle(i)
		v += a.Dot(b.Cross(c)) / 6
	}
	return v
}

func TestBox_ExtentsAndVolume(t *testing.T) {
	m := Box(mgl64.Vec3{2, 4, 6})
	require.NoError(t, m.Validate())
	assertVecInDelta(t, mgl64.Vec3{2, 4, 6}, m.Extents(), eps)
	assert.InDelta(t, 48, signedVolume(m), eps)
	assertVecInDelta(t, mgl64.Vec3{}, m.Centroid(), eps)
}

func TestPrimitives_OutwardWinding(t *testing.T) {
	cases := map[string]*Mesh{
		"icosphere": Icosphere(1, 2),
		"cylinder":  Cylinder(1, 2, 32),
		"cone":      Cone(1, 2, 32),
		"torus":     Torus(2, 0.5, 32, 16),
		"extrude":   Extrude(RegularPolygon(6, 1), 1),
		"revolve":   Revolve([]mgl64.Vec2{{0, 0}, {0.25, 0}, {0.5, 0.5}, {0, 1}}, 32),
		"wedge":     Wedge(mgl64.Vec3{1, 1, 1}),
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, m.Validate())
			assert.Greater(t, signedVolume(m), 0.0)
		})
	}
}

func TestWedge_VolumeIsHalfBox(t *testing.T) {
	m := Wedge(mgl64.Vec3{2, 3, 4})
	assert.InDelta(t, 12, signedVolume(m), eps)
	assertVecInDelta(t, mgl64.Vec3{2, 3, 4}, m.Extents(), eps)
}

func TestIcosphere_RadiusAndFaceCount(t *testing.T) {
	m := Icosphere(5, 3)
	assert.Len(t, m.Faces, 20*64)
	for _, v := range m.Vertices {
		assert.InDelta(t, 5, v.Len(), eps)
	}
}

func TestCylinder_Extents(t *testing.T) {
	m := Cylinder(10, 40, 64)
	ext := m.Extents()
	assert.InDelta(t, 20, ext[0], eps)
	assert.InDelta(t, 40, ext[2], eps)
	lo, hi := m.Bounds()
	assert.InDelta(t, -20, lo[2], eps)
	assert.InDelta(t, 20, hi[2], eps)
}

func TestScaleAbout_KeepsOriginFixed(t *testing.T) {
	m := Box(mgl64.Vec3{2, 2, 2})
	m.Transform(mgl64.Translate3D(5, 5, 5))
	c := m.Centroid()

	m.Transform(ScaleAbout(mgl64.Vec3{0.5, 0.5, 0.5}, c))

	assertVecInDelta(t, c, m.Centroid(), eps)
	assertVecInDelta(t, mgl64.Vec3{1, 1, 1}, m.Extents(), eps)
}

func TestScaleAbout_SingleAxis(t *testing.T) {
	m := Box(mgl64.Vec3{10, 20, 30})
	m.Transform(ScaleAbout(mgl64.Vec3{1.1, 1, 1}, mgl64.Vec3{}))
	assertVecInDelta(t, mgl64.Vec3{11, 20, 30}, m.Extents(), eps)
}

func TestValidate_RejectsBadIndex(t *testing.T) {
	m := New([]mgl64.Vec3{{0, 0, 0}}, [][3]int{{0, 1, 2}})
	assert.Error(t, m.Validate())
	assert.ErrorIs(t, New(nil, nil).Validate(), ErrEmptyMesh)
}

func TestSTL_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "box.stl")
	src := Box(mgl64.Vec3{10, 20, 30})
	require.NoError(t, WriteSTL(p, src, "box"))

	got, err := ReadSTL(p)
	require.NoError(t, err)
	assert.Len(t, got.Faces, len(src.Faces))
	assert.Len(t, got.Vertices, len(src.Vertices))
	assertVecInDelta(t, src.Extents(), got.Extents(), 1e-4)
	assertVecInDelta(t, src.Centroid(), got.Centroid(), 1e-4)
}

func TestReadSTL_MissingFile(t *testing.T) {
	_, err := ReadSTL(filepath.Join(t.TempDir(), "nope.stl"))
	assert.Error(t, err)
}
