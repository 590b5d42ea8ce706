package shapes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultShapes_BuildValidMeshes(t *testing.T) {
	for _, e := range Default().Entries() {
		t.Run(e.Keyword, func(t *testing.T) {
			m := e.Shape.Build(10)
			require.NoError(t, m.Validate())
			ext := m.Extents()
			for i := 0; i < 3; i++ {
				assert.Greater(t, ext[i], 0.0)
			}
		})
	}
}

func TestShapes_ScaleWithSize(t *testing.T) {
	cases := []Shape{
		Sphere{1},
		Box{1, 0.5, 0.25},
		Cylinder{Radius: 0.5, Height: 1},
		Cone{0.5, 1},
		Pyramid{},
		Torus{0.5, 1.0 / 6},
		Prism{6, 1, 1},
		Ellipsoid{1, 0.75, 0.5},
		Wedge{},
		Revolved{},
	}
	for _, s := range cases {
		t.Run(string(s.Kind()), func(t *testing.T) {
			small := s.Build(1).Extents()
			big := s.Build(4).Extents()
			for i := 0; i < 3; i++ {
				assert.InDelta(t, small[i]*4, big[i], 1e-6)
			}
		})
	}
}

func TestSphere_Diameter(t *testing.T) {
	ext := Sphere{1}.Build(5).Extents()
	assert.InDelta(t, 10, ext[0], 1e-6)
}

func TestBox_Extents(t *testing.T) {
	ext := Box{1, 1, 1}.Build(10).Extents()
	assert.InDelta(t, 10, ext[0], 1e-9)
	assert.InDelta(t, 10, ext[1], 1e-9)
	assert.InDelta(t, 10, ext[2], 1e-9)
}

func TestPyramid_Topology(t *testing.T) {
	m := Pyramid{}.Build(2)
	assert.Len(t, m.Vertices, 5)
	assert.Len(t, m.Faces, 6)
	ext := m.Extents()
	assert.InDelta(t, 4, ext[0], 1e-9)
	assert.InDelta(t, 2, ext[2], 1e-9)

	// Base faces lie on z=0 and must face down.
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		if a.Z() != 0 || b.Z() != 0 || c.Z() != 0 {
			continue
		}
		n := b.Sub(a).Cross(c.Sub(a))
		assert.Less(t, n.Z(), 0.0, "base face %v", f)
	}
}
