// Package mesh holds the indexed triangle mesh used by the shape factory and
// the modification engine, plus the STL codec that moves it to and from disk.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrEmptyMesh = errors.New("mesh has no faces")

// Mesh is an indexed triangle mesh. Faces reference Vertices by index.
type Mesh struct {
	Vertices []mgl64.Vec3
	Faces    [][3]int
}

func New(vertices []mgl64.Vec3, faces [][3]int) *Mesh {
	return &Mesh{Vertices: vertices, Faces: faces}
}

// Validate checks that the mesh has faces and that every face index is in range.
func (m *Mesh) Validate() error {
	if m == nil || len(m.Faces) == 0 {
		return ErrEmptyMesh
	}
	n := len(m.Vertices)
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("face %d references vertex %d (have %d)", i, idx, n)
			}
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box. An empty mesh yields zero vectors.
func (m *Mesh) Bounds() (lo, hi mgl64.Vec3) {
	if m == nil || len(m.Vertices) == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}
	lo = m.Vertices[0]
	hi = m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], v[i])
			hi[i] = math.Max(hi[i], v[i])
		}
	}
	return lo, hi
}

// Extents is the size of the bounding box along each axis.
func (m *Mesh) Extents() mgl64.Vec3 {
	lo, hi := m.Bounds()
	return hi.Sub(lo)
}

func (m *Mesh) triangle(i int) (a, b, c mgl64.Vec3) {
	f := m.Faces[i]
	return m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
}

// Area is the total surface area.
func (m *Mesh) Area() float64 {
	if m == nil {
		return 0
	}
	var total float64
	for i := range m.Faces {
		a, b, c := m.triangle(i)
		total += b.Sub(a).Cross(c.Sub(a)).Len() / 2
	}
	return total
}

// Centroid is the area-weighted mean of the triangle centroids. Meshes with no
// area fall back to the plain vertex mean.
func (m *Mesh) Centroid() mgl64.Vec3 {
	if m == nil || len(m.Vertices) == 0 {
		return mgl64.Vec3{}
	}
	var sum mgl64.Vec3
	var total float64
	for i := range m.Faces {
		a, b, c := m.triangle(i)
		w := b.Sub(a).Cross(c.Sub(a)).Len() / 2
		if w == 0 {
			continue
		}
		sum = sum.Add(a.Add(b).Add(c).Mul(w / 3))
		total += w
	}
	if total > 0 {
		return sum.Mul(1 / total)
	}
	for _, v := range m.Vertices {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float64(len(m.Vertices)))
}

// Transform applies a homogeneous transform to every vertex in place.
func (m *Mesh) Transform(mat mgl64.Mat4) {
	for i, v := range m.Vertices {
		m.Vertices[i] = mat.Mul4x1(v.Vec4(1)).Vec3()
	}
}

// ScaleAbout builds a transform that scales by factors along X, Y and Z while
// keeping origin fixed.
func ScaleAbout(factors mgl64.Vec3, origin mgl64.Vec3) mgl64.Mat4 {
	back := mgl64.Translate3D(origin[0], origin[1], origin[2])
	scale := mgl64.Scale3D(factors[0], factors[1], factors[2])
	to := mgl64.Translate3D(-origin[0], -origin[1], -origin[2])
	return back.Mul4(scale).Mul4(to)
}
