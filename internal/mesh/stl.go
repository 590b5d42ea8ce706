package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hschendel/stl"
)

// WriteSTL exports the mesh as a binary STL file.
func WriteSTL(path string, m *Mesh, name string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	solid := &stl.Solid{
		Name:      name,
		Triangles: make([]stl.Triangle, 0, len(m.Faces)),
	}
	for i := range m.Faces {
		a, b, c := m.triangle(i)
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		solid.Triangles = append(solid.Triangles, stl.Triangle{
			Normal:   toSTL(n),
			Vertices: [3]stl.Vec3{toSTL(a), toSTL(b), toSTL(c)},
		})
	}
	if err := solid.WriteFile(path); err != nil {
		return fmt.Errorf("write stl %s: %w", path, err)
	}
	return nil
}

// ReadSTL loads an ASCII or binary STL file and merges identical vertices.
func ReadSTL(path string) (*Mesh, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stl %s: %w", path, err)
	}
	m := FromSolid(solid)
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("read stl %s: %w", path, ErrEmptyMesh)
	}
	return m, nil
}

// FromSolid converts a triangle soup into an indexed mesh.
func FromSolid(solid *stl.Solid) *Mesh {
	m := &Mesh{}
	if solid == nil {
		return m
	}
	index := make(map[stl.Vec3]int, len(solid.Triangles))
	m.Faces = make([][3]int, 0, len(solid.Triangles))
	for _, t := range solid.Triangles {
		var f [3]int
		for k, v := range t.Vertices {
			idx, ok := index[v]
			if !ok {
				idx = len(m.Vertices)
				index[v] = idx
				m.Vertices = append(m.Vertices, fromSTL(v))
			}
			f[k] = idx
		}
		m.Faces = append(m.Faces, f)
	}
	return m
}

func toSTL(v mgl64.Vec3) stl.Vec3 {
	return stl.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func fromSTL(v stl.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
