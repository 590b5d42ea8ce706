package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultSections is the number of segments used around circular primitives.
const DefaultSections = 32

// Box returns an axis-aligned box centred on the origin.
func Box(extents mgl64.Vec3) *Mesh {
	h := extents.Mul(0.5)
	verts := make([]mgl64.Vec3, 8)
	for i := range verts {
		v := mgl64.Vec3{-h[0], -h[1], -h[2]}
		if i&1 != 0 {
			v[0] = h[0]
		}
		if i&2 != 0 {
			v[1] = h[1]
		}
		if i&4 != 0 {
			v[2] = h[2]
		}
		verts[i] = v
	}
	faces := [][3]int{
		{0, 4, 6}, {0, 6, 2}, // -x
		{1, 3, 7}, {1, 7, 5}, // +x
		{0, 1, 5}, {0, 5, 4}, // -y
		{2, 6, 7}, {2, 7, 3}, // +y
		{0, 2, 3}, {0, 3, 1}, // -z
		{4, 5, 7}, {4, 7, 6}, // +z
	}
	return New(verts, faces)
}

// Icosphere subdivides an icosahedron and projects it onto a sphere.
func Icosphere(radius float64, subdivisions int) *Mesh {
	t := (1 + math.Sqrt(5)) / 2
	verts := []mgl64.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	for i := range verts {
		verts[i] = verts[i].Normalize()
	}

	for s := 0; s < subdivisions; s++ {
		cache := make(map[[2]int]int, len(faces)*3/2)
		midpoint := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if idx, ok := cache[key]; ok {
				return idx
			}
			verts = append(verts, verts[a].Add(verts[b]).Mul(0.5).Normalize())
			idx := len(verts) - 1
			cache[key] = idx
			return idx
		}
		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				[3]int{f[0], ab, ca},
				[3]int{f[1], bc, ab},
				[3]int{f[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		faces = next
	}

	for i := range verts {
		verts[i] = verts[i].Mul(radius)
	}
	return New(verts, faces)
}

func ring(radius, z float64, sections int) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, sections)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(sections)
		out[i] = mgl64.Vec3{radius * math.Cos(a), radius * math.Sin(a), z}
	}
	return out
}

// Cylinder returns a closed cylinder along Z, centred on the origin.
func Cylinder(radius, height float64, sections int) *Mesh {
	if sections < 3 {
		sections = DefaultSections
	}
	n := sections
	verts := make([]mgl64.Vec3, 0, 2*n+2)
	verts = append(verts, ring(radius, -height/2, n)...)
	verts = append(verts, ring(radius, height/2, n)...)
	bottom, top := 2*n, 2*n+1
	verts = append(verts, mgl64.Vec3{0, 0, -height / 2}, mgl64.Vec3{0, 0, height / 2})

	faces := make([][3]int, 0, 4*n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		bi, bj, ti, tj := i, j, n+i, n+j
		faces = append(faces,
			[3]int{bi, bj, tj},
			[3]int{bi, tj, ti},
			[3]int{top, ti, tj},
			[3]int{bottom, bj, bi},
		)
	}
	return New(verts, faces)
}

// Cone returns a cone with its base on z=0 and its apex at z=height.
func Cone(radius, height float64, sections int) *Mesh {
	if sections < 3 {
		sections = DefaultSections
	}
	n := sections
	verts := ring(radius, 0, n)
	apex, center := n, n+1
	verts = append(verts, mgl64.Vec3{0, 0, height}, mgl64.Vec3{})

	faces := make([][3]int, 0, 2*n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		faces = append(faces,
			[3]int{i, j, apex},
			[3]int{center, j, i},
		)
	}
	return New(verts, faces)
}

// Torus returns a ring torus around the Z axis.
func Torus(major, minor float64, majorSections, minorSections int) *Mesh {
	if majorSections < 3 {
		majorSections = DefaultSections
	}
	if minorSections < 3 {
		minorSections = DefaultSections
	}
	idx := func(i, j int) int {
		return (i%majorSections)*minorSections + j%minorSections
	}
	verts := make([]mgl64.Vec3, 0, majorSections*minorSections)
	for i := 0; i < majorSections; i++ {
		u := 2 * math.Pi * float64(i) / float64(majorSections)
		for j := 0; j < minorSections; j++ {
			v := 2 * math.Pi * float64(j) / float64(minorSections)
			r := major + minor*math.Cos(v)
			verts = append(verts, mgl64.Vec3{r * math.Cos(u), r * math.Sin(u), minor * math.Sin(v)})
		}
	}
	faces := make([][3]int, 0, 2*majorSections*minorSections)
	for i := 0; i < majorSections; i++ {
		for j := 0; j < minorSections; j++ {
			a, b, c, d := idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)
			faces = append(faces, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return New(verts, faces)
}

// RegularPolygon returns the counter-clockwise vertices of a regular polygon.
func RegularPolygon(sides int, radius float64) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, sides)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(sides)
		out[i] = mgl64.Vec2{radius * math.Cos(a), radius * math.Sin(a)}
	}
	return out
}

// Extrude lifts a convex counter-clockwise polygon from z=0 to z=height.
func Extrude(polygon []mgl64.Vec2, height float64) *Mesh {
	n := len(polygon)
	if n < 3 {
		return New(nil, nil)
	}
	verts := make([]mgl64.Vec3, 0, 2*n)
	for _, p := range polygon {
		verts = append(verts, mgl64.Vec3{p[0], p[1], 0})
	}
	for _, p := range polygon {
		verts = append(verts, mgl64.Vec3{p[0], p[1], height})
	}
	faces := make([][3]int, 0, 2*n+2*(n-2))
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		faces = append(faces, [3]int{i, j, n + j}, [3]int{i, n + j, n + i})
	}
	for k := 1; k < n-1; k++ {
		faces = append(faces,
			[3]int{n, n + k, n + k + 1},
			[3]int{0, k + 1, k},
		)
	}
	return New(verts, faces)
}

// Revolve sweeps a (radius, z) profile around the Z axis. Profile points on
// the axis collapse to a single vertex.
func Revolve(profile []mgl64.Vec2, sections int) *Mesh {
	if sections < 3 {
		sections = DefaultSections
	}
	var verts []mgl64.Vec3
	rings := make([][]int, len(profile))
	for k, p := range profile {
		if p[0] == 0 {
			verts = append(verts, mgl64.Vec3{0, 0, p[1]})
			rings[k] = []int{len(verts) - 1}
			continue
		}
		start := len(verts)
		verts = append(verts, ring(p[0], p[1], sections)...)
		idx := make([]int, sections)
		for i := range idx {
			idx[i] = start + i
		}
		rings[k] = idx
	}
	at := func(r []int, i int) int {
		if len(r) == 1 {
			return r[0]
		}
		return r[i%len(r)]
	}

	var faces [][3]int
	for k := 0; k+1 < len(rings); k++ {
		a, b := rings[k], rings[k+1]
		if len(a) == 1 && len(b) == 1 {
			continue
		}
		for i := 0; i < sections; i++ {
			a0, a1 := at(a, i), at(a, i+1)
			b0, b1 := at(b, i), at(b, i+1)
			if len(a) > 1 {
				faces = append(faces, [3]int{a0, a1, b1})
			}
			if len(b) > 1 {
				faces = append(faces, [3]int{a0, b1, b0})
			}
		}
	}
	return New(verts, faces)
}

// Wedge returns a right triangular prism: the right angle sits on the -X/-Z
// edge and the slope faces +X/+Z. The bounding box is centred on the origin.
func Wedge(extents mgl64.Vec3) *Mesh {
	x, y, z := extents[0], extents[1], extents[2]
	verts := []mgl64.Vec3{
		{0, 0, 0}, {x, 0, 0}, {0, 0, z},
		{0, y, 0}, {x, y, 0}, {0, y, z},
	}
	faces := [][3]int{
		{0, 3, 4}, {0, 4, 1}, // bottom
		{0, 2, 5}, {0, 5, 3}, // back
		{1, 4, 5}, {1, 5, 2}, // slope
		{0, 1, 2}, // front
		{3, 5, 4}, // rear
	}
	m := New(verts, faces)
	m.Transform(mgl64.Translate3D(-x/2, -y/2, -z/2))
	return m
}
