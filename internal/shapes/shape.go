// Package shapes defines the parametric solid kinds the service can build and
// the ordered vocabulary used to pick one from generated text.
package shapes

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/r9s-ai/cadscribe/internal/mesh"
)

type Kind string

const (
	KindSphere    Kind = "sphere"
	KindBox       Kind = "box"
	KindCylinder  Kind = "cylinder"
	KindCone      Kind = "cone"
	KindPyramid   Kind = "pyramid"
	KindTorus     Kind = "torus"
	KindPrism     Kind = "prism"
	KindEllipsoid Kind = "ellipsoid"
	KindWedge     Kind = "wedge"
	KindRevolved  Kind = "revolved"
)

// Shape is a parametric solid. Proportions are fixed per value; Build scales
// them by size. Implementations are immutable and safe for concurrent use.
type Shape interface {
	Kind() Kind
	Build(size float64) *mesh.Mesh
}

// Sphere is an icosphere of radius Radius*size.
type Sphere struct {
	Radius float64
}

func (Sphere) Kind() Kind { return KindSphere }

func (s Sphere) Build(size float64) *mesh.Mesh {
	return mesh.Icosphere(s.Radius*size, 3)
}

// Box is an axis-aligned box with extents (X, Y, Z)*size.
type Box struct {
	X, Y, Z float64
}

func (Box) Kind() Kind { return KindBox }

func (b Box) Build(size float64) *mesh.Mesh {
	return mesh.Box(mgl64.Vec3{b.X * size, b.Y * size, b.Z * size})
}

type Cylinder struct {
	Radius   float64
	Height   float64
	Sections int
}

func (Cylinder) Kind() Kind { return KindCylinder }

func (c Cylinder) Build(size float64) *mesh.Mesh {
	return mesh.Cylinder(c.Radius*size, c.Height*size, c.Sections)
}

type Cone struct {
	Radius float64
	Height float64
}

func (Cone) Kind() Kind { return KindCone }

func (c Cone) Build(size float64) *mesh.Mesh {
	return mesh.Cone(c.Radius*size, c.Height*size, mesh.DefaultSections)
}

// Pyramid has its apex at (0, 0, size) and a square base spanning ±size on z=0.
type Pyramid struct{}

func (Pyramid) Kind() Kind { return KindPyramid }

func (Pyramid) Build(size float64) *mesh.Mesh {
	h, s := size, size
	verts := []mgl64.Vec3{
		{0, 0, h},
		{s, s, 0},
		{-s, s, 0},
		{-s, -s, 0},
		{s, -s, 0},
	}
	faces := [][3]int{
		{0, 1, 2},
		{0, 2, 3},
		{0, 3, 4},
		{0, 4, 1},
		{1, 3, 2},
		{1, 4, 3},
	}
	return mesh.New(verts, faces)
}

type Torus struct {
	Major float64
	Minor float64
}

func (Torus) Kind() Kind { return KindTorus }

func (t Torus) Build(size float64) *mesh.Mesh {
	return mesh.Torus(t.Major*size, t.Minor*size, mesh.DefaultSections, mesh.DefaultSections)
}

// Prism extrudes a regular polygon with Sides corners.
type Prism struct {
	Sides  int
	Radius float64
	Height float64
}

func (Prism) Kind() Kind { return KindPrism }

func (p Prism) Build(size float64) *mesh.Mesh {
	return mesh.Extrude(mesh.RegularPolygon(p.Sides, p.Radius*size), p.Height*size)
}

// Ellipsoid is a unit icosphere stretched to the semi-axes (RX, RY, RZ)*size.
type Ellipsoid struct {
	RX, RY, RZ float64
}

func (Ellipsoid) Kind() Kind { return KindEllipsoid }

func (e Ellipsoid) Build(size float64) *mesh.Mesh {
	m := mesh.Icosphere(1, 3)
	m.Transform(mgl64.Scale3D(e.RX*size, e.RY*size, e.RZ*size))
	return m
}

type Wedge struct{}

func (Wedge) Kind() Kind { return KindWedge }

func (Wedge) Build(size float64) *mesh.Mesh {
	return mesh.Wedge(mgl64.Vec3{size, size, size})
}

// Revolved spins a flared cup profile around the Z axis.
type Revolved struct{}

func (Revolved) Kind() Kind { return KindRevolved }

func (Revolved) Build(size float64) *mesh.Mesh {
	profile := []mgl64.Vec2{
		{0, 0},
		{size / 4, 0},
		{size / 2, size / 2},
		{0, size},
	}
	return mesh.Revolve(profile, mesh.DefaultSections)
}
