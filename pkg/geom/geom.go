// Package geom provides the geometric primitives and intersection
// predicates used by the mesh and sculpting packages.
package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the tolerance used by the predicates in this package.
const Epsilon float32 = 1e-5

// Ray is a half-line with a normalized direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay builds a ray, normalizing the direction.
func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Sphere is a brush footprint.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// ContainsPoint reports whether p lies inside the sphere.
func (s Sphere) ContainsPoint(p mgl32.Vec3) bool {
	return p.Sub(s.Center).LenSqr() < s.Radius*s.Radius
}

// ContainsTriangle reports whether all three corners lie inside the sphere.
func (s Sphere) ContainsTriangle(t Triangle) bool {
	return s.ContainsPoint(t.A) && s.ContainsPoint(t.B) && s.ContainsPoint(t.C)
}

// Triangle is an oriented triangle; the normal follows A->B->C winding.
type Triangle struct {
	A, B, C mgl32.Vec3
}

// Normal returns the unit normal of the triangle, or the zero vector for
// degenerate triangles.
func (t Triangle) Normal() mgl32.Vec3 {
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	if n.LenSqr() < Epsilon*Epsilon {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}

// Center returns the centroid.
func (t Triangle) Center() mgl32.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// Bounds returns the axis-aligned bounding box of the triangle.
func (t Triangle) Bounds() AABB {
	return NewAABB(t.A, t.B).ExtendPoint(t.C)
}

// MaxEdgeSqr returns the squared length of the longest edge.
func (t Triangle) MaxEdgeSqr() float32 {
	ab := t.B.Sub(t.A).LenSqr()
	ac := t.C.Sub(t.A).LenSqr()
	bc := t.C.Sub(t.B).LenSqr()
	return math32.Max(ab, math32.Max(ac, bc))
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// NewAABB builds a box from two corners, swapping coordinates so that
// Min <= Max on every axis.
func NewAABB(a, b mgl32.Vec3) AABB {
	box := AABB{Min: a, Max: b}
	for i := 0; i < 3; i++ {
		if box.Min[i] > box.Max[i] {
			box.Min[i], box.Max[i] = box.Max[i], box.Min[i]
		}
	}
	return box
}

// ExtendPoint grows the box to include p.
func (b AABB) ExtendPoint(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	return b.ExtendPoint(o.Min).ExtendPoint(o.Max)
}

// ContainsAABB reports whether o lies entirely inside b.
func (b AABB) ContainsAABB(o AABB) bool {
	for i := 0; i < 3; i++ {
		if o.Min[i] < b.Min[i] || o.Max[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the box on each axis.
func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Inflate grows the box by d on every side.
func (b AABB) Inflate(d float32) AABB {
	v := mgl32.Vec3{d, d, d}
	return AABB{Min: b.Min.Sub(v), Max: b.Max.Add(v)}
}

// IntersectsSphere reports whether the box and sphere overlap.
func (b AABB) IntersectsSphere(s Sphere) bool {
	var d float32
	for i := 0; i < 3; i++ {
		if s.Center[i] < b.Min[i] {
			e := b.Min[i] - s.Center[i]
			d += e * e
		} else if s.Center[i] > b.Max[i] {
			e := s.Center[i] - b.Max[i]
			d += e * e
		}
	}
	return d <= s.Radius*s.Radius
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b mgl32.Vec3) mgl32.Vec3 {
	return a.Add(b).Mul(0.5)
}

// ColinearUnit reports whether two unit vectors are parallel or
// anti-parallel within tolerance.
func ColinearUnit(a, b mgl32.Vec3) bool {
	return math32.Abs(a.Dot(b)) >= 1.0-Epsilon
}
