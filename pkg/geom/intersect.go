package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// RayAABB tests the ray against a box using the slab method. It returns
// the entry distance, or the exit distance if the ray starts inside.
func RayAABB(r Ray, box AABB) (t float32, hit bool) {
	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)

	for i := 0; i < 3; i++ {
		if r.Direction[i] != 0 {
			t1 := (box.Min[i] - r.Origin[i]) / r.Direction[i]
			t2 := (box.Max[i] - r.Origin[i]) / r.Direction[i]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
		} else if r.Origin[i] < box.Min[i] || r.Origin[i] > box.Max[i] {
			return 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// RayTriangle intersects a ray with a triangle (Moeller-Trumbore).
// Both triangle sides are hit; backface hits are not culled.
func RayTriangle(r Ray, tri Triangle) (t float32, hit bool) {
	e1 := tri.B.Sub(tri.A)
	e2 := tri.C.Sub(tri.A)

	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < Epsilon {
		return 0, false
	}
	inv := 1.0 / det

	s := r.Origin.Sub(tri.A)
	u := s.Dot(p) * inv
	if u < -Epsilon || u > 1+Epsilon {
		return 0, false
	}

	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < -Epsilon || u+v > 1+Epsilon {
		return 0, false
	}

	t = e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// ClosestPointTriangle returns the point of the triangle closest to p.
func ClosestPointTriangle(p mgl32.Vec3, tri Triangle) mgl32.Vec3 {
	ab := tri.B.Sub(tri.A)
	ac := tri.C.Sub(tri.A)
	ap := p.Sub(tri.A)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return tri.A
	}

	bp := p.Sub(tri.B)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return tri.B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return tri.A.Add(ab.Mul(v))
	}

	cp := p.Sub(tri.C)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return tri.C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return tri.A.Add(ac.Mul(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return tri.B.Add(tri.C.Sub(tri.B).Mul(w))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return tri.A.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// SphereTriangle reports whether the sphere and triangle overlap.
func SphereTriangle(s Sphere, tri Triangle) bool {
	closest := ClosestPointTriangle(s.Center, tri)
	return closest.Sub(s.Center).LenSqr() <= s.Radius*s.Radius
}
