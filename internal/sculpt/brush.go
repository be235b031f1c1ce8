// Package sculpt implements localized remeshing operators (domain
// extension, adaptive edge splitting, edge relaxation, tangential
// smoothing, edge collapse) and the carve displacement engine over a
// mesh.Mesh, orchestrated per brush stroke.
package sculpt

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dynamesh/internal/mesh"
	"github.com/Faultbox/dynamesh/pkg/geom"
)

// minEdgeLength is the floor under which edges are considered degenerate
// and collapsed away.
const minEdgeLength float32 = 0.001

// Params are the per-stroke brush parameters.
type Params struct {
	// Radius of the spherical brush footprint.
	Radius float32
	// Intensity scales the reduce-mode collapse threshold.
	Intensity float32
	// SubdivRatio scales Radius into the edge-length threshold driving
	// adaptive subdivision.
	SubdivRatio float32
	// Reduce switches the stroke to decimation instead of refinement.
	Reduce bool
}

// DefaultParams returns brush parameters that behave well on meshes with
// unit-scale features.
func DefaultParams(radius float32) Params {
	return Params{
		Radius:      radius,
		Intensity:   1.0,
		SubdivRatio: 0.35,
	}
}

// Falloff maps a distance from the brush center to a displacement
// magnitude: Height at distance zero, fading smoothly to zero at Radius.
// It is a pure function carrying no per-stroke state.
type Falloff struct {
	Radius   float32
	Height   float32
	Exponent float32
}

// At evaluates the falloff at distance d.
func (f Falloff) At(d float32) float32 {
	if d >= f.Radius || f.Radius <= 0 {
		return 0
	}
	x := d / f.Radius
	return f.Height * math32.Pow(1-x*x, f.Exponent)
}

// Brush is one sculpting stroke application: a footprint over a mesh
// plus the geometric effect to run after the remeshing passes.
type Brush struct {
	Mesh     *mesh.Mesh
	Params   Params
	Position mgl32.Vec3

	// Effect applies the brush-specific geometric effect to the faces
	// the stroke affected. May be nil for pure remeshing strokes.
	Effect func(b *Brush, faces *mesh.DynamicFaces)
}

// Sphere returns the brush footprint.
func (b *Brush) Sphere() geom.Sphere {
	return geom.Sphere{Center: b.Position, Radius: b.Params.Radius}
}

// SubdivThreshold returns the edge length above which edges inside the
// footprint are split.
func (b *Brush) SubdivThreshold() float32 {
	return b.Params.Radius * b.Params.SubdivRatio
}

// AffectedFaces returns a committed working set of the faces the brush
// footprint currently overlaps.
func (b *Brush) AffectedFaces() *mesh.DynamicFaces {
	faces := mesh.NewDynamicFaces()
	faces.InsertSlice(b.Mesh.FacesIntersectingSphere(b.Sphere()))
	faces.Commit()
	return faces
}

func (b *Brush) sculptFaces(faces *mesh.DynamicFaces) {
	if b.Effect != nil {
		b.Effect(b, faces)
	}
}

// DisplaceEffect returns a brush effect that moves every vertex of the
// affected faces along its normal by the falloff of its distance to the
// brush center. New positions are staged before any write.
func DisplaceEffect(f Falloff) func(*Brush, *mesh.DynamicFaces) {
	return func(b *Brush, faces *mesh.DynamicFaces) {
		m := b.Mesh
		moved := make(map[int]mgl32.Vec3)
		m.ForEachVertex(faces, func(v int) {
			p := m.Vertex(v)
			d := f.At(p.Sub(b.Position).Len())
			if d > 0 {
				moved[v] = p.Add(m.VertexNormal(v).Mul(d))
			}
		})
		for v, p := range moved {
			m.SetVertex(v, p)
		}
	}
}
