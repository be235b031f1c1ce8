package sculpt

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/dynamesh/internal/action"
	"github.com/Faultbox/dynamesh/internal/logger"
	"github.com/Faultbox/dynamesh/internal/mesh"
	"github.com/Faultbox/dynamesh/internal/spatial"
	"github.com/Faultbox/dynamesh/pkg/geom"
)

// VertexData is the per-vertex carve state of one stroke: the surface
// snapshot taken before the vertex was first touched and the largest
// displacement applied along its snapshot normal so far.
type VertexData struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3

	delta  float32
	carved bool
}

// Delta returns the accumulated displacement of this stroke.
func (v *VertexData) Delta() float32 {
	return v.delta
}

// WasCarved reports whether any dab of the stroke moved the vertex.
func (v *VertexData) WasCarved() bool {
	return v.carved
}

func (v *VertexData) setDelta(d float32) {
	v.delta = d
	v.carved = true
}

// CarveCache keeps the pre-stroke surface alive while carving: vertex
// snapshots feeding the displacement math, and an octree over the
// snapshot triangles so pointer rays can be intersected against the
// surface the stroke started on rather than the half-carved one.
type CarveCache struct {
	vertices map[int]*VertexData
	faces    *spatial.Octree
}

// NewCarveCache returns an empty cache.
func NewCarveCache() *CarveCache {
	return &CarveCache{
		vertices: make(map[int]*VertexData),
		faces:    spatial.New(),
	}
}

// cacheVertex returns the stroke state of a vertex, snapshotting its
// current position and normal on first sight. An uncarved snapshot is
// refreshed, so vertices created mid-stroke pick up their real surface
// position instead of a stale one.
func (c *CarveCache) cacheVertex(m *mesh.Mesh, v int) *VertexData {
	vd, ok := c.vertices[v]
	if !ok {
		vd = &VertexData{Position: m.Vertex(v), Normal: m.VertexNormal(v)}
		c.vertices[v] = vd
		return vd
	}
	if !vd.carved {
		vd.Position = m.Vertex(v)
		vd.Normal = m.VertexNormal(v)
	}
	return vd
}

// cacheFace indexes the snapshot triangle of a face once per stroke.
func (c *CarveCache) cacheFace(m *mesh.Mesh, f int) {
	if c.faces.HasFace(f) {
		return
	}
	i1, i2, i3 := m.VertexIndices(f)
	c.faces.InsertFace(f, geom.Triangle{
		A: c.cacheVertex(m, i1).Position,
		B: c.cacheVertex(m, i2).Position,
		C: c.cacheVertex(m, i3).Position,
	})
}

// IntersectRay intersects a ray with the cached pre-stroke surface.
func (c *CarveCache) IntersectRay(r geom.Ray) (spatial.Hit, bool) {
	return c.faces.IntersectRay(r)
}

// Len returns the number of cached vertices.
func (c *CarveCache) Len() int {
	return len(c.vertices)
}

// Reset clears the cache for the next stroke.
func (c *CarveCache) Reset() {
	clear(c.vertices)
	c.faces.Reset()
}

// CarveBrush parameterizes one carve stroke.
type CarveBrush struct {
	// Radius of the dab footprint.
	Radius float32
	// Falloff maps distance from the dab center to displacement height.
	Falloff Falloff
	// SubdivEdgeLength is the edge length the carved region is refined
	// to before displacing, measured on projected post-carve geometry.
	SubdivEdgeLength float32
}

// NewCarveBrush returns a carve brush with displacement height and
// refinement density proportional to the radius.
func NewCarveBrush(radius float32) CarveBrush {
	return CarveBrush{
		Radius:           radius,
		Falloff:          Falloff{Radius: radius, Height: 0.1 * radius, Exponent: 2},
		SubdivEdgeLength: 0.3 * radius,
	}
}

// Carve applies one dab of a carve stroke at center: the affected region
// is refined until projected post-carve edges are short enough, the
// pre-stroke surface is cached for picking, and every vertex in range is
// displaced along its snapshot normal by the falloff of its snapshot
// distance. Displacements accumulate monotonically per stroke, so
// overlapping dabs never pull the surface back. Every position and
// normal write is recorded into rec.
func Carve(m *mesh.Mesh, center mgl32.Vec3, brush CarveBrush, rec *action.Recorder, cache *CarveCache) {
	sphere := geom.Sphere{Center: center, Radius: brush.Radius}
	faces := mesh.NewDynamicFaces()
	faces.InsertSlice(m.FacesIntersectingSphere(sphere))
	faces.Commit()
	if faces.Len() == 0 {
		return
	}

	subdivideCarvedFaces(m, center, brush, faces, cache)
	m.ForEachFace(faces, func(f int) {
		cache.cacheFace(m, f)
	})
	carveFaces(m, center, brush, faces, rec, cache)

	logger.Debug("carve dab",
		zap.Int("faces", faces.Len()),
		zap.Int("cached", cache.Len()))
}

// carvedPosition projects where a vertex will sit after this dab,
// judged from its snapshot so half-applied displacement does not skew
// the estimate.
func carvedPosition(m *mesh.Mesh, center mgl32.Vec3, brush CarveBrush, cache *CarveCache, v int) mgl32.Vec3 {
	vd := cache.cacheVertex(m, v)
	return vd.Position.Add(vd.Normal.Mul(brush.Falloff.At(vd.Position.Sub(center).Len())))
}

// subdivideCarvedFaces refines the dab region until no projected
// post-carve edge exceeds the brush's subdivision length. Each round
// splits the long edges of the current candidates, retriangulates, and
// keeps only new faces still overlapping the dab sphere as the next
// round's candidates. Every face the refinement touches is recorded in
// the stroke's working set.
func subdivideCarvedFaces(m *mesh.Mesh, center mgl32.Vec3, brush CarveBrush, faces *mesh.DynamicFaces, cache *CarveCache) {
	maxSqr := brush.SubdivEdgeLength * brush.SubdivEdgeLength
	if maxSqr <= 4*minEdgeLength*minEdgeLength {
		return
	}
	sphere := geom.Sphere{Center: center, Radius: brush.Radius}

	sv := NewSplitVertices()
	current := mesh.NewDynamicFaces()
	current.InsertSlice(faces.Indices())
	current.Commit()

	for current.Len() > 0 {
		sv.Reset()
		SplitEdgesWhere(m, sv, func(i1, i2 int) bool {
			p1 := carvedPosition(m, center, brush, cache, i1)
			p2 := carvedPosition(m, center, brush, cache, i2)
			return p1.Sub(p2).LenSqr() > maxSqr
		}, current)
		if sv.Empty() {
			break
		}
		Triangulate(m, sv, current)

		next := mesh.NewDynamicFaces()
		current.ForEach(func(f int) {
			if m.IsFreeFace(f) {
				return
			}
			if !faces.Contains(f) {
				faces.Insert(f)
			}
			if geom.SphereTriangle(sphere, m.FaceTriangle(f)) {
				next.Insert(f)
			}
		})
		next.Commit()
		current = next
	}
	faces.Commit()
}

// carveFaces displaces the vertices of the affected faces. Deltas are
// computed against the snapshots first, then positions are written, then
// normals, then the spatial index realigned, so no partially carved
// state feeds the math.
func carveFaces(m *mesh.Mesh, center mgl32.Vec3, brush CarveBrush, faces *mesh.DynamicFaces, rec *action.Recorder, cache *CarveCache) {
	type move struct {
		vertex   int
		from, to mgl32.Vec3
		delta    float32
		data     *VertexData
	}
	var moves []move

	// Every touched vertex is frozen into the cache, delta zero
	// included, so later dabs displace along the stroke's original
	// normals instead of drifting ones.
	m.ForEachVertex(faces, func(v int) {
		vd := cache.cacheVertex(m, v)
		d := math32.Max(vd.Delta(), brush.Falloff.At(vd.Position.Sub(center).Len()))
		moves = append(moves, move{
			vertex: v,
			from:   m.Vertex(v),
			to:     vd.Position.Add(vd.Normal.Mul(d)),
			delta:  d,
			data:   vd,
		})
	})

	for _, mv := range moves {
		mv.data.setDelta(mv.delta)
		if mv.to != mv.from {
			rec.Add(action.MoveVertex{Index: mv.vertex, From: mv.from, To: mv.to})
			m.SetVertex(mv.vertex, mv.to)
		}
	}
	m.ForEachVertex(faces, func(v int) {
		old := m.VertexNormal(v)
		m.SetVertexNormal(v)
		if now := m.VertexNormal(v); now != old {
			rec.Add(action.SetNormal{Index: v, From: old, To: now})
		}
	})
	faces.ForEach(func(f int) {
		if !m.IsFreeFace(f) {
			m.RealignFace(f)
		}
	})
}
