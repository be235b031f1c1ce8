// Package mesh implements an index-based triangle mesh store with
// free-list slot reuse, adjacency queries and derived per-vertex
// quantities (valence, normals, Laplacian input). Vertices and faces are
// referenced by stable integer indices; deleted entities are marked free
// and their slots reused by later insertions.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dynamesh/pkg/geom"
)

// FaceIndex is the spatial-index contract the mesh keeps current. An
// attached index receives every live face triangle and is notified on
// face deletion and realignment.
type FaceIndex interface {
	InsertFace(id int, tri geom.Triangle)
	RemoveFace(id int)
	UpdateFace(id int, tri geom.Triangle)
	SearchSphere(s geom.Sphere) []int
}

// Mesh owns vertices, faces and adjacency. All mutation happens on one
// logical thread of execution; the store is not safe for concurrent use.
type Mesh struct {
	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	adjacent  [][]int // live face indices around each vertex
	vertFree  []bool
	freeVerts []int

	faces    [][3]int
	faceFree []bool
	freeFaces []int

	liveVerts int
	liveFaces int

	index FaceIndex
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// Attach connects a spatial index and populates it with all live faces.
func (m *Mesh) Attach(ix FaceIndex) {
	m.index = ix
	if ix == nil {
		return
	}
	for f := range m.faces {
		if !m.faceFree[f] {
			ix.InsertFace(f, m.FaceTriangle(f))
		}
	}
}

// AddVertex allocates a vertex, reusing a freed slot if available, and
// returns its stable index.
func (m *Mesh) AddVertex(position, normal mgl32.Vec3) int {
	m.liveVerts++
	if n := len(m.freeVerts); n > 0 {
		i := m.freeVerts[n-1]
		m.freeVerts = m.freeVerts[:n-1]
		m.positions[i] = position
		m.normals[i] = normal
		m.adjacent[i] = m.adjacent[i][:0]
		m.vertFree[i] = false
		return i
	}
	m.positions = append(m.positions, position)
	m.normals = append(m.normals, normal)
	m.adjacent = append(m.adjacent, nil)
	m.vertFree = append(m.vertFree, false)
	return len(m.positions) - 1
}

// AddFace allocates a face over three distinct live vertices and updates
// adjacency. Invalid indices are a caller bug and panic.
func (m *Mesh) AddFace(i1, i2, i3 int) int {
	if i1 == i2 || i1 == i3 || i2 == i3 {
		panic(fmt.Sprintf("mesh: AddFace with duplicate vertices (%d,%d,%d)", i1, i2, i3))
	}
	m.mustLiveVertex(i1)
	m.mustLiveVertex(i2)
	m.mustLiveVertex(i3)

	m.liveFaces++
	var f int
	if n := len(m.freeFaces); n > 0 {
		f = m.freeFaces[n-1]
		m.freeFaces = m.freeFaces[:n-1]
		m.faces[f] = [3]int{i1, i2, i3}
		m.faceFree[f] = false
	} else {
		m.faces = append(m.faces, [3]int{i1, i2, i3})
		m.faceFree = append(m.faceFree, false)
		f = len(m.faces) - 1
	}
	m.adjacent[i1] = append(m.adjacent[i1], f)
	m.adjacent[i2] = append(m.adjacent[i2], f)
	m.adjacent[i3] = append(m.adjacent[i3], f)

	if m.index != nil {
		m.index.InsertFace(f, m.FaceTriangle(f))
	}
	return f
}

// DeleteFace marks a face free and detaches it from adjacency. The slot
// is reused by a later AddFace; other indices are untouched.
func (m *Mesh) DeleteFace(f int) {
	m.mustLiveFace(f)
	for _, v := range m.faces[f] {
		m.removeAdjacent(v, f)
	}
	m.faceFree[f] = true
	m.freeFaces = append(m.freeFaces, f)
	m.liveFaces--

	if m.index != nil {
		m.index.RemoveFace(f)
	}
}

// DeleteVertex marks a vertex free. The vertex must have no remaining
// adjacent faces.
func (m *Mesh) DeleteVertex(v int) {
	m.mustLiveVertex(v)
	if len(m.adjacent[v]) != 0 {
		panic(fmt.Sprintf("mesh: DeleteVertex(%d) with %d adjacent faces", v, len(m.adjacent[v])))
	}
	m.vertFree[v] = true
	m.freeVerts = append(m.freeVerts, v)
	m.liveVerts--
}

func (m *Mesh) removeAdjacent(v, f int) {
	adj := m.adjacent[v]
	for i, a := range adj {
		if a == f {
			adj[i] = adj[len(adj)-1]
			m.adjacent[v] = adj[:len(adj)-1]
			return
		}
	}
	panic(fmt.Sprintf("mesh: face %d not adjacent to vertex %d", f, v))
}

// VertexIndices returns the three vertex indices of a face in winding
// order.
func (m *Mesh) VertexIndices(f int) (int, int, int) {
	m.mustLiveFace(f)
	fc := m.faces[f]
	return fc[0], fc[1], fc[2]
}

// AdjacentFaces returns the live faces referencing the vertex. The
// returned slice is owned by the mesh; callers must not retain it across
// mutations.
func (m *Mesh) AdjacentFaces(v int) []int {
	m.mustLiveVertex(v)
	return m.adjacent[v]
}

// Valence returns the number of faces adjacent to the vertex.
func (m *Mesh) Valence(v int) int {
	m.mustLiveVertex(v)
	return len(m.adjacent[v])
}

// Vertex returns the position of a vertex.
func (m *Mesh) Vertex(v int) mgl32.Vec3 {
	m.mustLiveVertex(v)
	return m.positions[v]
}

// SetVertex overwrites a vertex position. Normals are not recomputed;
// callers run Finalize-style passes after a mutation sequence.
func (m *Mesh) SetVertex(v int, p mgl32.Vec3) {
	m.mustLiveVertex(v)
	m.positions[v] = p
}

// VertexNormal returns the cached vertex normal.
func (m *Mesh) VertexNormal(v int) mgl32.Vec3 {
	m.mustLiveVertex(v)
	return m.normals[v]
}

// SetNormal overwrites the cached normal directly.
func (m *Mesh) SetNormal(v int, n mgl32.Vec3) {
	m.mustLiveVertex(v)
	m.normals[v] = n
}

// SetVertexNormal recomputes the vertex normal as the area-weighted
// average of adjacent face normals. Degenerate faces contribute nothing;
// if every adjacent face is degenerate the cached normal is kept.
func (m *Mesh) SetVertexNormal(v int) {
	m.mustLiveVertex(v)
	var sum mgl32.Vec3
	for _, f := range m.adjacent[v] {
		fc := m.faces[f]
		a := m.positions[fc[0]]
		// Unnormalized cross product weights by face area.
		n := m.positions[fc[1]].Sub(a).Cross(m.positions[fc[2]].Sub(a))
		sum = sum.Add(n)
	}
	if sum.LenSqr() > geom.Epsilon*geom.Epsilon {
		m.normals[v] = sum.Normalize()
	}
}

// AveragePosition returns the mean of the positions of all distinct
// vertices adjacent to v: the uniform Laplacian input.
func (m *Mesh) AveragePosition(v int) mgl32.Vec3 {
	m.mustLiveVertex(v)

	var neighbors []int
	for _, f := range m.adjacent[v] {
		for _, i := range m.faces[f] {
			if i == v {
				continue
			}
			seen := false
			for _, n := range neighbors {
				if n == i {
					seen = true
					break
				}
			}
			if !seen {
				neighbors = append(neighbors, i)
			}
		}
	}
	if len(neighbors) == 0 {
		return m.positions[v]
	}
	var sum mgl32.Vec3
	for _, n := range neighbors {
		sum = sum.Add(m.positions[n])
	}
	return sum.Mul(1.0 / float32(len(neighbors)))
}

// IsFreeVertex reports whether the vertex slot is free.
func (m *Mesh) IsFreeVertex(v int) bool {
	return v < 0 || v >= len(m.positions) || m.vertFree[v]
}

// IsFreeFace reports whether the face slot is free.
func (m *Mesh) IsFreeFace(f int) bool {
	return f < 0 || f >= len(m.faces) || m.faceFree[f]
}

// IsEmpty reports whether the mesh has no live faces.
func (m *Mesh) IsEmpty() bool {
	return m.liveFaces == 0
}

// VertexCount returns the number of live vertices.
func (m *Mesh) VertexCount() int {
	return m.liveVerts
}

// FaceCount returns the number of live faces.
func (m *Mesh) FaceCount() int {
	return m.liveFaces
}

// Reset restores the canonical empty state, keeping the attached index
// (which the caller resets separately).
func (m *Mesh) Reset() {
	m.positions = nil
	m.normals = nil
	m.adjacent = nil
	m.vertFree = nil
	m.freeVerts = nil
	m.faces = nil
	m.faceFree = nil
	m.freeFaces = nil
	m.liveVerts = 0
	m.liveFaces = 0
}

// FaceTriangle returns the face as a geometric triangle.
func (m *Mesh) FaceTriangle(f int) geom.Triangle {
	m.mustLiveFace(f)
	fc := m.faces[f]
	return geom.Triangle{A: m.positions[fc[0]], B: m.positions[fc[1]], C: m.positions[fc[2]]}
}

// RealignFace pushes the current face geometry into the attached spatial
// index after its vertices moved.
func (m *Mesh) RealignFace(f int) {
	m.mustLiveFace(f)
	if m.index != nil {
		m.index.UpdateFace(f, m.FaceTriangle(f))
	}
}

// FacesIntersectingSphere returns the live faces overlapping the sphere,
// via the attached index when present, otherwise by a full scan.
func (m *Mesh) FacesIntersectingSphere(s geom.Sphere) []int {
	if m.index != nil {
		return m.index.SearchSphere(s)
	}
	var out []int
	for f := range m.faces {
		if !m.faceFree[f] && geom.SphereTriangle(s, m.FaceTriangle(f)) {
			out = append(out, f)
		}
	}
	return out
}

// ForEachVertex calls fn once per distinct vertex referenced by the
// committed face set. Freed faces in the set are skipped.
func (m *Mesh) ForEachVertex(faces *DynamicFaces, fn func(v int)) {
	visited := make(map[int]struct{})
	faces.ForEach(func(f int) {
		if m.IsFreeFace(f) {
			return
		}
		for _, v := range m.faces[f] {
			if _, ok := visited[v]; !ok {
				visited[v] = struct{}{}
				fn(v)
			}
		}
	})
}

// ForEachFace calls fn for every live face committed in the set at call
// time. The snapshot makes it safe for fn to mutate the mesh and the set.
func (m *Mesh) ForEachFace(faces *DynamicFaces, fn func(f int)) {
	for _, f := range faces.Indices() {
		if !m.IsFreeFace(f) {
			fn(f)
		}
	}
}

// ForEachFaceAll calls fn for every live face.
func (m *Mesh) ForEachFaceAll(fn func(f int)) {
	for f := range m.faces {
		if !m.faceFree[f] {
			fn(f)
		}
	}
}

// AverageEdgeLengthSqr returns the mean squared edge length over all
// edges of the committed face set. Shared edges count once per face,
// which leaves the mean unbiased on uniform meshes.
func (m *Mesh) AverageEdgeLengthSqr(faces *DynamicFaces) float32 {
	var sum float32
	var n int
	faces.ForEach(func(f int) {
		if m.IsFreeFace(f) {
			return
		}
		fc := m.faces[f]
		p1, p2, p3 := m.positions[fc[0]], m.positions[fc[1]], m.positions[fc[2]]
		sum += p1.Sub(p2).LenSqr() + p1.Sub(p3).LenSqr() + p2.Sub(p3).LenSqr()
		n += 3
	})
	if n == 0 {
		return 0
	}
	return sum / float32(n)
}

func (m *Mesh) mustLiveVertex(v int) {
	if m.IsFreeVertex(v) {
		panic(fmt.Sprintf("mesh: invalid vertex index %d", v))
	}
}

func (m *Mesh) mustLiveFace(f int) {
	if m.IsFreeFace(f) {
		panic(fmt.Sprintf("mesh: invalid face index %d", f))
	}
}

// Check verifies topological consistency: faces reference distinct live
// vertices, adjacency is symmetric, and every edge borders exactly two
// faces (the closed-manifold assumption the operators rely on).
func (m *Mesh) Check() error {
	edges := make(map[EdgeKey]int)
	for f := range m.faces {
		if m.faceFree[f] {
			continue
		}
		fc := m.faces[f]
		if fc[0] == fc[1] || fc[0] == fc[2] || fc[1] == fc[2] {
			return fmt.Errorf("face %d has duplicate vertices %v", f, fc)
		}
		for _, v := range fc {
			if m.IsFreeVertex(v) {
				return fmt.Errorf("face %d references free vertex %d", f, v)
			}
			found := 0
			for _, a := range m.adjacent[v] {
				if a == f {
					found++
				}
			}
			if found != 1 {
				return fmt.Errorf("face %d appears %d times in adjacency of vertex %d", f, found, v)
			}
		}
		it := m.FaceEdges(f)
		for {
			i1, i2, ok := it.Next()
			if !ok {
				break
			}
			edges[MakeEdgeKey(i1, i2)]++
		}
	}
	for e, n := range edges {
		if n != 2 {
			return fmt.Errorf("edge (%d,%d) borders %d faces, want 2", e.A, e.B, n)
		}
	}
	for v := range m.positions {
		if m.vertFree[v] {
			continue
		}
		for _, f := range m.adjacent[v] {
			if m.IsFreeFace(f) {
				return fmt.Errorf("vertex %d adjacent to free face %d", v, f)
			}
		}
	}
	return nil
}
