package sculpt

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/dynamesh/internal/logger"
	"github.com/Faultbox/dynamesh/internal/mesh"
	"github.com/Faultbox/dynamesh/pkg/geom"
)

// SplitVertices records the vertices created on split edges during one
// refinement pass, keyed by canonical edge.
type SplitVertices struct {
	byEdge map[mesh.EdgeKey]int
}

// NewSplitVertices returns an empty record.
func NewSplitVertices() *SplitVertices {
	return &SplitVertices{byEdge: make(map[mesh.EdgeKey]int)}
}

func (s *SplitVertices) find(i1, i2 int) (int, bool) {
	v, ok := s.byEdge[mesh.MakeEdgeKey(i1, i2)]
	return v, ok
}

func (s *SplitVertices) has(i1, i2 int) bool {
	_, ok := s.find(i1, i2)
	return ok
}

func (s *SplitVertices) insert(i1, i2, v int) {
	key := mesh.MakeEdgeKey(i1, i2)
	if _, ok := s.byEdge[key]; ok {
		panic(fmt.Sprintf("sculpt: edge (%d,%d) split twice", i1, i2))
	}
	s.byEdge[key] = v
}

// Empty reports whether the pass split any edge.
func (s *SplitVertices) Empty() bool {
	return len(s.byEdge) == 0
}

// Len returns the number of split edges.
func (s *SplitVertices) Len() int {
	return len(s.byEdge)
}

// Reset clears the record for the next pass.
func (s *SplitVertices) Reset() {
	clear(s.byEdge)
}

// faceChanges batches face deletions and insertions so that a
// retriangulation applies all deletions before any insertion, letting
// freed face slots be reused by the new triangles.
type faceChanges struct {
	vertices []int // flattened index triples
	deleted  map[int]struct{}
}

func newFaceChanges() *faceChanges {
	return &faceChanges{deleted: make(map[int]struct{})}
}

func (c *faceChanges) addFace(i1, i2, i3 int) {
	c.vertices = append(c.vertices, i1, i2, i3)
}

func (c *faceChanges) deleteFace(f int) {
	c.deleted[f] = struct{}{}
}

// apply mutates the mesh and stages every surviving new face index into
// the working set. Faces reusing a freed slot that already belongs to
// the set simply stay members.
func (c *faceChanges) apply(m *mesh.Mesh, faces *mesh.DynamicFaces) {
	for f := range c.deleted {
		m.DeleteFace(f)
	}
	if m.IsEmpty() && len(c.vertices) == 0 {
		return
	}
	for i := 0; i+2 < len(c.vertices); i += 3 {
		f := m.AddFace(c.vertices[i], c.vertices[i+1], c.vertices[i+2])
		if !faces.Contains(f) {
			faces.Insert(f)
		}
	}
}

// edgeAdjacency names the two faces flanking an undirected edge (e1,e2):
// left is the face that traverses e1->e2 in winding order, right the one
// traversing e2->e1. The vertices are the respective third corners.
type edgeAdjacency struct {
	leftFace, leftVertex   int
	rightFace, rightVertex int
}

// findAdjacent resolves the edge adjacency. Both sides must exist; a
// boundary or non-manifold edge is a broken precondition and panics.
func findAdjacent(m *mesh.Mesh, e1, e2 int) edgeAdjacency {
	adj := edgeAdjacency{leftFace: -1, leftVertex: -1, rightFace: -1, rightVertex: -1}

	for _, a := range m.AdjacentFaces(e1) {
		i1, i2, i3 := m.VertexIndices(a)
		switch {
		case e1 == i1 && e2 == i2:
			adj.leftFace, adj.leftVertex = a, i3
		case e1 == i2 && e2 == i1:
			adj.rightFace, adj.rightVertex = a, i3
		case e1 == i2 && e2 == i3:
			adj.leftFace, adj.leftVertex = a, i1
		case e1 == i3 && e2 == i2:
			adj.rightFace, adj.rightVertex = a, i1
		case e1 == i3 && e2 == i1:
			adj.leftFace, adj.leftVertex = a, i2
		case e1 == i1 && e2 == i3:
			adj.rightFace, adj.rightVertex = a, i2
		}
	}
	if adj.leftFace < 0 || adj.rightFace < 0 {
		panic(fmt.Sprintf("sculpt: edge (%d,%d) is not an interior manifold edge", e1, e2))
	}
	return adj
}

func mustCommitted(faces *mesh.DynamicFaces) {
	if faces.HasUncommitted() {
		panic("sculpt: working set has uncommitted members")
	}
}

// ExtendAndFilterDomain drops faces outside the brush sphere and grows
// the set by numRings rings, seeding the frontier from faces on the
// sphere boundary. Faces fully inside the sphere stay members but do not
// propagate.
func ExtendAndFilterDomain(b *Brush, faces *mesh.DynamicFaces, numRings int) {
	mustCommitted(faces)
	m := b.Mesh
	sphere := b.Sphere()

	frontier := make(map[int]struct{})
	faces.Filter(func(f int) bool {
		tri := m.FaceTriangle(f)
		if !geom.SphereTriangle(sphere, tri) {
			return false
		}
		if !sphere.ContainsTriangle(tri) {
			frontier[f] = struct{}{}
		}
		return true
	})

	for ring := 0; ring < numRings; ring++ {
		extended := make(map[int]struct{})
		for f := range frontier {
			i1, i2, i3 := m.VertexIndices(f)
			for _, v := range [3]int{i1, i2, i3} {
				for _, a := range m.AdjacentFaces(v) {
					if faces.Contains(a) {
						continue
					}
					if _, ok := frontier[a]; ok {
						continue
					}
					faces.Insert(a)
					extended[a] = struct{}{}
				}
			}
		}
		faces.Commit()
		frontier = extended
	}
}

// ExtendDomain unconditionally grows the face set by numRings rings,
// committing each ring atomically.
func ExtendDomain(m *mesh.Mesh, faces *mesh.DynamicFaces, numRings int) {
	mustCommitted(faces)

	for ring := 0; ring < numRings; ring++ {
		faces.ForEach(func(f int) {
			if m.IsFreeFace(f) {
				return
			}
			i1, i2, i3 := m.VertexIndices(f)
			for _, v := range [3]int{i1, i2, i3} {
				for _, a := range m.AdjacentFaces(v) {
					if !faces.Contains(a) {
						faces.Insert(a)
					}
				}
			}
		})
		faces.Commit()
	}
}

// ExtendDomainByPoles includes all faces around any pole vertex
// (valence > 6) of the set; poles need wider smoothing support.
func ExtendDomainByPoles(m *mesh.Mesh, faces *mesh.DynamicFaces) {
	mustCommitted(faces)

	m.ForEachVertex(faces, func(v int) {
		if m.Valence(v) > 6 {
			for _, a := range m.AdjacentFaces(v) {
				if !faces.Contains(a) {
					faces.Insert(a)
				}
			}
		}
	})
	faces.Commit()
}

// splitPosition places a vertex on the edge (i1,i2) by normal-based
// bisection: the geometric midpoint when the endpoint normals are
// colinear, otherwise a quadratic blend through the intersection point
// of the two tangent planes and the plane spanned by both normals.
func splitPosition(m *mesh.Mesh, i1, i2 int) mgl32.Vec3 {
	p1 := m.Vertex(i1)
	n1 := m.VertexNormal(i1)
	p2 := m.Vertex(i2)
	n2 := m.VertexNormal(i2)

	if geom.ColinearUnit(n1, n2) {
		return geom.Midpoint(p1, p2)
	}
	n3 := n1.Cross(n2).Normalize()
	d1 := p1.Dot(n1)
	d2 := p2.Dot(n2)
	d3 := p1.Dot(n3)
	p3 := n2.Cross(n3).Mul(d1).
		Add(n3.Cross(n1).Mul(d2)).
		Add(n1.Cross(n2).Mul(d3)).
		Mul(1.0 / n1.Dot(n2.Cross(n3)))

	return p1.Mul(0.25).Add(p3.Mul(0.5)).Add(p2.Mul(0.25))
}

// SplitEdges creates a vertex on every edge of the working set longer
// than maxLength, keyed by canonical edge. Only faces that had at least
// one edge split stay in the set, driving the outer refinement loop's
// fixed point.
func SplitEdges(m *mesh.Mesh, sv *SplitVertices, maxLength float32, faces *mesh.DynamicFaces) {
	SplitEdgesWhere(m, sv, func(i1, i2 int) bool {
		return m.Vertex(i1).Sub(m.Vertex(i2)).LenSqr() > maxLength*maxLength
	}, faces)
}

// SplitEdgesWhere is SplitEdges with a caller-supplied edge predicate,
// used by the carve engine to split against projected post-carve edge
// lengths instead of current ones.
func SplitEdgesWhere(m *mesh.Mesh, sv *SplitVertices, shouldSplit func(i1, i2 int) bool, faces *mesh.DynamicFaces) {
	mustCommitted(faces)

	split := func(i1, i2 int) bool {
		if !shouldSplit(i1, i2) {
			return false
		}
		normal := m.VertexNormal(i1).Add(m.VertexNormal(i2)).Normalize()
		i3 := m.AddVertex(splitPosition(m, i1, i2), normal)
		sv.insert(i1, i2, i3)
		return true
	}

	faces.Filter(func(f int) bool {
		wasSplit := false
		i1, i2, i3 := m.VertexIndices(f)

		if !sv.has(i1, i2) {
			wasSplit = split(i1, i2) || wasSplit
		}
		if !sv.has(i1, i3) {
			wasSplit = split(i1, i3) || wasSplit
		}
		if !sv.has(i2, i3) {
			wasSplit = split(i2, i3) || wasSplit
		}
		return wasSplit
	})
}

// Bitmask over a face's split edges, in vertex-index order.
const (
	splitEdge12 = 1 << iota
	splitEdge13
	splitEdge23
)

// Triangulate replaces each face carrying split-edge vertices with the
// matching retriangulation. With two split edges the diagonal is routed
// toward the lower-valence corner to limit valence skew; with three the
// canonical four-triangle subdivision applies. The scan covers the set
// plus the one-ring around it, since a split edge always borders a
// second face that may sit outside the set and must not keep the
// unsplit edge. Deletions run before insertions so freed slots are
// reused.
func Triangulate(m *mesh.Mesh, sv *SplitVertices, faces *mesh.DynamicFaces) {
	mustCommitted(faces)

	changes := newFaceChanges()

	visited := make(map[int]struct{})
	var visit []int
	add := func(f int) {
		if _, ok := visited[f]; !ok {
			visited[f] = struct{}{}
			visit = append(visit, f)
		}
	}
	for _, f := range faces.Indices() {
		if m.IsFreeFace(f) {
			continue
		}
		add(f)
		i1, i2, i3 := m.VertexIndices(f)
		for _, v := range [3]int{i1, i2, i3} {
			for _, a := range m.AdjacentFaces(v) {
				add(a)
			}
		}
	}

	for _, f := range visit {
		i1, i2, i3 := m.VertexIndices(f)

		v12, has12 := sv.find(i1, i2)
		v13, has13 := sv.find(i1, i3)
		v23, has23 := sv.find(i2, i3)

		val1 := m.Valence(i1)
		val2 := m.Valence(i2)
		val3 := m.Valence(i3)

		var mask int
		if has12 {
			mask |= splitEdge12
		}
		if has13 {
			mask |= splitEdge13
		}
		if has23 {
			mask |= splitEdge23
		}

		if mask != 0 {
			changes.deleteFace(f)
		}
		switch mask {
		case 0:
			// Untouched face.
		case splitEdge12:
			changes.addFace(i1, v12, i3)
			changes.addFace(i3, v12, i2)
		case splitEdge13:
			changes.addFace(i3, v13, i2)
			changes.addFace(i2, v13, i1)
		case splitEdge23:
			changes.addFace(i2, v23, i1)
			changes.addFace(i1, v23, i3)
		case splitEdge12 | splitEdge13:
			changes.addFace(v12, v13, i1)
			if val2 < val3 {
				changes.addFace(i2, i3, v13)
				changes.addFace(i2, v13, v12)
			} else {
				changes.addFace(i3, v12, i2)
				changes.addFace(i3, v13, v12)
			}
		case splitEdge12 | splitEdge23:
			changes.addFace(v23, v12, i2)
			if val1 < val3 {
				changes.addFace(i1, v23, i3)
				changes.addFace(i1, v12, v23)
			} else {
				changes.addFace(i3, i1, v12)
				changes.addFace(i3, v12, v23)
			}
		case splitEdge13 | splitEdge23:
			changes.addFace(v13, v23, i3)
			if val1 < val2 {
				changes.addFace(i1, i2, v23)
				changes.addFace(i1, v23, v13)
			} else {
				changes.addFace(i2, v13, i1)
				changes.addFace(i2, v23, v13)
			}
		case splitEdge12 | splitEdge13 | splitEdge23:
			changes.addFace(v12, v23, v13)
			changes.addFace(i1, v12, v13)
			changes.addFace(i2, v23, v12)
			changes.addFace(i3, v13, v23)
		default:
			panic("sculpt: unreachable split configuration")
		}
	}
	changes.apply(m, faces)
	faces.Commit()
}

// RelaxEdges flips edges incident to poles when the flip strictly
// reduces the summed valence deviation from 6 across the four involved
// vertices. Greedy single pass; flips observe earlier flips of the same
// pass.
func RelaxEdges(m *mesh.Mesh, faces *mesh.DynamicFaces) {
	mustCommitted(faces)

	isRelaxable := func(e mesh.EdgeKey, leftVertex, rightVertex int) bool {
		vE1 := m.Valence(e.A)
		vE2 := m.Valence(e.B)
		vL := m.Valence(leftVertex)
		vR := m.Valence(rightVertex)

		pre := absInt(vE1-6) + absInt(vE2-6) + absInt(vL-6) + absInt(vR-6)
		post := absInt(vE1-6-1) + absInt(vE2-6-1) + absInt(vL-6+1) + absInt(vR-6+1)

		return vE1 > 3 && vE2 > 3 && post < pre
	}

	edges := make(map[mesh.EdgeKey]struct{})
	m.ForEachVertex(faces, func(v int) {
		if m.Valence(v) <= 6 {
			return
		}
		for _, a := range m.AdjacentFaces(v) {
			i1, i2, i3 := m.VertexIndices(a)
			for _, other := range [3]int{i1, i2, i3} {
				if other != v {
					edges[mesh.MakeEdgeKey(v, other)] = struct{}{}
				}
			}
		}
	})

	flips := 0
	for e := range edges {
		adj := findAdjacent(m, e.A, e.B)
		if !isRelaxable(e, adj.leftVertex, adj.rightVertex) {
			continue
		}
		m.DeleteFace(adj.leftFace)
		m.DeleteFace(adj.rightFace)
		m.AddFace(adj.leftVertex, e.A, adj.rightVertex)
		m.AddFace(adj.rightVertex, e.B, adj.leftVertex)
		flips++
	}
	if flips > 0 {
		logger.Debug("relaxed edges", zap.Int("flips", flips), zap.Int("candidates", len(edges)))
	}
}

// Smooth applies one tangential Laplacian step to every vertex of the
// working set: the displacement toward the neighbor average is projected
// onto the vertex tangent plane, and the result reprojected onto the
// pre-smoothing 1-ring surface via barycentric coordinates, falling back
// to the tangential position when no adjacent triangle yields a valid
// hit. All positions are computed against the pre-pass state before any
// write.
func Smooth(m *mesh.Mesh, faces *mesh.DynamicFaces) {
	newPositions := make(map[int]mgl32.Vec3)

	const lo = -geom.Epsilon
	const hi = 1.0 + geom.Epsilon

	m.ForEachVertex(faces, func(v int) {
		avgPos := m.AveragePosition(v)
		normal := m.VertexNormal(v)
		delta := avgPos.Sub(m.Vertex(v))
		tangential := avgPos.Sub(normal.Mul(normal.Dot(delta)))

		minDistance := float32(math32.MaxFloat32)
		var projected mgl32.Vec3

		for _, a := range m.AdjacentFaces(v) {
			i1, i2, i3 := m.VertexIndices(a)
			p1 := m.Vertex(i1)
			p2 := m.Vertex(i2)
			p3 := m.Vertex(i3)

			u := p2.Sub(p1)
			w := tangential.Sub(p1)
			vv := p3.Sub(p1)
			n := u.Cross(vv)
			nn := n.Dot(n)
			if nn == 0 {
				continue
			}

			b1 := u.Cross(w).Dot(n) / nn
			b2 := w.Cross(vv).Dot(n) / nn
			b3 := 1.0 - b1 - b2

			if lo < b1 && b1 < hi && lo < b2 && b2 < hi && lo < b3 && b3 < hi {
				proj := p1.Mul(b3).Add(p2.Mul(b2)).Add(p3.Mul(b1))
				if d := tangential.Sub(proj).LenSqr(); d < minDistance {
					minDistance = d
					projected = proj
				}
			}
		}
		if minDistance != math32.MaxFloat32 {
			newPositions[v] = projected
		} else {
			newPositions[v] = tangential
		}
	})

	for v, p := range newPositions {
		m.SetVertex(v, p)
	}
}

// deleteValence3Vertex removes a valence-3 vertex and its three faces,
// closing the hole with one face over the three surrounding vertices.
// Applies only if all three keep valence > 3 afterwards; otherwise the
// mesh is untouched and false is returned.
func deleteValence3Vertex(m *mesh.Mesh, v int, faces *mesh.DynamicFaces) bool {
	if m.Valence(v) != 3 {
		panic(fmt.Sprintf("sculpt: deleteValence3Vertex on vertex %d with valence %d", v, m.Valence(v)))
	}

	adjacent := m.AdjacentFaces(v)
	adj1, adj2, adj3 := adjacent[0], adjacent[1], adjacent[2]

	a11, a12, a13 := m.VertexIndices(adj1)
	a21, a22, a23 := m.VertexIndices(adj2)

	var new1, new2 int
	switch v {
	case a11:
		new1, new2 = a12, a13
	case a12:
		new1, new2 = a13, a11
	case a13:
		new1, new2 = a11, a12
	default:
		panic("sculpt: vertex not in its adjacent face")
	}

	var new3 int
	switch {
	case a21 != new1 && a21 != new2 && a21 != v:
		new3 = a21
	case a22 != new1 && a22 != new2 && a22 != v:
		new3 = a22
	case a23 != new1 && a23 != new2 && a23 != v:
		new3 = a23
	default:
		panic("sculpt: no third vertex around valence-3 vertex")
	}

	if m.Valence(new1) > 3 && m.Valence(new2) > 3 && m.Valence(new3) > 3 {
		m.DeleteFace(adj1)
		m.DeleteFace(adj2)
		m.DeleteFace(adj3)
		m.DeleteVertex(v)

		faces.Insert(m.AddFace(new1, new2, new3))
		return true
	}
	return false
}

// CollapseEdge merges the edge (i1,i2) into one vertex at the midpoint,
// rebuilding the surrounding fan. Valence-3 endpoints reduce to vertex
// deletion. Returns false, with the mesh untouched, if any manifold or
// valence guard fails.
func CollapseEdge(m *mesh.Mesh, i1, i2 int, faces *mesh.DynamicFaces) bool {
	v1 := m.Valence(i1)
	v2 := m.Valence(i2)

	newPos := geom.Midpoint(m.Vertex(i1), m.Vertex(i2))

	if v1 == 3 {
		if deleteValence3Vertex(m, i1, faces) {
			m.SetVertex(i2, newPos)
			return true
		}
		return false
	}
	if v2 == 3 {
		if deleteValence3Vertex(m, i2, faces) {
			m.SetVertex(i1, newPos)
			return true
		}
		return false
	}

	adj := findAdjacent(m, i1, i2)
	if adj.leftVertex == adj.rightVertex {
		return false
	}
	if m.Valence(adj.leftVertex) == 3 || m.Valence(adj.rightVertex) == 3 {
		return false
	}
	if commonAdjacentVertices(m, i1, i2) != 2 {
		return false
	}

	changes := newFaceChanges()
	collectFan := func(newI, keep, drop int) {
		for _, a := range m.AdjacentFaces(keep) {
			a1, a2, a3 := m.VertexIndices(a)

			ok1 := a1 != keep && a1 != drop
			ok2 := a2 != keep && a2 != drop
			ok3 := a3 != keep && a3 != drop

			switch {
			case ok1 && ok2:
				changes.addFace(newI, a1, a2)
			case ok2 && ok3:
				changes.addFace(newI, a2, a3)
			case ok3 && ok1:
				changes.addFace(newI, a3, a1)
			}
			changes.deleteFace(a)
		}
	}

	newI := m.AddVertex(newPos, mgl32.Vec3{})
	collectFan(newI, i1, i2)
	collectFan(newI, i2, i1)
	changes.apply(m, faces)

	if len(m.AdjacentFaces(i1)) != 0 || len(m.AdjacentFaces(i2)) != 0 {
		panic("sculpt: collapse left dangling adjacency")
	}
	m.DeleteVertex(i1)
	m.DeleteVertex(i2)

	return true
}

// commonAdjacentVertices counts the vertices adjacent to both edge
// endpoints via the winged successor walk; exactly 2 on a manifold
// interior edge, more across a pinch.
func commonAdjacentVertices(m *mesh.Mesh, i1, i2 int) int {
	successor := func(v, f int) int {
		a1, a2, a3 := m.VertexIndices(f)
		switch v {
		case a1:
			return a2
		case a2:
			return a3
		case a3:
			return a1
		}
		panic("sculpt: vertex not in face")
	}

	n := 0
	for _, a1 := range m.AdjacentFaces(i1) {
		succ := successor(i1, a1)
		if succ == i2 {
			continue
		}
		for _, a2 := range m.AdjacentFaces(i2) {
			if succ == successor(i2, a2) {
				n++
			}
		}
	}
	return n
}

// CollapsePredicate decides whether the edge (i1,i2) should collapse.
type CollapsePredicate func(i1, i2 int) bool

// CollapseEdges runs edge collapse to a fixed point over the working
// set: every pass tries each live face's first qualifying edge in
// (i1,i2), (i1,i3), (i2,i3) order; faces created by a collapse join the
// next pass. Terminates when a pass stages nothing new. All touched
// faces accumulate into faces, filtered to live members on return.
func CollapseEdges(m *mesh.Mesh, doCollapse CollapsePredicate, faces *mesh.DynamicFaces) bool {
	collapsed := false
	current := mesh.NewDynamicFaces()
	current.InsertSlice(faces.Indices())

	for {
		faces.InsertSlice(current.Uncommitted())
		current.Commit()

		for _, f := range current.Indices() {
			if m.IsFreeFace(f) {
				continue
			}
			i1, i2, i3 := m.VertexIndices(f)

			switch {
			case doCollapse(i1, i2):
				collapsed = CollapseEdge(m, i1, i2, current) || collapsed
			case doCollapse(i1, i3):
				collapsed = CollapseEdge(m, i1, i3, current) || collapsed
			case doCollapse(i2, i3):
				collapsed = CollapseEdge(m, i2, i3, current) || collapsed
			}
		}
		if !current.HasUncommitted() {
			break
		}
	}

	faces.Filter(func(f int) bool { return !m.IsFreeFace(f) })
	faces.Commit()
	return collapsed
}

// CollapseEdgesByLength collapses edges with squared length below
// maxEdgeLengthSqr.
func CollapseEdgesByLength(m *mesh.Mesh, maxEdgeLengthSqr float32, faces *mesh.DynamicFaces) bool {
	return CollapseEdges(m, func(i1, i2 int) bool {
		return m.Vertex(i1).Sub(m.Vertex(i2)).LenSqr() < maxEdgeLengthSqr
	}, faces)
}

// CollapseAllEdges collapses unconditionally until every guard refuses.
func CollapseAllEdges(m *mesh.Mesh, faces *mesh.DynamicFaces) bool {
	return CollapseEdges(m, func(int, int) bool { return true }, faces)
}

// Finalize recomputes the normals of every vertex touched by the face
// set and realigns the faces in the attached spatial index. It is the
// terminal step of every mutation sequence.
func Finalize(m *mesh.Mesh, faces *mesh.DynamicFaces) {
	m.ForEachVertex(faces, func(v int) {
		m.SetVertexNormal(v)
	})
	faces.ForEach(func(f int) {
		if !m.IsFreeFace(f) {
			m.RealignFace(f)
		}
	})
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
