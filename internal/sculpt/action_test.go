package sculpt

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dynamesh/internal/mesh"
	"github.com/Faultbox/dynamesh/internal/spatial"
)

func allMeshFaces(m *mesh.Mesh) *mesh.DynamicFaces {
	faces := mesh.NewDynamicFaces()
	m.ForEachFaceAll(func(f int) { faces.Insert(f) })
	faces.Commit()
	return faces
}

func totalValenceDeviation(m *mesh.Mesh) int {
	dev := 0
	seen := make(map[int]struct{})
	m.ForEachFaceAll(func(f int) {
		i1, i2, i3 := m.VertexIndices(f)
		for _, v := range [3]int{i1, i2, i3} {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			dev += absInt(m.Valence(v) - 6)
		}
	})
	return dev
}

func TestFalloff(t *testing.T) {
	f := Falloff{Radius: 1, Height: 0.5, Exponent: 2}

	if got := f.At(0); got != 0.5 {
		t.Errorf("expected Height at center, got %g", got)
	}
	if got := f.At(1); got != 0 {
		t.Errorf("expected 0 at radius, got %g", got)
	}
	if got := f.At(2); got != 0 {
		t.Errorf("expected 0 beyond radius, got %g", got)
	}
	if f.At(0.2) <= f.At(0.8) {
		t.Error("falloff must decrease with distance")
	}
}

func TestSplitEdgesAndTriangulate(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 1)
	faces := allMeshFaces(m)
	before := m.FaceCount()

	sv := NewSplitVertices()
	// Threshold below every edge length splits all edges.
	SplitEdges(m, sv, 0.01, faces)
	if sv.Empty() {
		t.Fatal("expected splits")
	}
	Triangulate(m, sv, faces)

	if m.FaceCount() != before*4 {
		t.Errorf("full split should quadruple faces: %d -> %d", before, m.FaceCount())
	}
	if err := m.Check(); err != nil {
		t.Fatalf("mesh broken after triangulate: %v", err)
	}

	// All new edges are half length; a permissive threshold splits nothing.
	sv.Reset()
	SplitEdges(m, sv, 10, faces)
	if !sv.Empty() {
		t.Errorf("expected no splits with large threshold, got %d", sv.Len())
	}
}

func TestRelaxEdges(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 1)
	faces := allMeshFaces(m)

	// Uneven refinement creates poles.
	sv := NewSplitVertices()
	SplitEdges(m, sv, 0.3, faces)
	if !sv.Empty() {
		Triangulate(m, sv, faces)
	}
	ExtendDomain(m, faces, 1)

	before := totalValenceDeviation(m)
	RelaxEdges(m, faces)

	if after := totalValenceDeviation(m); after > before {
		t.Errorf("relaxation increased valence deviation: %d -> %d", before, after)
	}
	if err := m.Check(); err != nil {
		t.Fatalf("mesh broken after relaxation: %v", err)
	}
}

func TestSmoothKeepsManifold(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 2)
	faces := allMeshFaces(m)

	// Pull one vertex far off the surface.
	spike := m.Vertex(0).Mul(2)
	m.SetVertex(0, spike)
	Finalize(m, faces)

	Smooth(m, faces)
	Finalize(m, faces)

	if err := m.Check(); err != nil {
		t.Fatalf("mesh broken after smoothing: %v", err)
	}
	if m.Vertex(0).Len() >= spike.Len() {
		t.Error("smoothing should pull the spike back toward the surface")
	}
}

func TestCollapseEdgeRefusesTetrahedron(t *testing.T) {
	m := mesh.New()
	m.AddVertex(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	m.AddVertex(mgl32.Vec3{1, -1, -1}, mgl32.Vec3{})
	m.AddVertex(mgl32.Vec3{-1, 1, -1}, mgl32.Vec3{})
	m.AddVertex(mgl32.Vec3{-1, -1, 1}, mgl32.Vec3{})
	m.AddFace(0, 1, 2)
	m.AddFace(0, 2, 3)
	m.AddFace(0, 3, 1)
	m.AddFace(1, 3, 2)

	faces := mesh.NewDynamicFaces()
	if CollapseEdge(m, 0, 1, faces) {
		t.Error("collapse on a tetrahedron must refuse")
	}
	if m.FaceCount() != 4 || m.VertexCount() != 4 {
		t.Error("refused collapse must leave the mesh untouched")
	}
	if err := m.Check(); err != nil {
		t.Fatalf("mesh broken after refused collapse: %v", err)
	}
}

func TestCollapseEdgeOnSphere(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 2)
	vBefore := m.VertexCount()
	fBefore := m.FaceCount()

	// Find an interior edge with both valences above 3.
	i1, i2, _ := m.VertexIndices(0)

	faces := mesh.NewDynamicFaces()
	if !CollapseEdge(m, i1, i2, faces) {
		t.Fatal("expected collapse to succeed on a subdivided sphere")
	}
	if m.VertexCount() != vBefore-1 {
		t.Errorf("expected %d vertices, got %d", vBefore-1, m.VertexCount())
	}
	if m.FaceCount() != fBefore-2 {
		t.Errorf("expected %d faces, got %d", fBefore-2, m.FaceCount())
	}
	if err := m.Check(); err != nil {
		t.Fatalf("mesh broken after collapse: %v", err)
	}
	if !faces.HasUncommitted() {
		t.Error("collapse must stage the rebuilt fan")
	}
}

func TestCollapseEdgesByLength(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 2)
	faces := allMeshFaces(m)
	before := m.FaceCount()

	// Threshold above every edge length decimates aggressively.
	collapsed := CollapseEdgesByLength(m, 10, faces)
	if !collapsed {
		t.Fatal("expected at least one collapse")
	}
	if m.FaceCount() >= before {
		t.Errorf("decimation did not reduce faces: %d -> %d", before, m.FaceCount())
	}
	if !m.IsEmpty() {
		if err := m.Check(); err != nil {
			t.Fatalf("mesh broken after decimation: %v", err)
		}
	}
	if faces.HasUncommitted() {
		t.Error("working set must be committed on return")
	}
	faces.ForEach(func(f int) {
		if m.IsFreeFace(f) {
			t.Errorf("working set kept freed face %d", f)
		}
	})
}

func TestSculptStrokeRefines(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 2)
	m.Attach(spatial.New())
	before := m.FaceCount()

	b := &Brush{
		Mesh:     m,
		Params:   DefaultParams(0.5),
		Position: m.Vertex(0),
		Effect: DisplaceEffect(Falloff{
			Radius: 0.5, Height: 0.02, Exponent: 2,
		}),
	}
	Sculpt(b)

	if m.FaceCount() <= before {
		t.Errorf("refinement stroke did not add faces: %d -> %d", before, m.FaceCount())
	}
	if err := m.Check(); err != nil {
		t.Fatalf("mesh broken after stroke: %v", err)
	}
}

func TestSculptReduce(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 3)
	m.Attach(spatial.New())
	before := m.FaceCount()

	b := &Brush{
		Mesh: m,
		Params: Params{
			Radius:      0.6,
			Intensity:   1.5,
			SubdivRatio: 0.35,
			Reduce:      true,
		},
		Position: m.Vertex(0),
	}
	Sculpt(b)

	if m.FaceCount() >= before {
		t.Errorf("reduce stroke did not remove faces: %d -> %d", before, m.FaceCount())
	}
	if !m.IsEmpty() {
		if err := m.Check(); err != nil {
			t.Fatalf("mesh broken after reduce: %v", err)
		}
	}
}

func TestSmoothMeshPreservesShape(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 2)
	SmoothMesh(m, 2)

	if err := m.Check(); err != nil {
		t.Fatalf("mesh broken after smoothing: %v", err)
	}
	for v := 0; v < m.VertexCount(); v++ {
		if r := m.Vertex(v).Len(); math32.Abs(r-1) > 0.15 {
			t.Errorf("vertex %d drifted to radius %g", v, r)
		}
	}
}

func TestDeleteFaces(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 2)
	before := m.FaceCount()

	// Collapse away the 1-ring of vertex 0.
	faces := mesh.NewDynamicFaces()
	for _, f := range m.AdjacentFaces(0) {
		faces.Insert(f)
	}
	faces.Commit()

	if !DeleteFaces(m, faces) {
		t.Fatal("expected the region to collapse")
	}
	if m.FaceCount() >= before {
		t.Errorf("deletion did not reduce faces: %d -> %d", before, m.FaceCount())
	}
	if !m.IsEmpty() {
		if err := m.Check(); err != nil {
			t.Fatalf("mesh broken after deletion: %v", err)
		}
	}
}

func TestCollapseDegeneratedEdges(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 1)

	// Degenerate one edge by moving an endpoint onto its neighbor.
	i1, i2, _ := m.VertexIndices(0)
	m.SetVertex(i2, m.Vertex(i1).Add(mgl32.Vec3{minEdgeLength / 4, 0, 0}))

	if !CollapseDegeneratedEdges(m) {
		t.Fatal("expected the degenerate edge to collapse")
	}
	if err := m.Check(); err != nil {
		t.Fatalf("mesh broken after degenerate collapse: %v", err)
	}
	if CollapseDegeneratedEdges(m) {
		t.Error("second run should find nothing to collapse")
	}
}

func TestExtendDomain(t *testing.T) {
	m := mesh.NewIcoSphere(mgl32.Vec3{}, 1, 1)

	faces := mesh.NewDynamicFaces()
	faces.Insert(0)
	faces.Commit()

	ExtendDomain(m, faces, 1)
	// A face plus its ring covers the faces around its three corners.
	if faces.Len() < 10 {
		t.Errorf("expected at least 10 faces after one ring, got %d", faces.Len())
	}

	before := faces.Len()
	ExtendDomain(m, faces, 1)
	if faces.Len() <= before {
		t.Errorf("second ring did not grow the set: %d -> %d", before, faces.Len())
	}
}
