package mesh

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// newTetrahedron builds the smallest closed manifold mesh.
func newTetrahedron() *Mesh {
	m := New()
	m.AddVertex(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	m.AddVertex(mgl32.Vec3{1, -1, -1}, mgl32.Vec3{})
	m.AddVertex(mgl32.Vec3{-1, 1, -1}, mgl32.Vec3{})
	m.AddVertex(mgl32.Vec3{-1, -1, 1}, mgl32.Vec3{})
	m.AddFace(0, 1, 2)
	m.AddFace(0, 2, 3)
	m.AddFace(0, 3, 1)
	m.AddFace(1, 3, 2)
	for v := 0; v < 4; v++ {
		m.SetVertexNormal(v)
	}
	return m
}

func TestTetrahedronTopology(t *testing.T) {
	m := newTetrahedron()

	if m.VertexCount() != 4 {
		t.Errorf("expected 4 vertices, got %d", m.VertexCount())
	}
	if m.FaceCount() != 4 {
		t.Errorf("expected 4 faces, got %d", m.FaceCount())
	}
	for v := 0; v < 4; v++ {
		if m.Valence(v) != 3 {
			t.Errorf("vertex %d: expected valence 3, got %d", v, m.Valence(v))
		}
	}
	if err := m.Check(); err != nil {
		t.Errorf("tetrahedron failed check: %v", err)
	}
}

func TestCheckDetectsBoundary(t *testing.T) {
	m := newTetrahedron()
	m.DeleteFace(0)
	if err := m.Check(); err == nil {
		t.Error("expected check to fail after deleting a face")
	}
}

func TestFreeSlotReuse(t *testing.T) {
	m := newTetrahedron()

	m.DeleteFace(3)
	if !m.IsFreeFace(3) {
		t.Error("face 3 should be free after deletion")
	}
	if f := m.AddFace(1, 3, 2); f != 3 {
		t.Errorf("expected AddFace to reuse slot 3, got %d", f)
	}

	// Vertices free only once all their faces are gone.
	m2 := New()
	m2.AddVertex(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{})
	m2.AddVertex(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{})
	m2.AddVertex(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{})
	f := m2.AddFace(0, 1, 2)
	m2.DeleteFace(f)
	m2.DeleteVertex(1)
	if v := m2.AddVertex(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{}); v != 1 {
		t.Errorf("expected AddVertex to reuse slot 1, got %d", v)
	}
	if m2.Vertex(1) != (mgl32.Vec3{5, 5, 5}) {
		t.Errorf("reused slot holds wrong position %v", m2.Vertex(1))
	}
}

func TestDeleteVertexWithFacesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic deleting a vertex with adjacent faces")
		}
	}()
	m := newTetrahedron()
	m.DeleteVertex(0)
}

func TestAddFaceDuplicateVerticesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic adding a face with duplicate vertices")
		}
	}()
	m := newTetrahedron()
	m.AddFace(0, 0, 1)
}

func TestVertexNormalsPointOutward(t *testing.T) {
	m := newTetrahedron()
	for v := 0; v < 4; v++ {
		n := m.VertexNormal(v)
		if n.Dot(m.Vertex(v)) <= 0 {
			t.Errorf("vertex %d: normal %v does not point away from center", v, n)
		}
		if math32.Abs(n.Len()-1) > 1e-4 {
			t.Errorf("vertex %d: normal not unit length: %v", v, n)
		}
	}
}

func TestAveragePosition(t *testing.T) {
	m := newTetrahedron()

	// Every other vertex is a neighbor of vertex 0.
	want := m.Vertex(1).Add(m.Vertex(2)).Add(m.Vertex(3)).Mul(1.0 / 3.0)
	got := m.AveragePosition(0)
	if got.Sub(want).Len() > 1e-5 {
		t.Errorf("expected average %v, got %v", want, got)
	}
}

func TestAverageEdgeLengthSqr(t *testing.T) {
	m := newTetrahedron()
	faces := NewDynamicFaces()
	m.ForEachFaceAll(func(f int) { faces.Insert(f) })
	faces.Commit()

	// All tetrahedron edges have squared length 8.
	if got := m.AverageEdgeLengthSqr(faces); math32.Abs(got-8) > 1e-4 {
		t.Errorf("expected average squared edge length 8, got %g", got)
	}
}

func TestIcoSphere(t *testing.T) {
	tests := []struct {
		subdivisions int
		vertices     int
		faces        int
	}{
		{0, 12, 20},
		{1, 42, 80},
		{2, 162, 320},
	}

	for _, tt := range tests {
		m := NewIcoSphere(mgl32.Vec3{}, 2.0, tt.subdivisions)
		if m.VertexCount() != tt.vertices {
			t.Errorf("subdiv %d: expected %d vertices, got %d", tt.subdivisions, tt.vertices, m.VertexCount())
		}
		if m.FaceCount() != tt.faces {
			t.Errorf("subdiv %d: expected %d faces, got %d", tt.subdivisions, tt.faces, m.FaceCount())
		}
		if err := m.Check(); err != nil {
			t.Errorf("subdiv %d: check failed: %v", tt.subdivisions, err)
		}
		for v := 0; v < m.VertexCount(); v++ {
			if r := m.Vertex(v).Len(); math32.Abs(r-2.0) > 1e-4 {
				t.Errorf("subdiv %d: vertex %d at radius %g, want 2", tt.subdivisions, v, r)
			}
		}
	}
}

func TestNewFromTriangles(t *testing.T) {
	positions := []mgl32.Vec3{{1, 1, 1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}}
	faces := [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2}}

	m, err := NewFromTriangles(positions, faces)
	if err != nil {
		t.Fatalf("NewFromTriangles: %v", err)
	}
	if err := m.Check(); err != nil {
		t.Errorf("check failed: %v", err)
	}
	for v := 0; v < 4; v++ {
		if m.VertexNormal(v).Dot(m.Vertex(v)) <= 0 {
			t.Errorf("vertex %d normal not outward", v)
		}
	}

	if _, err := NewFromTriangles(positions, [][3]int{{0, 1, 9}}); err == nil {
		t.Error("expected error for out-of-range vertex")
	}
	if _, err := NewFromTriangles(positions, [][3]int{{0, 1, 1}}); err == nil {
		t.Error("expected error for repeated vertex")
	}
}

func TestBufferCompaction(t *testing.T) {
	m := newTetrahedron()

	m.DeleteFace(1)
	buf := m.Buffer()

	if len(buf.Positions) != 4*3 {
		t.Errorf("expected 12 position floats, got %d", len(buf.Positions))
	}
	if len(buf.Normals) != len(buf.Positions) {
		t.Errorf("normals length %d != positions length %d", len(buf.Normals), len(buf.Positions))
	}
	if len(buf.Indices) != 3*3 {
		t.Errorf("expected 9 indices for 3 live faces, got %d", len(buf.Indices))
	}
	for _, i := range buf.Indices {
		if int(i) >= len(buf.Positions)/3 {
			t.Errorf("index %d out of range", i)
		}
	}
}

func TestEdgeKey(t *testing.T) {
	if MakeEdgeKey(5, 2) != MakeEdgeKey(2, 5) {
		t.Error("edge key not canonical")
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for identical vertices")
		}
	}()
	MakeEdgeKey(3, 3)
}

func TestFaceEdges(t *testing.T) {
	m := newTetrahedron()
	it := m.FaceEdges(0)

	var got [][2]int
	for {
		i1, i2, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, [2]int{i1, i2})
	}
	want := [][2]int{{0, 1}, {1, 2}, {2, 0}}
	if len(got) != len(want) {
		t.Fatalf("expected %d edges, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("edge %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
