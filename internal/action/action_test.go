package action

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dynamesh/internal/mesh"
)

func newTriangle() *mesh.Mesh {
	m := mesh.New()
	m.AddVertex(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
	m.AddVertex(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1})
	m.AddVertex(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1})
	m.AddFace(0, 1, 2)
	return m
}

func TestMoveVertexUndoRedo(t *testing.T) {
	m := newTriangle()
	op := MoveVertex{Index: 0, From: mgl32.Vec3{0, 0, 0}, To: mgl32.Vec3{0, 0, 1}}

	op.Redo(m)
	if m.Vertex(0) != op.To {
		t.Errorf("redo: expected %v, got %v", op.To, m.Vertex(0))
	}
	op.Undo(m)
	if m.Vertex(0) != op.From {
		t.Errorf("undo: expected %v, got %v", op.From, m.Vertex(0))
	}
}

func TestRecorderOrder(t *testing.T) {
	m := newTriangle()
	rec := NewRecorder()

	// Two moves of the same vertex; undo must unwind newest first.
	rec.Add(MoveVertex{Index: 0, From: mgl32.Vec3{0, 0, 0}, To: mgl32.Vec3{1, 1, 1}})
	m.SetVertex(0, mgl32.Vec3{1, 1, 1})
	rec.Add(MoveVertex{Index: 0, From: mgl32.Vec3{1, 1, 1}, To: mgl32.Vec3{2, 2, 2}})
	m.SetVertex(0, mgl32.Vec3{2, 2, 2})

	rec.Undo(m)
	if m.Vertex(0) != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("undo: expected origin, got %v", m.Vertex(0))
	}

	rec.Redo(m)
	if m.Vertex(0) != (mgl32.Vec3{2, 2, 2}) {
		t.Errorf("redo: expected (2,2,2), got %v", m.Vertex(0))
	}

	if rec.Len() != 2 {
		t.Errorf("expected 2 ops, got %d", rec.Len())
	}
	rec.Reset()
	if rec.Len() != 0 {
		t.Errorf("expected empty recorder after reset, got %d", rec.Len())
	}
}

func TestSetNormalUndoRedo(t *testing.T) {
	m := newTriangle()
	op := SetNormal{Index: 1, From: mgl32.Vec3{0, 0, 1}, To: mgl32.Vec3{1, 0, 0}}

	op.Redo(m)
	if m.VertexNormal(1) != op.To {
		t.Errorf("redo: expected %v, got %v", op.To, m.VertexNormal(1))
	}
	op.Undo(m)
	if m.VertexNormal(1) != op.From {
		t.Errorf("undo: expected %v, got %v", op.From, m.VertexNormal(1))
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.Add(MoveVertex{})
	if rec.Len() != 0 {
		t.Error("nil recorder must report zero ops")
	}
	m := newTriangle()
	rec.Undo(m)
	rec.Redo(m)
	rec.Reset()
}
