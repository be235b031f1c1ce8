// Package action records reversible mesh edits as explicit operations so
// a stroke can be undone and reapplied.
package action

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dynamesh/internal/mesh"
)

// Op is one reversible mesh edit.
type Op interface {
	Undo(m *mesh.Mesh)
	Redo(m *mesh.Mesh)
}

// MoveVertex records a vertex position change.
type MoveVertex struct {
	Index    int
	From, To mgl32.Vec3
}

func (op MoveVertex) Undo(m *mesh.Mesh) { m.SetVertex(op.Index, op.From) }
func (op MoveVertex) Redo(m *mesh.Mesh) { m.SetVertex(op.Index, op.To) }

// SetNormal records a vertex normal change.
type SetNormal struct {
	Index    int
	From, To mgl32.Vec3
}

func (op SetNormal) Undo(m *mesh.Mesh) { m.SetNormal(op.Index, op.From) }
func (op SetNormal) Redo(m *mesh.Mesh) { m.SetNormal(op.Index, op.To) }

// Recorder accumulates the operations of one stroke in application
// order. A nil *Recorder discards everything, so callers can thread one
// through unconditionally.
type Recorder struct {
	ops []Op
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add appends an operation.
func (r *Recorder) Add(op Op) {
	if r == nil {
		return
	}
	r.ops = append(r.ops, op)
}

// Len returns the number of recorded operations.
func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ops)
}

// Undo reverts all recorded operations, newest first.
func (r *Recorder) Undo(m *mesh.Mesh) {
	if r == nil {
		return
	}
	for i := len(r.ops) - 1; i >= 0; i-- {
		r.ops[i].Undo(m)
	}
}

// Redo reapplies all recorded operations in original order.
func (r *Recorder) Redo(m *mesh.Mesh) {
	if r == nil {
		return
	}
	for _, op := range r.ops {
		op.Redo(m)
	}
}

// Reset drops all recorded operations.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.ops = r.ops[:0]
}
