package mesh

// DynamicFaces is an order-independent face-index working set with staged
// membership: insertions land in an uncommitted subset that joins the
// committed subset on Commit. Iteration covers committed members only, so
// a pass over a growing frontier never revisits the ring it is adding.
type DynamicFaces struct {
	committed   map[int]struct{}
	uncommitted map[int]struct{}
}

// NewDynamicFaces returns an empty working set.
func NewDynamicFaces() *DynamicFaces {
	return &DynamicFaces{
		committed:   make(map[int]struct{}),
		uncommitted: make(map[int]struct{}),
	}
}

// Insert stages a face index. Inserting an already-committed member is a
// no-op.
func (d *DynamicFaces) Insert(f int) {
	if _, ok := d.committed[f]; ok {
		return
	}
	d.uncommitted[f] = struct{}{}
}

// InsertSlice stages every index in fs.
func (d *DynamicFaces) InsertSlice(fs []int) {
	for _, f := range fs {
		d.Insert(f)
	}
}

// Contains reports membership in either subset.
func (d *DynamicFaces) Contains(f int) bool {
	if _, ok := d.committed[f]; ok {
		return true
	}
	_, ok := d.uncommitted[f]
	return ok
}

// Commit merges the uncommitted subset into the committed subset.
func (d *DynamicFaces) Commit() {
	for f := range d.uncommitted {
		d.committed[f] = struct{}{}
	}
	clear(d.uncommitted)
}

// HasUncommitted reports whether any staged members remain.
func (d *DynamicFaces) HasUncommitted() bool {
	return len(d.uncommitted) > 0
}

// Uncommitted returns the staged members.
func (d *DynamicFaces) Uncommitted() []int {
	out := make([]int, 0, len(d.uncommitted))
	for f := range d.uncommitted {
		out = append(out, f)
	}
	return out
}

// Indices returns the committed members.
func (d *DynamicFaces) Indices() []int {
	out := make([]int, 0, len(d.committed))
	for f := range d.committed {
		out = append(out, f)
	}
	return out
}

// ForEach calls fn for every committed member. fn must not insert
// committed members; staged insertions are fine.
func (d *DynamicFaces) ForEach(fn func(f int)) {
	for f := range d.committed {
		fn(f)
	}
}

// Filter removes members of both subsets failing the predicate.
func (d *DynamicFaces) Filter(keep func(f int) bool) {
	for f := range d.committed {
		if !keep(f) {
			delete(d.committed, f)
		}
	}
	for f := range d.uncommitted {
		if !keep(f) {
			delete(d.uncommitted, f)
		}
	}
}

// Len returns the committed member count.
func (d *DynamicFaces) Len() int {
	return len(d.committed)
}

// Reset empties both subsets.
func (d *DynamicFaces) Reset() {
	clear(d.committed)
	clear(d.uncommitted)
}
