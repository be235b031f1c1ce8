package mesh

// EdgeKey identifies an undirected edge by its canonicalized (min,max)
// vertex pair. Used as a map key to detect edges already processed or
// split.
type EdgeKey struct {
	A, B int
}

// MakeEdgeKey canonicalizes a vertex pair. The vertices must differ.
func MakeEdgeKey(i1, i2 int) EdgeKey {
	if i1 == i2 {
		panic("mesh: edge key with identical vertices")
	}
	if i1 < i2 {
		return EdgeKey{A: i1, B: i2}
	}
	return EdgeKey{A: i2, B: i1}
}

// EdgeIterator walks the three directed half-edges of a face, in winding
// order, starting from the face's first vertex. It is finite and
// restartable by requesting a fresh iterator.
type EdgeIterator struct {
	v [3]int
	i int
}

// FaceEdges returns an iterator over the directed edges of a face.
func (m *Mesh) FaceEdges(f int) EdgeIterator {
	m.mustLiveFace(f)
	return EdgeIterator{v: m.faces[f]}
}

// Next returns the next directed edge, or ok=false after the third.
func (it *EdgeIterator) Next() (i1, i2 int, ok bool) {
	if it.i >= 3 {
		return 0, 0, false
	}
	i1 = it.v[it.i]
	i2 = it.v[(it.i+1)%3]
	it.i++
	return i1, i2, true
}
