package mesh

// BufferData is the flat-array handoff for rendering upload: positions
// and normals with 3 floats per vertex, indices with 3 per triangle.
// Free slots are compacted out; the arrays stand alone and stay valid
// across later mesh mutations.
type BufferData struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
}

// Buffer extracts the live geometry into flat arrays.
func (m *Mesh) Buffer() BufferData {
	remap := make(map[int]uint32, m.liveVerts)
	buf := BufferData{
		Positions: make([]float32, 0, m.liveVerts*3),
		Normals:   make([]float32, 0, m.liveVerts*3),
		Indices:   make([]uint32, 0, m.liveFaces*3),
	}

	for v := range m.positions {
		if m.vertFree[v] {
			continue
		}
		remap[v] = uint32(len(buf.Positions) / 3)
		p, n := m.positions[v], m.normals[v]
		buf.Positions = append(buf.Positions, p.X(), p.Y(), p.Z())
		buf.Normals = append(buf.Normals, n.X(), n.Y(), n.Z())
	}

	for f := range m.faces {
		if m.faceFree[f] {
			continue
		}
		fc := m.faces[f]
		buf.Indices = append(buf.Indices, remap[fc[0]], remap[fc[1]], remap[fc[2]])
	}
	return buf
}
