package mesh

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// icosahedron corner table; t is the golden ratio.
var icoFaces = [20][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

func icoVertices() []mgl32.Vec3 {
	t := (1.0 + math32.Sqrt(5.0)) / 2.0
	return []mgl32.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
}

// NewIcoSphere builds a closed manifold sphere mesh by midpoint
// subdivision of an icosahedron, with outward normals. Subdivision 0
// yields 12 vertices and 20 faces; each level quadruples the face count.
func NewIcoSphere(center mgl32.Vec3, radius float32, subdivisions int) *Mesh {
	positions := icoVertices()
	for i := range positions {
		positions[i] = positions[i].Normalize()
	}
	faces := make([][3]int, len(icoFaces))
	for i, f := range icoFaces {
		faces[i] = f
	}

	for s := 0; s < subdivisions; s++ {
		midpoints := make(map[EdgeKey]int)
		mid := func(a, b int) int {
			key := MakeEdgeKey(a, b)
			if i, ok := midpoints[key]; ok {
				return i
			}
			p := geomMidUnit(positions[a], positions[b])
			positions = append(positions, p)
			i := len(positions) - 1
			midpoints[key] = i
			return i
		}

		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			a, b, c := f[0], f[1], f[2]
			ab, bc, ca := mid(a, b), mid(b, c), mid(c, a)
			next = append(next,
				[3]int{a, ab, ca},
				[3]int{b, bc, ab},
				[3]int{c, ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		faces = next
	}

	m := New()
	for _, p := range positions {
		m.AddVertex(center.Add(p.Mul(radius)), p)
	}
	for _, f := range faces {
		m.AddFace(f[0], f[1], f[2])
	}
	return m
}

func geomMidUnit(a, b mgl32.Vec3) mgl32.Vec3 {
	return a.Add(b).Mul(0.5).Normalize()
}

// NewFromTriangles builds a mesh from an indexed triangle list, such as a
// convex-hull triangulation, and recomputes all vertex normals. Returns
// an error if a face references a vertex out of range or repeats one.
func NewFromTriangles(positions []mgl32.Vec3, faces [][3]int) (*Mesh, error) {
	for i, f := range faces {
		for _, v := range f {
			if v < 0 || v >= len(positions) {
				return nil, fmt.Errorf("mesh: face %d references vertex %d of %d", i, v, len(positions))
			}
		}
		if f[0] == f[1] || f[0] == f[2] || f[1] == f[2] {
			return nil, fmt.Errorf("mesh: face %d repeats a vertex: %v", i, f)
		}
	}

	m := New()
	for _, p := range positions {
		m.AddVertex(p, mgl32.Vec3{})
	}
	for _, f := range faces {
		m.AddFace(f[0], f[1], f[2])
	}
	for v := 0; v < len(positions); v++ {
		m.SetVertexNormal(v)
	}
	return m, nil
}
