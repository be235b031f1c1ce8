// Package spatial provides an octree over face triangles supporting ray
// and sphere queries. It satisfies the mesh.FaceIndex contract and backs
// both the editing session's affected-face lookups and the carve cache.
package spatial

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dynamesh/pkg/geom"
)

const maxDepth = 10

// Hit describes a ray intersection with an indexed face.
type Hit struct {
	Face     int
	T        float32
	Position mgl32.Vec3
}

type entry struct {
	tri  geom.Triangle
	node *node
}

type node struct {
	box      geom.AABB
	depth    int
	children [8]*node
	items    []int
}

// Octree indexes face triangles by id. The root grows to cover
// insertions outside its bounds; each face id is held by the smallest
// node whose box contains the triangle's bounds.
type Octree struct {
	root    *node
	entries map[int]*entry
}

// New returns an empty octree.
func New() *Octree {
	return &Octree{entries: make(map[int]*entry)}
}

// Len returns the number of indexed faces.
func (o *Octree) Len() int {
	return len(o.entries)
}

// HasFace reports whether the face id is indexed.
func (o *Octree) HasFace(id int) bool {
	_, ok := o.entries[id]
	return ok
}

// Reset drops all indexed faces.
func (o *Octree) Reset() {
	o.root = nil
	clear(o.entries)
}

// InsertFace indexes a face triangle. Inserting an id twice panics;
// use UpdateFace to move a face.
func (o *Octree) InsertFace(id int, tri geom.Triangle) {
	if _, ok := o.entries[id]; ok {
		panic("spatial: duplicate face id")
	}
	bounds := tri.Bounds()

	if o.root == nil {
		size := bounds.Size()
		half := math32.Max(size.X(), math32.Max(size.Y(), size.Z()))
		if half <= 0 {
			half = 1
		}
		c := bounds.Center()
		ext := mgl32.Vec3{half, half, half}
		o.root = &node{box: geom.AABB{Min: c.Sub(ext), Max: c.Add(ext)}}
	}
	for !o.root.box.ContainsAABB(bounds) {
		o.grow(bounds.Center())
	}

	n := o.root.descend(bounds)
	n.items = append(n.items, id)
	o.entries[id] = &entry{tri: tri, node: n}
}

// UpdateFace reindexes a face after its geometry changed.
func (o *Octree) UpdateFace(id int, tri geom.Triangle) {
	o.RemoveFace(id)
	o.InsertFace(id, tri)
}

// RemoveFace drops a face id. Unknown ids are ignored.
func (o *Octree) RemoveFace(id int) {
	e, ok := o.entries[id]
	if !ok {
		return
	}
	items := e.node.items
	for i, item := range items {
		if item == id {
			items[i] = items[len(items)-1]
			e.node.items = items[:len(items)-1]
			break
		}
	}
	delete(o.entries, id)
}

// grow doubles the root box away from target, making the old root one
// octant of the new one.
func (o *Octree) grow(target mgl32.Vec3) {
	old := o.root
	size := old.box.Size()
	center := old.box.Center()

	var newMin mgl32.Vec3
	var octant int
	for i := 0; i < 3; i++ {
		if target[i] < center[i] {
			newMin[i] = old.box.Min[i] - size[i]
			octant |= 1 << i
		} else {
			newMin[i] = old.box.Min[i]
		}
	}
	root := &node{box: geom.AABB{Min: newMin, Max: newMin.Add(size.Mul(2))}}
	root.children[octant] = old
	old.reDepth(1)
	o.root = root
}

func (n *node) reDepth(depth int) {
	n.depth = depth
	for _, c := range n.children {
		if c != nil {
			c.reDepth(depth + 1)
		}
	}
}

// descend finds (or creates) the smallest node whose box contains bounds.
func (n *node) descend(bounds geom.AABB) *node {
	if n.depth >= maxDepth {
		return n
	}
	center := n.box.Center()
	c := bounds.Center()
	var octant int
	for i := 0; i < 3; i++ {
		if c[i] >= center[i] {
			octant |= 1 << i
		}
	}
	childBox := n.octantBox(octant)
	if !childBox.ContainsAABB(bounds) {
		return n
	}
	if n.children[octant] == nil {
		n.children[octant] = &node{box: childBox, depth: n.depth + 1}
	}
	return n.children[octant].descend(bounds)
}

func (n *node) octantBox(octant int) geom.AABB {
	center := n.box.Center()
	var min, max mgl32.Vec3
	for i := 0; i < 3; i++ {
		if octant&(1<<i) != 0 {
			min[i], max[i] = center[i], n.box.Max[i]
		} else {
			min[i], max[i] = n.box.Min[i], center[i]
		}
	}
	return geom.AABB{Min: min, Max: max}
}

// SearchSphere returns the ids of all faces whose triangle overlaps the
// sphere.
func (o *Octree) SearchSphere(s geom.Sphere) []int {
	var out []int
	if o.root == nil {
		return out
	}
	o.root.searchSphere(o, s, &out)
	return out
}

func (n *node) searchSphere(o *Octree, s geom.Sphere, out *[]int) {
	if !n.box.IntersectsSphere(s) {
		return
	}
	for _, id := range n.items {
		if geom.SphereTriangle(s, o.entries[id].tri) {
			*out = append(*out, id)
		}
	}
	for _, c := range n.children {
		if c != nil {
			c.searchSphere(o, s, out)
		}
	}
}

// IntersectRay returns the nearest face hit by the ray, if any.
func (o *Octree) IntersectRay(r geom.Ray) (Hit, bool) {
	best := Hit{Face: -1, T: math32.MaxFloat32}
	if o.root != nil {
		o.root.intersectRay(o, r, &best)
	}
	if best.Face < 0 {
		return Hit{}, false
	}
	best.Position = r.At(best.T)
	return best, true
}

func (n *node) intersectRay(o *Octree, r geom.Ray, best *Hit) {
	if _, hit := geom.RayAABB(r, n.box); !hit {
		return
	}
	for _, id := range n.items {
		if t, hit := geom.RayTriangle(r, o.entries[id].tri); hit && t < best.T {
			best.T = t
			best.Face = id
		}
	}
	for _, c := range n.children {
		if c != nil {
			c.intersectRay(o, r, best)
		}
	}
}
