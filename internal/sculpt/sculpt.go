package sculpt

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/dynamesh/internal/logger"
	"github.com/Faultbox/dynamesh/internal/mesh"
)

// Sculpt applies one brush stroke. In reduce mode the affected region is
// decimated against a threshold derived from its average edge length. In
// the standard mode the region is refined to the brush's subdivision
// threshold through repeated split/relax/smooth passes, the brush effect
// runs on the refined region, and degenerate edges are collapsed away.
// Normals and the spatial index are current on return.
func Sculpt(b *Brush) {
	m := b.Mesh

	if b.Params.Reduce {
		reduce(b)
		return
	}

	faces := b.AffectedFaces()
	if faces.Len() == 0 {
		return
	}

	sv := NewSplitVertices()
	passes := 0
	for {
		sv.Reset()
		ExtendAndFilterDomain(b, faces, 1)
		ExtendDomainByPoles(m, faces)

		maxLength := math32.Max(b.SubdivThreshold(), 2*minEdgeLength)
		SplitEdges(m, sv, maxLength, faces)
		if !sv.Empty() {
			Triangulate(m, sv, faces)
		}
		ExtendDomain(m, faces, 1)
		RelaxEdges(m, faces)
		Smooth(m, faces)
		Finalize(m, faces)
		passes++

		if faces.Len() == 0 || sv.Empty() {
			break
		}
	}

	faces = b.AffectedFaces()
	b.sculptFaces(faces)
	CollapseEdgesByLength(m, minEdgeLength*minEdgeLength, faces)
	Finalize(m, faces)

	logger.Debug("sculpt stroke",
		zap.Int("passes", passes),
		zap.Int("faces", m.FaceCount()),
		zap.Int("vertices", m.VertexCount()))
}

func reduce(b *Brush) {
	m := b.Mesh
	faces := b.AffectedFaces()
	if faces.Len() == 0 {
		return
	}
	threshold := m.AverageEdgeLengthSqr(faces) * b.Params.Intensity
	CollapseEdgesByLength(m, threshold, faces)

	if m.IsEmpty() {
		m.Reset()
		logger.Debug("reduce stroke emptied mesh")
		return
	}
	ExtendDomain(m, faces, 1)
	Smooth(m, faces)
	Finalize(m, faces)
	logger.Debug("reduce stroke",
		zap.Int("faces", m.FaceCount()),
		zap.Int("vertices", m.VertexCount()))
}

// SmoothMesh runs rounds of edge relaxation and tangential smoothing
// over the whole mesh.
func SmoothMesh(m *mesh.Mesh, rounds int) {
	for r := 0; r < rounds; r++ {
		faces := allFaces(m)
		RelaxEdges(m, faces)
		Smooth(m, faces)
		Finalize(m, faces)
	}
}

// DeleteFaces collapses the selected region away: all its edges are
// collapsed until every guard refuses, then degenerate leftovers are
// collapsed too. Reports whether anything was removed. The mesh stays
// a closed manifold throughout.
func DeleteFaces(m *mesh.Mesh, faces *mesh.DynamicFaces) bool {
	collapsed := CollapseAllEdges(m, faces)
	collapsed = CollapseEdgesByLength(m, minEdgeLength*minEdgeLength, faces) || collapsed

	if m.IsEmpty() {
		m.Reset()
		return collapsed
	}
	Finalize(m, faces)
	return collapsed
}

// CollapseDegeneratedEdges removes all edges shorter than the degeneracy
// floor anywhere in the mesh.
func CollapseDegeneratedEdges(m *mesh.Mesh) bool {
	faces := allFaces(m)
	collapsed := CollapseEdgesByLength(m, minEdgeLength*minEdgeLength, faces)
	if collapsed {
		Finalize(m, faces)
	}
	return collapsed
}

func allFaces(m *mesh.Mesh) *mesh.DynamicFaces {
	faces := mesh.NewDynamicFaces()
	m.ForEachFaceAll(func(f int) {
		faces.Insert(f)
	})
	faces.Commit()
	return faces
}
