// Command sculptbench runs a headless sculpting session: it seeds a
// mesh, applies alternating displacement and carve strokes at random
// surface points, and reports the resulting topology.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/geo/r3"
	quickhull "github.com/markus-wa/quickhull-go/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/dynamesh/internal/action"
	"github.com/Faultbox/dynamesh/internal/config"
	"github.com/Faultbox/dynamesh/internal/logger"
	"github.com/Faultbox/dynamesh/internal/mesh"
	"github.com/Faultbox/dynamesh/internal/sculpt"
	"github.com/Faultbox/dynamesh/internal/spatial"
	"github.com/Faultbox/dynamesh/pkg/geom"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Fatal("bench failed", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	rng := rand.New(rand.NewSource(cfg.Bench.Seed))

	m, err := seedMesh(cfg, rng)
	if err != nil {
		return err
	}
	m.Attach(spatial.New())

	logger.Info("seed mesh built",
		zap.String("shape", cfg.Bench.Shape),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("faces", m.FaceCount()))

	carveBrush := sculpt.CarveBrush{
		Radius: cfg.Carve.Radius,
		Falloff: sculpt.Falloff{
			Radius:   cfg.Carve.Radius,
			Height:   cfg.Carve.Height,
			Exponent: cfg.Carve.Exponent,
		},
		SubdivEdgeLength: cfg.Carve.Radius * cfg.Carve.SubdivRatio,
	}

	for i := 0; i < cfg.Bench.Strokes; i++ {
		center, ok := surfacePoint(m, cfg.Bench.MeshRadius, rng)
		if !ok {
			logger.Warn("no surface hit, skipping stroke", zap.Int("stroke", i))
			continue
		}

		if i%2 == 0 {
			brush := &sculpt.Brush{
				Mesh: m,
				Params: sculpt.Params{
					Radius:      cfg.Brush.Radius,
					Intensity:   cfg.Brush.Intensity,
					SubdivRatio: cfg.Brush.SubdivRatio,
					Reduce:      cfg.Brush.Reduce,
				},
				Position: center,
				Effect: sculpt.DisplaceEffect(sculpt.Falloff{
					Radius:   cfg.Brush.Radius,
					Height:   0.05 * cfg.Brush.Radius,
					Exponent: 2,
				}),
			}
			sculpt.Sculpt(brush)
		} else {
			rec := action.NewRecorder()
			cache := sculpt.NewCarveCache()
			sculpt.Carve(m, center, carveBrush, rec, cache)

			// Exercise the undo path on the last carve stroke.
			if i == cfg.Bench.Strokes-1 && rec.Len() > 0 {
				rec.Undo(m)
				rec.Redo(m)
			}
			cache.Reset()
		}

		if m.IsEmpty() {
			logger.Warn("mesh emptied by reduction", zap.Int("stroke", i))
			break
		}
		logger.Info("stroke applied",
			zap.Int("stroke", i),
			zap.Int("vertices", m.VertexCount()),
			zap.Int("faces", m.FaceCount()))
	}

	if !m.IsEmpty() {
		sculpt.SmoothMesh(m, cfg.Bench.SmoothRounds)
		sculpt.CollapseDegeneratedEdges(m)

		if err := m.Check(); err != nil {
			return fmt.Errorf("final mesh check: %w", err)
		}
	}

	buf := m.Buffer()
	logger.Info("session finished",
		zap.Int("vertices", len(buf.Positions)/3),
		zap.Int("triangles", len(buf.Indices)/3))
	return nil
}

// seedMesh builds the starting shape: a subdivided icosphere, or the
// convex hull of random points on a sphere.
func seedMesh(cfg *config.Config, rng *rand.Rand) (*mesh.Mesh, error) {
	switch cfg.Bench.Shape {
	case "icosphere":
		return mesh.NewIcoSphere(mgl32.Vec3{}, cfg.Bench.MeshRadius, cfg.Bench.Subdivisions), nil

	case "hull":
		points := make([]r3.Vector, cfg.Bench.HullSamples)
		for i := range points {
			d := randUnit(rng)
			points[i] = r3.Vector{
				X: float64(d.X() * cfg.Bench.MeshRadius),
				Y: float64(d.Y() * cfg.Bench.MeshRadius),
				Z: float64(d.Z() * cfg.Bench.MeshRadius),
			}
		}
		hull := new(quickhull.QuickHull).ConvexHull(points, true, false, 0)

		positions := make([]mgl32.Vec3, len(hull.Vertices))
		for i, v := range hull.Vertices {
			positions[i] = mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
		}
		faces := make([][3]int, 0, len(hull.Indices)/3)
		for i := 0; i+2 < len(hull.Indices); i += 3 {
			faces = append(faces, [3]int{hull.Indices[i], hull.Indices[i+1], hull.Indices[i+2]})
		}
		return mesh.NewFromTriangles(positions, faces)

	default:
		return nil, fmt.Errorf("unknown seed shape %q", cfg.Bench.Shape)
	}
}

// surfacePoint shoots a ray from outside the mesh toward the origin and
// returns the nearest surface hit.
func surfacePoint(m *mesh.Mesh, meshRadius float32, rng *rand.Rand) (mgl32.Vec3, bool) {
	dir := randUnit(rng)
	ray := geom.NewRay(dir.Mul(4*meshRadius), dir.Mul(-1))

	best := float32(-1)
	var hit mgl32.Vec3
	for _, f := range m.FacesIntersectingSphere(geom.Sphere{Radius: 4 * meshRadius}) {
		if t, ok := geom.RayTriangle(ray, m.FaceTriangle(f)); ok && (best < 0 || t < best) {
			best = t
			hit = ray.At(t)
		}
	}
	return hit, best >= 0
}

func randUnit(rng *rand.Rand) mgl32.Vec3 {
	for {
		v := mgl32.Vec3{
			float32(rng.Float64()*2 - 1),
			float32(rng.Float64()*2 - 1),
			float32(rng.Float64()*2 - 1),
		}
		if l := v.LenSqr(); l > 0.01 && l <= 1 {
			return v.Normalize()
		}
	}
}
