// Package sdfx implements the kernel.Kernel interface on the
// github.com/deadsy/sdfx signed-distance CAD library. It keeps an
// in-memory registry of named bodies, so the snap-fit orchestrator can
// be exercised end to end without a CAD host.
package sdfx

import (
	"fmt"
	"log"
	"math"

	"github.com/chazu/clasp/pkg/geom"
	"github.com/chazu/clasp/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Backend)(nil)

const (
	// defaultMeshCells controls marching cubes tessellation resolution.
	defaultMeshCells = 200
	// centroidGrid is the per-axis sample count for centroid estimation.
	centroidGrid = 24
	// arcChords is the chord count used to flatten arcs into polygons.
	arcChords = 16
)

// Backend implements kernel.Kernel using sdfx solids.
type Backend struct {
	bodies   map[string]*body
	findings []Reported
}

// Reported is one finding surfaced through ReportFinding.
type Reported struct {
	Severity string
	Message  string
}

// New returns an empty backend. Register bodies with AddBody before
// resolving selections against it.
func New() *Backend {
	return &Backend{bodies: make(map[string]*body)}
}

// AddBody registers a named solid so EvaluateSelection can resolve it.
func (b *Backend) AddBody(name string, s sdf.SDF3) {
	b.bodies[name] = &body{name: name, shape: s}
}

// Findings returns everything reported through ReportFinding.
func (b *Backend) Findings() []Reported {
	return b.findings
}

// body implements kernel.Body. Cuts mutate shape in place, mirroring a
// host document.
type body struct {
	name  string
	shape sdf.SDF3
}

func (b *body) BoundingBox() (min, max r3.Vec) {
	bb := b.shape.BoundingBox()
	return r3.Vec{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z},
		r3.Vec{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z}
}

// solid implements kernel.Solid.
type solid struct {
	shape sdf.SDF3
}

func (s *solid) BoundingBox() (min, max r3.Vec) {
	bb := s.shape.BoundingBox()
	return r3.Vec{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z},
		r3.Vec{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z}
}

// emptySet is the edge/face set of an SDF solid, which has no b-rep
// topology to enumerate.
type emptySet struct{}

func (emptySet) Count() int { return 0 }

// pathSeg is one element of a sketch boundary path awaiting flattening.
type pathSeg interface{ appendPoints(dst []v2.Vec) []v2.Vec }

type linePath struct{ points []v2.Vec }

func (l linePath) appendPoints(dst []v2.Vec) []v2.Vec { return append(dst, l.points...) }

type arcPath struct {
	center               v2.Vec
	radius, start, sweep float64
}

func (a arcPath) appendPoints(dst []v2.Vec) []v2.Vec {
	for i := 0; i <= arcChords; i++ {
		theta := a.start + a.sweep*float64(i)/arcChords
		dst = append(dst, v2.Vec{
			X: a.center.X + a.radius*math.Cos(theta),
			Y: a.center.Y + a.radius*math.Sin(theta),
		})
	}
	return dst
}

// sketch implements kernel.Sketch. Circles and annuli become regions
// immediately; polylines and arcs accumulate as a boundary path that is
// flattened into a polygon when a solid is created from the sketch.
type sketch struct {
	frame   geom.Frame
	regions []sdf.SDF2
	path    []pathSeg
}

func (s *sketch) Plane() geom.Frame { return s.frame }

// region unions everything sketched so far into one SDF2.
func (s *sketch) region() (sdf.SDF2, error) {
	regions := s.regions
	if len(s.path) > 0 {
		var pts []v2.Vec
		for _, seg := range s.path {
			pts = seg.appendPoints(pts)
		}
		pts = dedupe(pts)
		poly, err := sdf.Polygon2D(pts)
		if err != nil {
			return nil, fmt.Errorf("sdfx: flatten sketch path: %w", err)
		}
		regions = append(regions, poly)
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("sdfx: sketch has no geometry")
	}
	if len(regions) == 1 {
		return regions[0], nil
	}
	return sdf.Union2D(regions...), nil
}

// dedupe drops consecutive near-identical points so that chained path
// segments sharing endpoints do not produce zero-length polygon edges.
func dedupe(pts []v2.Vec) []v2.Vec {
	const tol = 1e-9
	out := pts[:0]
	for _, p := range pts {
		if len(out) > 0 {
			last := out[len(out)-1]
			if math.Abs(p.X-last.X) < tol && math.Abs(p.Y-last.Y) < tol {
				continue
			}
		}
		out = append(out, p)
	}
	// Drop a trailing point that closes back onto the first.
	if len(out) > 1 {
		first, last := out[0], out[len(out)-1]
		if math.Abs(first.X-last.X) < tol && math.Abs(first.Y-last.Y) < tol {
			out = out[:len(out)-1]
		}
	}
	return out
}

// EvaluateSelection resolves a registered body by name.
func (b *Backend) EvaluateSelection(query string) (kernel.Body, error) {
	body, ok := b.bodies[query]
	if !ok {
		return nil, fmt.Errorf("sdfx: no body matches selection %q", query)
	}
	return body, nil
}

// Centroid estimates the centroid by sampling the body's bounding box
// on a uniform grid and averaging the interior samples.
func (b *Backend) Centroid(kb kernel.Body) (r3.Vec, error) {
	bd, ok := kb.(*body)
	if !ok {
		return r3.Vec{}, fmt.Errorf("sdfx: foreign body handle %T", kb)
	}
	bb := bd.shape.BoundingBox()
	size := bb.Max.Sub(bb.Min)

	var sum v3.Vec
	var n int
	for i := 0; i < centroidGrid; i++ {
		for j := 0; j < centroidGrid; j++ {
			for k := 0; k < centroidGrid; k++ {
				p := v3.Vec{
					X: bb.Min.X + size.X*(float64(i)+0.5)/centroidGrid,
					Y: bb.Min.Y + size.Y*(float64(j)+0.5)/centroidGrid,
					Z: bb.Min.Z + size.Z*(float64(k)+0.5)/centroidGrid,
				}
				if bd.shape.Evaluate(p) <= 0 {
					sum = sum.Add(p)
					n++
				}
			}
		}
	}
	if n == 0 {
		return r3.Vec{}, fmt.Errorf("sdfx: body %q has no interior samples", bd.name)
	}
	inv := 1 / float64(n)
	return r3.Vec{X: sum.X * inv, Y: sum.Y * inv, Z: sum.Z * inv}, nil
}

// CreateSketchPlane starts an empty sketch on the frame's plane.
func (b *Backend) CreateSketchPlane(f geom.Frame) (kernel.Sketch, error) {
	return &sketch{frame: f}, nil
}

// AddPolyline appends a straight path through points, in order.
func (b *Backend) AddPolyline(ks kernel.Sketch, points []r2.Vec) error {
	s, err := b.sketch(ks)
	if err != nil {
		return err
	}
	if len(points) < 2 {
		return fmt.Errorf("sdfx: polyline needs at least 2 points, got %d", len(points))
	}
	pts := make([]v2.Vec, len(points))
	for i, p := range points {
		pts[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	s.path = append(s.path, linePath{points: pts})
	return nil
}

// AddArc appends a circular arc to the sketch boundary path.
func (b *Backend) AddArc(ks kernel.Sketch, center r2.Vec, radius, startAngle, endAngle float64) error {
	s, err := b.sketch(ks)
	if err != nil {
		return err
	}
	if radius <= 0 {
		return fmt.Errorf("sdfx: arc radius must be positive, got %g", radius)
	}
	s.path = append(s.path, arcPath{
		center: v2.Vec{X: center.X, Y: center.Y},
		radius: radius,
		start:  startAngle,
		sweep:  endAngle - startAngle,
	})
	return nil
}

// AddCircle adds a full circular region.
func (b *Backend) AddCircle(ks kernel.Sketch, center r2.Vec, radius float64) error {
	s, err := b.sketch(ks)
	if err != nil {
		return err
	}
	c, err := sdf.Circle2D(radius)
	if err != nil {
		return fmt.Errorf("sdfx: circle: %w", err)
	}
	s.regions = append(s.regions, translate2d(c, center))
	return nil
}

// AddAnnulus adds the region between two concentric circles.
func (b *Backend) AddAnnulus(ks kernel.Sketch, center r2.Vec, inner, outer float64) error {
	s, err := b.sketch(ks)
	if err != nil {
		return err
	}
	if inner >= outer {
		return fmt.Errorf("sdfx: annulus inner %g must be below outer %g", inner, outer)
	}
	oc, err := sdf.Circle2D(outer)
	if err != nil {
		return fmt.Errorf("sdfx: annulus outer: %w", err)
	}
	region := sdf.SDF2(oc)
	if inner > 0 {
		ic, err := sdf.Circle2D(inner)
		if err != nil {
			return fmt.Errorf("sdfx: annulus inner: %w", err)
		}
		region = sdf.Difference2D(oc, ic)
	}
	s.regions = append(s.regions, translate2d(region, center))
	return nil
}

// Extrude sweeps the sketch region along direction by depth, starting
// at the sketch plane.
func (b *Backend) Extrude(ks kernel.Sketch, direction r3.Vec, depth float64) (kernel.Solid, error) {
	s, err := b.sketch(ks)
	if err != nil {
		return nil, err
	}
	shape, err := b.sweep(s, direction, depth)
	if err != nil {
		return nil, err
	}
	return &solid{shape: shape}, nil
}

// Cut sweeps the sketch region along direction by depth and removes it
// from the target body.
func (b *Backend) Cut(ks kernel.Sketch, direction r3.Vec, depth float64, target kernel.Body) (kernel.Solid, error) {
	s, err := b.sketch(ks)
	if err != nil {
		return nil, err
	}
	bd, ok := target.(*body)
	if !ok {
		return nil, fmt.Errorf("sdfx: foreign body handle %T", target)
	}
	tool, err := b.sweep(s, direction, depth)
	if err != nil {
		return nil, err
	}
	bd.shape = sdf.Difference3D(bd.shape, tool)
	return &solid{shape: tool}, nil
}

// sweep extrudes the sketch region and places it in world space. The
// extrusion starts at the sketch plane and advances along the plane
// normal; a direction opposing the normal flips it to the other side.
func (b *Backend) sweep(s *sketch, direction r3.Vec, depth float64) (sdf.SDF3, error) {
	region, err := s.region()
	if err != nil {
		return nil, err
	}
	if depth <= 0 {
		return nil, fmt.Errorf("sdfx: sweep depth must be positive, got %g", depth)
	}
	sign := 1.0
	if r3.Dot(direction, s.frame.Normal) < 0 {
		sign = -1
	}
	shape := sdf.Extrude3D(region, depth)
	// Extrude3D is centered on the plane; shift so the sweep starts there.
	m := frameTransform(s.frame).Mul(sdf.Translate3d(v3.Vec{Z: sign * depth / 2}))
	return sdf.Transform3D(shape, m), nil
}

// Revolve spins the sketch path (a radial/axial cross-section) about
// the sketch plane normal through the frame origin. The axis argument
// must not deviate from that normal; an SDF revolution has no other
// axis available.
func (b *Backend) Revolve(ks kernel.Sketch, axis r3.Vec, angle float64) (kernel.Solid, error) {
	s, err := b.sketch(ks)
	if err != nil {
		return nil, err
	}
	if math.Abs(r3.Dot(r3.Unit(axis), s.frame.Normal)) < 1-1e-9 {
		return nil, fmt.Errorf("sdfx: revolve axis must align with the sketch normal: %w", kernel.ErrUnsupported)
	}
	region, err := s.region()
	if err != nil {
		return nil, err
	}
	shape, err := sdf.RevolveTheta3D(region, angle)
	if err != nil {
		return nil, fmt.Errorf("sdfx: revolve: %w", err)
	}
	return &solid{shape: sdf.Transform3D(shape, frameTransform(s.frame))}, nil
}

// Fillet rounds the given edges. An SDF solid exposes no edges, so the
// only set this backend ever produces is empty and there is nothing to
// round.
func (b *Backend) Fillet(edges kernel.EdgeSet, radius float64) error {
	if edges == nil || edges.Count() == 0 {
		return nil
	}
	return fmt.Errorf("sdfx: fillet: %w", kernel.ErrUnsupported)
}

// Draft tapers the given faces. As with Fillet, the backend has no face
// topology, so a non-empty set cannot occur from its own solids.
func (b *Backend) Draft(faces kernel.FaceSet, angle float64, pullDirection r3.Vec) error {
	if faces == nil || faces.Count() == 0 {
		return nil
	}
	return fmt.Errorf("sdfx: draft: %w", kernel.ErrUnsupported)
}

// AdjacentEdges returns the edges bordering a solid. SDF solids have no
// edge topology; the set is always empty.
func (b *Backend) AdjacentEdges(kernel.Solid) kernel.EdgeSet { return emptySet{} }

// CreatedFaces returns the faces of a solid. Always empty, as above.
func (b *Backend) CreatedFaces(kernel.Solid) kernel.FaceSet { return emptySet{} }

// ReportFinding records the finding and logs it.
func (b *Backend) ReportFinding(severity, message string) {
	b.findings = append(b.findings, Reported{Severity: severity, Message: message})
	log.Printf("sdfx: %s: %s", severity, message)
}

// ToMesh tessellates a solid with marching cubes for preview.
func (b *Backend) ToMesh(ks kernel.Solid) (*kernel.Mesh, error) {
	sl, ok := ks.(*solid)
	if !ok {
		return nil, fmt.Errorf("sdfx: foreign solid handle %T", ks)
	}
	renderer := render.NewMarchingCubesUniform(defaultMeshCells)
	triangles := render.ToTriangles(sl.shape, renderer)

	vertices := make([]float32, 0, len(triangles)*9)
	normals := make([]float32, 0, len(triangles)*9)
	indices := make([]uint32, 0, len(triangles)*3)
	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}
	return &kernel.Mesh{Vertices: vertices, Normals: normals, Indices: indices}, nil
}

func (b *Backend) sketch(ks kernel.Sketch) (*sketch, error) {
	s, ok := ks.(*sketch)
	if !ok {
		return nil, fmt.Errorf("sdfx: foreign sketch handle %T", ks)
	}
	return s, nil
}

func translate2d(s sdf.SDF2, center r2.Vec) sdf.SDF2 {
	if center.X == 0 && center.Y == 0 {
		return s
	}
	return sdf.Transform2D(s, sdf.Translate2d(v2.Vec{X: center.X, Y: center.Y}))
}

// frameTransform maps sketch-local coordinates (x lateral, y binormal,
// z normal) into world space. The rotation is composed from axis
// rotations: yaw/pitch send +Z onto the frame normal, then a roll about
// local Z aligns +X with the frame lateral.
func frameTransform(f geom.Frame) sdf.M44 {
	theta := math.Acos(clamp(f.Normal.Z, -1, 1))
	phi := math.Atan2(f.Normal.Y, f.Normal.X)
	if f.Normal.X == 0 && f.Normal.Y == 0 {
		phi = 0
	}

	// Images of local X and Y after yaw and pitch.
	xImg := r3.Vec{
		X: math.Cos(theta) * math.Cos(phi),
		Y: math.Cos(theta) * math.Sin(phi),
		Z: -math.Sin(theta),
	}
	yImg := r3.Vec{X: -math.Sin(phi), Y: math.Cos(phi)}
	psi := math.Atan2(r3.Dot(f.Lateral, yImg), r3.Dot(f.Lateral, xImg))

	m := sdf.Translate3d(v3.Vec{X: f.Origin.X, Y: f.Origin.Y, Z: f.Origin.Z})
	m = m.Mul(sdf.RotateZ(phi))
	m = m.Mul(sdf.RotateY(theta))
	m = m.Mul(sdf.RotateZ(psi))
	return m
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
