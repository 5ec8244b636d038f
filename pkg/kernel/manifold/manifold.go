//go:build manifold

// Package manifold implements the kernel.Kernel interface on the
// Manifold library (https://github.com/elalish/manifold) through its C
// binding. Manifold provides guaranteed-manifold mesh boolean
// operations, so cuts stay watertight.
//
// The backend currently supports circular sketch sections (circles and
// annuli) on sketch planes whose normal is the world Z axis, which is
// enough for cylindrical snap joints. Polyline and arc profiles need
// manifoldc's cross-section API.
// TODO: build polygon profiles via manifold_cross_section once the
// manifoldc version is pinned.
//
// This package requires the Manifold C library (manifoldc) to be
// installed. Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"log"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/clasp/pkg/geom"
	"github.com/chazu/clasp/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*Backend)(nil)
var _ kernel.Mesher = (*Backend)(nil)
var _ kernel.Body = (*body)(nil)
var _ kernel.Solid = (*manifoldSolid)(nil)

// circleSegments is the polygon resolution for cylinder sections.
const circleSegments = 64

// manifoldSolid wraps a C ManifoldManifold pointer and implements
// kernel.Solid.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *manifoldSolid) BoundingBox() (min, max r3.Vec) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min = r3.Vec{
		X: float64(C.manifold_box_min_x(bbox)),
		Y: float64(C.manifold_box_min_y(bbox)),
		Z: float64(C.manifold_box_min_z(bbox)),
	}
	max = r3.Vec{
		X: float64(C.manifold_box_max_x(bbox)),
		Y: float64(C.manifold_box_max_y(bbox)),
		Z: float64(C.manifold_box_max_z(bbox)),
	}
	return min, max
}

// newSolid wraps a C ManifoldManifold pointer with a Go-side finalizer
// for automatic memory management.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// body is a named document body. Cuts mutate it in place.
type body struct {
	name  string
	solid *manifoldSolid
}

func (b *body) BoundingBox() (min, max r3.Vec) { return b.solid.BoundingBox() }

// circSection is one circular region of a sketch: a disc when inner is
// zero, an annulus otherwise.
type circSection struct {
	center r2.Vec
	inner  float64
	outer  float64
}

// sketch implements kernel.Sketch for circular sections.
type sketch struct {
	frame    geom.Frame
	sections []circSection
}

func (s *sketch) Plane() geom.Frame { return s.frame }

// emptySet is the edge/face set of a mesh solid. The C binding exposes
// no persistent edge or face identities to collect.
type emptySet struct{}

func (emptySet) Count() int { return 0 }

// Backend implements kernel.Kernel using the Manifold C library.
type Backend struct {
	bodies map[string]*body
}

// New creates a new Backend. Returns an error if the Manifold C library
// cannot be initialized.
func New() (kernel.Kernel, error) {
	return &Backend{bodies: make(map[string]*body)}, nil
}

// AddBox registers a named axis-aligned box body centered at the given
// point, so EvaluateSelection can resolve it.
func (k *Backend) AddBox(name string, size, at r3.Vec) {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cube(alloc,
		C.double(size.X), C.double(size.Y), C.double(size.Z),
		C.int(1), // center=true
	)
	if at != (r3.Vec{}) {
		moved := C.manifold_translate(C.manifold_alloc_manifold(), ptr,
			C.double(at.X), C.double(at.Y), C.double(at.Z))
		ptr = moved
	}
	k.bodies[name] = &body{name: name, solid: newSolid(ptr)}
}

// EvaluateSelection resolves a registered body by name.
func (k *Backend) EvaluateSelection(query string) (kernel.Body, error) {
	b, ok := k.bodies[query]
	if !ok {
		return nil, fmt.Errorf("manifold: no body matches selection %q", query)
	}
	return b, nil
}

// Centroid approximates the centroid as the bounding box center.
func (k *Backend) Centroid(kb kernel.Body) (r3.Vec, error) {
	b, ok := kb.(*body)
	if !ok {
		return r3.Vec{}, fmt.Errorf("manifold: foreign body handle %T", kb)
	}
	min, max := b.BoundingBox()
	return r3.Scale(0.5, r3.Add(min, max)), nil
}

// CreateSketchPlane starts an empty sketch. Only planes normal to the
// world Z axis are accepted, because manifold cylinders are built along
// Z and this backend has no general plane transform yet.
func (k *Backend) CreateSketchPlane(f geom.Frame) (kernel.Sketch, error) {
	if math.Abs(math.Abs(f.Normal.Z)-1) > 1e-9 {
		return nil, fmt.Errorf("manifold: sketch plane normal must be the Z axis: %w", kernel.ErrUnsupported)
	}
	return &sketch{frame: f}, nil
}

// AddPolyline is not available; polygon profiles need the cross-section
// API.
func (k *Backend) AddPolyline(kernel.Sketch, []r2.Vec) error {
	return fmt.Errorf("manifold: polyline sections: %w", kernel.ErrUnsupported)
}

// AddArc is not available, as with AddPolyline.
func (k *Backend) AddArc(kernel.Sketch, r2.Vec, float64, float64, float64) error {
	return fmt.Errorf("manifold: arc sections: %w", kernel.ErrUnsupported)
}

// AddCircle adds a full circular region.
func (k *Backend) AddCircle(ks kernel.Sketch, center r2.Vec, radius float64) error {
	s, err := k.sketch(ks)
	if err != nil {
		return err
	}
	if radius <= 0 {
		return fmt.Errorf("manifold: circle radius must be positive, got %g", radius)
	}
	s.sections = append(s.sections, circSection{center: center, outer: radius})
	return nil
}

// AddAnnulus adds the region between two concentric circles.
func (k *Backend) AddAnnulus(ks kernel.Sketch, center r2.Vec, inner, outer float64) error {
	s, err := k.sketch(ks)
	if err != nil {
		return err
	}
	if inner >= outer {
		return fmt.Errorf("manifold: annulus inner %g must be below outer %g", inner, outer)
	}
	s.sections = append(s.sections, circSection{center: center, inner: inner, outer: outer})
	return nil
}

// Extrude sweeps the sketch sections along direction by depth, starting
// at the sketch plane.
func (k *Backend) Extrude(ks kernel.Sketch, direction r3.Vec, depth float64) (kernel.Solid, error) {
	s, err := k.sketch(ks)
	if err != nil {
		return nil, err
	}
	return k.sweep(s, direction, depth)
}

// Cut sweeps the sketch sections and removes the swept region from the
// target body.
func (k *Backend) Cut(ks kernel.Sketch, direction r3.Vec, depth float64, target kernel.Body) (kernel.Solid, error) {
	s, err := k.sketch(ks)
	if err != nil {
		return nil, err
	}
	b, ok := target.(*body)
	if !ok {
		return nil, fmt.Errorf("manifold: foreign body handle %T", target)
	}
	tool, err := k.sweep(s, direction, depth)
	if err != nil {
		return nil, err
	}
	alloc := C.manifold_alloc_manifold()
	b.solid = newSolid(C.manifold_difference(alloc, b.solid.ptr, tool.ptr))
	return tool, nil
}

// Revolve is not available; revolved cross-sections need polygon
// profiles.
func (k *Backend) Revolve(kernel.Sketch, r3.Vec, float64) (kernel.Solid, error) {
	return nil, fmt.Errorf("manifold: revolve: %w", kernel.ErrUnsupported)
}

// sweep builds one cylinder (or shell) per section and unions them.
func (k *Backend) sweep(s *sketch, direction r3.Vec, depth float64) (*manifoldSolid, error) {
	if len(s.sections) == 0 {
		return nil, fmt.Errorf("manifold: sketch has no geometry")
	}
	if depth <= 0 {
		return nil, fmt.Errorf("manifold: sweep depth must be positive, got %g", depth)
	}
	sign := 1.0
	if r3.Dot(direction, s.frame.Normal) < 0 {
		sign = -1
	}
	// The cylinders are centered; shift them so the sweep starts at the
	// sketch plane and advances along the (Z-aligned) normal.
	binormal := r3.Cross(s.frame.Normal, s.frame.Lateral)
	var out *manifoldSolid
	for _, sec := range s.sections {
		at := s.frame.Origin
		at = r3.Add(at, r3.Scale(sec.center.X, s.frame.Lateral))
		at = r3.Add(at, r3.Scale(sec.center.Y, binormal))
		at = r3.Add(at, r3.Scale(sign*depth/2, s.frame.Normal))

		solid := cylinderAt(depth, sec.outer, at)
		if sec.inner > 0 {
			hole := cylinderAt(depth, sec.inner, at)
			alloc := C.manifold_alloc_manifold()
			solid = newSolid(C.manifold_difference(alloc, solid.ptr, hole.ptr))
		}
		if out == nil {
			out = solid
		} else {
			alloc := C.manifold_alloc_manifold()
			out = newSolid(C.manifold_union(alloc, out.ptr, solid.ptr))
		}
	}
	return out, nil
}

// cylinderAt builds a Z-aligned cylinder centered at the given point.
func cylinderAt(height, radius float64, at r3.Vec) *manifoldSolid {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cylinder(alloc,
		C.double(height),
		C.double(radius), // radius_low
		C.double(radius), // radius_high (same = not tapered)
		C.int(circleSegments),
		C.int(1), // center=true
	)
	moved := C.manifold_translate(C.manifold_alloc_manifold(), ptr,
		C.double(at.X), C.double(at.Y), C.double(at.Z))
	return newSolid(moved)
}

// Fillet rounds the given edges. The C binding exposes no edge
// topology, so the only set this backend produces is empty.
func (k *Backend) Fillet(edges kernel.EdgeSet, radius float64) error {
	if edges == nil || edges.Count() == 0 {
		return nil
	}
	return fmt.Errorf("manifold: fillet: %w", kernel.ErrUnsupported)
}

// Draft tapers the given faces. As with Fillet, non-empty sets cannot
// occur from this backend's own solids.
func (k *Backend) Draft(faces kernel.FaceSet, angle float64, pullDirection r3.Vec) error {
	if faces == nil || faces.Count() == 0 {
		return nil
	}
	return fmt.Errorf("manifold: draft: %w", kernel.ErrUnsupported)
}

// AdjacentEdges returns the edges bordering a solid. Always empty.
func (k *Backend) AdjacentEdges(kernel.Solid) kernel.EdgeSet { return emptySet{} }

// CreatedFaces returns the faces of a solid. Always empty.
func (k *Backend) CreatedFaces(kernel.Solid) kernel.FaceSet { return emptySet{} }

// ReportFinding logs the finding.
func (k *Backend) ReportFinding(severity, message string) {
	log.Printf("manifold: %s: %s", severity, message)
}

func (k *Backend) sketch(ks kernel.Sketch) (*sketch, error) {
	s, ok := ks.(*sketch)
	if !ok {
		return nil, fmt.Errorf("manifold: foreign sketch handle %T", ks)
	}
	return s, nil
}

// ToMesh extracts a triangle mesh from the solid using Manifold's
// MeshGL format. Vertex positions and normals are interleaved in
// MeshGL; this method separates them into the kernel.Mesh flat-array
// layout.
func (k *Backend) ToMesh(ks kernel.Solid) (*kernel.Mesh, error) {
	ms, ok := ks.(*manifoldSolid)
	if !ok {
		return nil, fmt.Errorf("manifold: foreign solid handle %T", ks)
	}

	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, ms.ptr)
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))

	if numVert == 0 || numTri == 0 {
		return &kernel.Mesh{}, nil
	}

	// MeshGL stores vertex properties in a flat float array with
	// numProp properties per vertex. The first 3 are always position;
	// normals follow at indices 3, 4, 5 when present.
	numProp := int(C.manifold_meshgl_num_prop(meshGL))

	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)

	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		meshGL,
	)

	vertices := make([]float32, numVert*3)
	var normals []float32
	hasNormals := numProp >= 6
	if hasNormals {
		normals = make([]float32, numVert*3)
	}

	for i := 0; i < numVert; i++ {
		base := i * numProp
		vertices[i*3+0] = propData[base+0]
		vertices[i*3+1] = propData[base+1]
		vertices[i*3+2] = propData[base+2]
		if hasNormals {
			normals[i*3+0] = propData[base+3]
			normals[i*3+1] = propData[base+4]
			normals[i*3+2] = propData[base+5]
		}
	}

	if !hasNormals {
		normals = computeFlatNormals(vertices, indices)
	}

	mesh := &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}

	if mesh.VertexCount() != numVert {
		return nil, fmt.Errorf("manifold: vertex count mismatch: got %d, expected %d",
			mesh.VertexCount(), numVert)
	}

	return mesh, nil
}

// computeFlatNormals generates per-vertex normals by averaging the face
// normals of all triangles incident on each vertex. This is a fallback
// when MeshGL does not include normals in the vertex properties.
func computeFlatNormals(vertices []float32, indices []uint32) []float32 {
	numVerts := len(vertices) / 3
	normals := make([]float32, numVerts*3)

	numTris := len(indices) / 3
	for t := 0; t < numTris; t++ {
		i0 := indices[t*3+0]
		i1 := indices[t*3+1]
		i2 := indices[t*3+2]

		ax, ay, az := float64(vertices[i0*3]), float64(vertices[i0*3+1]), float64(vertices[i0*3+2])
		bx, by, bz := float64(vertices[i1*3]), float64(vertices[i1*3+1]), float64(vertices[i1*3+2])
		cx, cy, cz := float64(vertices[i2*3]), float64(vertices[i2*3+1]), float64(vertices[i2*3+2])

		e1x, e1y, e1z := bx-ax, by-ay, bz-az
		e2x, e2y, e2z := cx-ax, cy-ay, cz-az

		// Cross product (unnormalized face normal).
		nx := float32(e1y*e2z - e1z*e2y)
		ny := float32(e1z*e2x - e1x*e2z)
		nz := float32(e1x*e2y - e1y*e2x)

		for _, idx := range []uint32{i0, i1, i2} {
			normals[idx*3+0] += nx
			normals[idx*3+1] += ny
			normals[idx*3+2] += nz
		}
	}

	for i := 0; i < numVerts; i++ {
		nx := float64(normals[i*3+0])
		ny := float64(normals[i*3+1])
		nz := float64(normals[i*3+2])
		length := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if length > 1e-12 {
			normals[i*3+0] = float32(nx / length)
			normals[i*3+1] = float32(ny / length)
			normals[i*3+2] = float32(nz / length)
		}
	}

	return normals
}
