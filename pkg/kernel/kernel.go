// Package kernel defines the abstract geometry kernel capability the
// snap-fit orchestrator drives. Implementations (a CAD host binding,
// the sdfx backend) provide selection, sketching and solid modeling
// behind this interface, so the layout logic never depends on a
// particular kernel's internals.
package kernel

import (
	"errors"

	"github.com/chazu/clasp/pkg/geom"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnsupported is returned by backends that lack the topology an
// operation needs (an SDF backend has no edges to fillet).
var ErrUnsupported = errors.New("operation not supported by this kernel")

// Body is an opaque handle to a solid body resolved from a selection.
type Body interface {
	// BoundingBox returns the axis-aligned bounding box in millimetres.
	BoundingBox() (min, max r3.Vec)
}

// Sketch is an opaque handle to a 2D sketch on a plane.
type Sketch interface {
	// Plane returns the frame the sketch was created on.
	Plane() geom.Frame
}

// Solid is an opaque handle to a solid feature created by the kernel.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box in millimetres.
	BoundingBox() (min, max r3.Vec)
}

// EdgeSet is an opaque handle to a set of edges of a solid.
type EdgeSet interface {
	// Count returns the number of edges in the set.
	Count() int
}

// FaceSet is an opaque handle to a set of faces of a solid.
type FaceSet interface {
	// Count returns the number of faces in the set.
	Count() int
}

// Kernel is the geometry capability consumed by the orchestrator.
// All lengths are millimetres, all angles radians. Implementations are
// driven synchronously within a single feature invocation and need no
// internal locking.
type Kernel interface {
	// Selection and measurement.
	EvaluateSelection(query string) (Body, error)
	Centroid(b Body) (r3.Vec, error)

	// Sketching. Sketch coordinates are 2D points in the frame's local
	// plane: x along the lateral axis, y along normal-cross-lateral.
	CreateSketchPlane(f geom.Frame) (Sketch, error)
	AddPolyline(s Sketch, points []r2.Vec) error
	AddArc(s Sketch, center r2.Vec, radius, startAngle, endAngle float64) error
	AddCircle(s Sketch, center r2.Vec, radius float64) error
	AddAnnulus(s Sketch, center r2.Vec, inner, outer float64) error

	// Solid creation. Extrude and Revolve add material; Cut removes the
	// swept region from the target body.
	Extrude(s Sketch, direction r3.Vec, depth float64) (Solid, error)
	Cut(s Sketch, direction r3.Vec, depth float64, target Body) (Solid, error)
	Revolve(s Sketch, axis r3.Vec, angle float64) (Solid, error)

	// Post-processing.
	Fillet(edges EdgeSet, radius float64) error
	Draft(faces FaceSet, angle float64, pullDirection r3.Vec) error

	// Topology queries for post-processing.
	AdjacentEdges(s Solid) EdgeSet
	CreatedFaces(s Solid) FaceSet

	// ReportFinding surfaces an advisory message to the host.
	ReportFinding(severity, message string)
}

// Mesher is implemented by backends that can triangulate their solids
// for preview or export. CAD host bindings that own their own display
// pipeline need not implement it.
type Mesher interface {
	ToMesh(s Solid) (*Mesh, error)
}
