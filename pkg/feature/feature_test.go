package feature

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/chazu/clasp/pkg/geom"
	"github.com/chazu/clasp/pkg/kernel"
	"github.com/chazu/clasp/pkg/snap"
	"github.com/chazu/clasp/pkg/unit"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// --- recording kernel ---

type recBody struct{ centroid r3.Vec }

func (b *recBody) BoundingBox() (min, max r3.Vec) { return b.centroid, b.centroid }

type recSketch struct{ frame geom.Frame }

func (s *recSketch) Plane() geom.Frame { return s.frame }

type recSolid struct{}

func (recSolid) BoundingBox() (min, max r3.Vec) { return r3.Vec{}, r3.Vec{} }

type recSet struct{ n int }

func (s recSet) Count() int { return s.n }

type cutRecord struct {
	depth  float64
	origin r3.Vec
}

type draftRecord struct {
	angle float64
	pull  r3.Vec
}

// recKernel records every call for sequence and argument assertions.
type recKernel struct {
	bodies map[string]r3.Vec

	calls         []string
	sketchFrames  []geom.Frame
	polylines     [][]r2.Vec
	extrudeDepths []float64
	cuts          []cutRecord
	revolveAngles []float64
	filletRadii   []float64
	drafts        []draftRecord
	reported      []string

	failSelection bool
}

var _ kernel.Kernel = (*recKernel)(nil)

func newRecKernel() *recKernel {
	return &recKernel{bodies: map[string]r3.Vec{
		"bracket": {},
		"housing": {X: 10},
	}}
}

func (k *recKernel) EvaluateSelection(query string) (kernel.Body, error) {
	k.calls = append(k.calls, "EvaluateSelection")
	if k.failSelection {
		return nil, fmt.Errorf("host rejected selection %q", query)
	}
	c, ok := k.bodies[query]
	if !ok {
		return nil, fmt.Errorf("no body %q", query)
	}
	return &recBody{centroid: c}, nil
}

func (k *recKernel) Centroid(b kernel.Body) (r3.Vec, error) {
	k.calls = append(k.calls, "Centroid")
	return b.(*recBody).centroid, nil
}

func (k *recKernel) CreateSketchPlane(f geom.Frame) (kernel.Sketch, error) {
	k.calls = append(k.calls, "CreateSketchPlane")
	k.sketchFrames = append(k.sketchFrames, f)
	return &recSketch{frame: f}, nil
}

func (k *recKernel) AddPolyline(s kernel.Sketch, points []r2.Vec) error {
	k.calls = append(k.calls, "AddPolyline")
	k.polylines = append(k.polylines, points)
	return nil
}

func (k *recKernel) AddArc(s kernel.Sketch, center r2.Vec, radius, startAngle, endAngle float64) error {
	k.calls = append(k.calls, "AddArc")
	return nil
}

func (k *recKernel) AddCircle(s kernel.Sketch, center r2.Vec, radius float64) error {
	k.calls = append(k.calls, "AddCircle")
	return nil
}

func (k *recKernel) AddAnnulus(s kernel.Sketch, center r2.Vec, inner, outer float64) error {
	k.calls = append(k.calls, "AddAnnulus")
	return nil
}

func (k *recKernel) Extrude(s kernel.Sketch, direction r3.Vec, depth float64) (kernel.Solid, error) {
	k.calls = append(k.calls, "Extrude")
	k.extrudeDepths = append(k.extrudeDepths, depth)
	return recSolid{}, nil
}

func (k *recKernel) Cut(s kernel.Sketch, direction r3.Vec, depth float64, target kernel.Body) (kernel.Solid, error) {
	k.calls = append(k.calls, "Cut")
	k.cuts = append(k.cuts, cutRecord{depth: depth, origin: s.Plane().Origin})
	return recSolid{}, nil
}

func (k *recKernel) Revolve(s kernel.Sketch, axis r3.Vec, angle float64) (kernel.Solid, error) {
	k.calls = append(k.calls, "Revolve")
	k.revolveAngles = append(k.revolveAngles, angle)
	return recSolid{}, nil
}

func (k *recKernel) Fillet(edges kernel.EdgeSet, radius float64) error {
	k.calls = append(k.calls, "Fillet")
	k.filletRadii = append(k.filletRadii, radius)
	return nil
}

func (k *recKernel) Draft(faces kernel.FaceSet, angle float64, pull r3.Vec) error {
	k.calls = append(k.calls, "Draft")
	k.drafts = append(k.drafts, draftRecord{angle: angle, pull: pull})
	return nil
}

func (k *recKernel) AdjacentEdges(kernel.Solid) kernel.EdgeSet { return recSet{n: 4} }
func (k *recKernel) CreatedFaces(kernel.Solid) kernel.FaceSet  { return recSet{n: 6} }

func (k *recKernel) ReportFinding(severity, message string) {
	k.calls = append(k.calls, "ReportFinding")
	k.reported = append(k.reported, severity+": "+message)
}

// --- tests ---

func TestGenerateSnapFitInvalidParamsMakeNoKernelCalls(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*snap.Parameters)
	}{
		{"zero beam length", func(p *snap.Parameters) { p.Cantilever.BeamLength = 0 }},
		{"zero snap depth", func(p *snap.Parameters) { p.SnapDepth = 0 }},
		{"negative clearance", func(p *snap.Parameters) { p.Clearance = unit.Millimetres(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := newRecKernel()
			p := snap.DefaultFor(snap.Cantilever)
			tt.mutate(&p)

			_, err := GenerateSnapFit(k, "bracket", "housing", p, Options{})
			var perr *snap.ParameterError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *snap.ParameterError", err)
			}
			if len(k.calls) != 0 {
				t.Errorf("kernel received %v before validation failure", k.calls)
			}
		})
	}
}

func TestGenerateSnapFitCantilever(t *testing.T) {
	k := newRecKernel()
	p := snap.DefaultFor(snap.Cantilever)

	res, err := GenerateSnapFit(k, "bracket", "housing", p, Options{})
	if err != nil {
		t.Fatalf("GenerateSnapFit() error = %v", err)
	}

	wantCalls := []string{
		"EvaluateSelection", "EvaluateSelection", "Centroid", "Centroid",
		"CreateSketchPlane", "AddPolyline", "Extrude",
		"CreateSketchPlane", "AddPolyline", "Cut",
	}
	if strings.Join(k.calls, " ") != strings.Join(wantCalls, " ") {
		t.Errorf("calls = %v, want %v", k.calls, wantCalls)
	}

	if len(res.MaleFeatures) != 1 || len(res.FemaleFeatures) != 1 {
		t.Errorf("features = %d male, %d female, want 1 and 1",
			len(res.MaleFeatures), len(res.FemaleFeatures))
	}
	// Male extrusion is one beam width deep; the cavity cut adds the
	// clearance on both sides.
	if got := k.extrudeDepths[0]; math.Abs(got-5) > 1e-9 {
		t.Errorf("extrude depth = %g, want 5", got)
	}
	if got := k.cuts[0].depth; math.Abs(got-5.2) > 1e-9 {
		t.Errorf("cut depth = %g, want 5.2", got)
	}
	// Default parameters are printable: nothing to report.
	if len(res.Findings) != 0 || len(k.reported) != 0 {
		t.Errorf("findings = %v, reported = %v, want none", res.Findings, k.reported)
	}
}

func TestGenerateSnapFitReportsFindings(t *testing.T) {
	k := newRecKernel()
	p := snap.DefaultFor(snap.Cantilever)
	p.Cantilever.BeamThickness = unit.Millimetres(0.5)

	res, err := GenerateSnapFit(k, "bracket", "housing", p, Options{})
	if err != nil {
		t.Fatalf("GenerateSnapFit() error = %v", err)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("findings = %v, want 1", res.Findings)
	}
	if len(k.reported) != 1 || !strings.Contains(k.reported[0], "thin") {
		t.Errorf("reported = %v, want one message containing 'thin'", k.reported)
	}
}

func TestGenerateSnapFitDegenerateCentroids(t *testing.T) {
	k := newRecKernel()
	k.bodies["housing"] = k.bodies["bracket"]

	_, err := GenerateSnapFit(k, "bracket", "housing", snap.DefaultFor(snap.Cantilever), Options{})
	if !errors.Is(err, geom.ErrDegenerateGeometry) {
		t.Fatalf("error = %v, want ErrDegenerateGeometry", err)
	}
	for _, c := range k.calls {
		if c == "CreateSketchPlane" || c == "Extrude" || c == "Cut" {
			t.Errorf("kernel mutated document (%s) after degenerate frame", c)
		}
	}
}

func TestGenerateSnapFitFilletRadiusClamp(t *testing.T) {
	k := newRecKernel()
	p := snap.DefaultFor(snap.Cantilever) // governing thickness 2mm

	_, err := GenerateSnapFit(k, "bracket", "housing", p, Options{
		AddFillets:   true,
		FilletRadius: unit.Millimetres(5),
	})
	if err != nil {
		t.Fatalf("GenerateSnapFit() error = %v", err)
	}
	if len(k.filletRadii) != 1 {
		t.Fatalf("fillet calls = %d, want 1", len(k.filletRadii))
	}
	// min(5, 0.2*2) = 0.4
	if got := k.filletRadii[0]; math.Abs(got-0.4) > 1e-9 {
		t.Errorf("fillet radius = %g, want 0.4", got)
	}
}

func TestGenerateSnapFitDraftDefaultsToFrameNormal(t *testing.T) {
	k := newRecKernel()
	p := snap.DefaultFor(snap.Cantilever)

	_, err := GenerateSnapFit(k, "bracket", "housing", p, Options{
		AddDraftAngles: true,
		DraftAngle:     unit.Degrees(2),
	})
	if err != nil {
		t.Fatalf("GenerateSnapFit() error = %v", err)
	}
	if len(k.drafts) != 1 {
		t.Fatalf("draft calls = %d, want 1", len(k.drafts))
	}
	// Bodies sit along +X, so the frame normal is +X.
	if got := k.drafts[0].pull; r3.Norm(r3.Sub(got, r3.Vec{X: 1})) > 1e-9 {
		t.Errorf("pull direction = %v, want frame normal (1,0,0)", got)
	}
	if got := k.drafts[0].angle; math.Abs(got-2*math.Pi/180) > 1e-9 {
		t.Errorf("draft angle = %g rad, want 2 degrees", got)
	}
}

func TestGenerateSnapFitCylindrical(t *testing.T) {
	k := newRecKernel()
	p := snap.DefaultFor(snap.Cylindrical) // post=8, ring=6, d=1, clearance=0.1

	res, err := GenerateSnapFit(k, "bracket", "housing", p, Options{})
	if err != nil {
		t.Fatalf("GenerateSnapFit() error = %v", err)
	}

	if len(res.MaleFeatures) != 2 {
		t.Errorf("male features = %d, want 2 (post, lip)", len(res.MaleFeatures))
	}
	if len(res.FemaleFeatures) != 3 {
		t.Errorf("female features = %d, want 3 (ring, groove, entry)", len(res.FemaleFeatures))
	}

	// Extrusions: post height then ring height.
	if len(k.extrudeDepths) != 2 ||
		math.Abs(k.extrudeDepths[0]-8) > 1e-9 ||
		math.Abs(k.extrudeDepths[1]-6) > 1e-9 {
		t.Errorf("extrude depths = %v, want [8 6]", k.extrudeDepths)
	}

	// Cuts: groove (snapDepth+clearance) then entry chamfer (snapDepth/2).
	if len(k.cuts) != 2 ||
		math.Abs(k.cuts[0].depth-1.1) > 1e-9 ||
		math.Abs(k.cuts[1].depth-0.5) > 1e-9 {
		t.Errorf("cut depths = %v, want [1.1 0.5]", k.cuts)
	}

	// The groove is sketched on a plane offset postHeight - snapDepth/2
	// along the normal (bodies sit along +X).
	wantGrooveOrigin := r3.Vec{X: 7.5}
	if r3.Norm(r3.Sub(k.cuts[0].origin, wantGrooveOrigin)) > 1e-9 {
		t.Errorf("groove sketch origin = %v, want %v", k.cuts[0].origin, wantGrooveOrigin)
	}

	// The lip revolves a full turn.
	if len(k.revolveAngles) != 1 || math.Abs(k.revolveAngles[0]-2*math.Pi) > 1e-9 {
		t.Errorf("revolve angles = %v, want [2pi]", k.revolveAngles)
	}
}

func TestGenerateSnapFitKernelErrorPropagates(t *testing.T) {
	k := newRecKernel()
	k.failSelection = true

	_, err := GenerateSnapFit(k, "bracket", "housing", snap.DefaultFor(snap.Cantilever), Options{})
	if err == nil || !strings.Contains(err.Error(), "host rejected selection") {
		t.Errorf("error = %v, want propagated host error", err)
	}
}
