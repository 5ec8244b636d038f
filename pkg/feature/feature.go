// Package feature sequences frame construction, profile generation,
// kernel realization and printability analysis into a single snap-fit
// generation pass. It is the only package that drives a kernel.Kernel;
// everything it delegates to is pure.
package feature

import (
	"fmt"
	"math"

	"github.com/chazu/clasp/pkg/geom"
	"github.com/chazu/clasp/pkg/kernel"
	"github.com/chazu/clasp/pkg/sketch"
	"github.com/chazu/clasp/pkg/snap"
	"github.com/chazu/clasp/pkg/unit"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// filletFraction caps post-processing fillets relative to the governing
// wall thickness.
const filletFraction = 0.2

// Options gate the optional kernel-side post-processing steps.
type Options struct {
	// AddFillets rounds the stress edges adjacent to each male feature
	// at min(FilletRadius, 0.2 * governing thickness).
	AddFillets   bool
	FilletRadius unit.Length

	// AddDraftAngles tapers the created faces of each male feature by
	// DraftAngle along PullDirection. A zero PullDirection defaults to
	// the frame normal.
	AddDraftAngles bool
	DraftAngle     unit.Angle
	PullDirection  r3.Vec
}

// Result aggregates the opaque feature handles created during one
// generation pass together with the advisory findings.
type Result struct {
	MaleFeatures   []kernel.Solid
	FemaleFeatures []kernel.Solid
	Findings       []snap.Finding
}

// GenerateSnapFit builds snap-fit geometry between the two selected
// bodies. Parameter validation runs before the first kernel call; an
// invalid parameter set aborts with no document mutation. Once kernel
// calls begin, any kernel failure propagates unchanged - rollback is
// the host transaction's concern. Printability findings never block
// generation.
func GenerateSnapFit(k kernel.Kernel, maleQuery, femaleQuery string, p snap.Parameters, opts Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	maleBody, err := k.EvaluateSelection(maleQuery)
	if err != nil {
		return nil, fmt.Errorf("resolve male selection: %w", err)
	}
	femaleBody, err := k.EvaluateSelection(femaleQuery)
	if err != nil {
		return nil, fmt.Errorf("resolve female selection: %w", err)
	}
	maleCentroid, err := k.Centroid(maleBody)
	if err != nil {
		return nil, fmt.Errorf("male centroid: %w", err)
	}
	femaleCentroid, err := k.Centroid(femaleBody)
	if err != nil {
		return nil, fmt.Errorf("female centroid: %w", err)
	}

	frame, err := geom.NewFrame(maleCentroid, femaleCentroid, p.PositionOffset)
	if err != nil {
		return nil, err
	}

	male, female := snap.Profiles(p)

	res := &Result{}
	switch p.Kind {
	case snap.Cylindrical:
		err = realizeCylindrical(k, frame, p, male, female, femaleBody, res)
	default:
		err = realizeCantilever(k, frame, p, male, female, femaleBody, res)
	}
	if err != nil {
		return nil, err
	}

	if opts.AddFillets {
		radius := math.Min(opts.FilletRadius.Millimetres(),
			filletFraction*p.GoverningThickness().Millimetres())
		for _, s := range res.MaleFeatures {
			if err := k.Fillet(k.AdjacentEdges(s), radius); err != nil {
				return nil, fmt.Errorf("fillet: %w", err)
			}
		}
	}
	if opts.AddDraftAngles {
		pull := opts.PullDirection
		if pull == (r3.Vec{}) {
			pull = frame.Normal
		}
		for _, s := range res.MaleFeatures {
			if err := k.Draft(k.CreatedFaces(s), opts.DraftAngle.Radians(), pull); err != nil {
				return nil, fmt.Errorf("draft: %w", err)
			}
		}
	}

	res.Findings = snap.AnalyzePrintability(p)
	for _, f := range res.Findings {
		k.ReportFinding(f.Severity.String(), f.Message)
	}
	return res, nil
}

// realizeCantilever extrudes the hook beam and cuts the cavity. The
// male depth is the beam width; the cavity cut is widened by the
// clearance on both sides.
func realizeCantilever(k kernel.Kernel, frame geom.Frame, p snap.Parameters, male, female sketch.Profile, femaleBody kernel.Body, res *Result) error {
	maleSketch, err := k.CreateSketchPlane(frame)
	if err != nil {
		return fmt.Errorf("male sketch: %w", err)
	}
	if err := addProfile(k, maleSketch, male); err != nil {
		return fmt.Errorf("male profile: %w", err)
	}
	beam, err := k.Extrude(maleSketch, frame.Normal, p.Cantilever.BeamWidth.Millimetres())
	if err != nil {
		return fmt.Errorf("extrude beam: %w", err)
	}
	res.MaleFeatures = append(res.MaleFeatures, beam)

	femaleSketch, err := k.CreateSketchPlane(frame)
	if err != nil {
		return fmt.Errorf("female sketch: %w", err)
	}
	if err := addProfile(k, femaleSketch, female); err != nil {
		return fmt.Errorf("female profile: %w", err)
	}
	cutDepth := p.Cantilever.BeamWidth.Millimetres() + 2*p.Clearance.Millimetres()
	cavity, err := k.Cut(femaleSketch, frame.Normal, cutDepth, femaleBody)
	if err != nil {
		return fmt.Errorf("cut cavity: %w", err)
	}
	res.FemaleFeatures = append(res.FemaleFeatures, cavity)
	return nil
}

// realizeCylindrical extrudes the post, revolves the lip barb and
// builds the receiving ring with its groove and entry chamfer cuts.
// Female profile segment order is ring body, retention groove, entry
// chamfer, as produced by snap.Profiles.
func realizeCylindrical(k kernel.Kernel, frame geom.Frame, p snap.Parameters, male, female sketch.Profile, femaleBody kernel.Body, res *Result) error {
	post, ok := male.Segments[0].(sketch.Circle)
	if !ok {
		return fmt.Errorf("cylindrical male profile: segment 0 is %T, want circle", male.Segments[0])
	}

	postSketch, err := k.CreateSketchPlane(frame)
	if err != nil {
		return fmt.Errorf("post sketch: %w", err)
	}
	if err := k.AddCircle(postSketch, post.Center, post.Radius); err != nil {
		return fmt.Errorf("post circle: %w", err)
	}
	postSolid, err := k.Extrude(postSketch, frame.Normal, p.Cylindrical.PostHeight.Millimetres())
	if err != nil {
		return fmt.Errorf("extrude post: %w", err)
	}
	res.MaleFeatures = append(res.MaleFeatures, postSolid)

	lipSketch, err := k.CreateSketchPlane(frame)
	if err != nil {
		return fmt.Errorf("lip sketch: %w", err)
	}
	lip := sketch.Profile{Side: male.Side, Segments: male.Segments[1:]}
	if err := addProfile(k, lipSketch, lip); err != nil {
		return fmt.Errorf("lip profile: %w", err)
	}
	lipSolid, err := k.Revolve(lipSketch, frame.Normal, 2*math.Pi)
	if err != nil {
		return fmt.Errorf("revolve lip: %w", err)
	}
	res.MaleFeatures = append(res.MaleFeatures, lipSolid)

	annuli := make([]sketch.Annulus, 0, 3)
	for i, seg := range female.Segments {
		a, ok := seg.(sketch.Annulus)
		if !ok {
			return fmt.Errorf("cylindrical female profile: segment %d is %T, want annulus", i, seg)
		}
		annuli = append(annuli, a)
	}
	if len(annuli) != 3 {
		return fmt.Errorf("cylindrical female profile: got %d annuli, want 3", len(annuli))
	}
	ring, groove, entry := annuli[0], annuli[1], annuli[2]

	ringSketch, err := k.CreateSketchPlane(frame)
	if err != nil {
		return fmt.Errorf("ring sketch: %w", err)
	}
	if err := k.AddAnnulus(ringSketch, ring.Center, ring.Inner, ring.Outer); err != nil {
		return fmt.Errorf("ring annulus: %w", err)
	}
	ringSolid, err := k.Extrude(ringSketch, frame.Normal, p.Cylindrical.RingHeight.Millimetres())
	if err != nil {
		return fmt.Errorf("extrude ring: %w", err)
	}
	res.FemaleFeatures = append(res.FemaleFeatures, ringSolid)

	d := p.SnapDepth.Millimetres()
	grooveFrame := offsetFrame(frame, p.Cylindrical.PostHeight.Millimetres()-0.5*d)
	grooveSketch, err := k.CreateSketchPlane(grooveFrame)
	if err != nil {
		return fmt.Errorf("groove sketch: %w", err)
	}
	if err := k.AddAnnulus(grooveSketch, groove.Center, groove.Inner, groove.Outer); err != nil {
		return fmt.Errorf("groove annulus: %w", err)
	}
	grooveCut, err := k.Cut(grooveSketch, frame.Normal, d+p.Clearance.Millimetres(), femaleBody)
	if err != nil {
		return fmt.Errorf("cut groove: %w", err)
	}
	res.FemaleFeatures = append(res.FemaleFeatures, grooveCut)

	entrySketch, err := k.CreateSketchPlane(frame)
	if err != nil {
		return fmt.Errorf("entry sketch: %w", err)
	}
	if err := k.AddAnnulus(entrySketch, entry.Center, entry.Inner, entry.Outer); err != nil {
		return fmt.Errorf("entry annulus: %w", err)
	}
	entryCut, err := k.Cut(entrySketch, frame.Normal, d/2, femaleBody)
	if err != nil {
		return fmt.Errorf("cut entry chamfer: %w", err)
	}
	res.FemaleFeatures = append(res.FemaleFeatures, entryCut)
	return nil
}

// offsetFrame shifts a frame's origin along its normal. Axis-offset
// cuts are sketched on such shifted planes.
func offsetFrame(f geom.Frame, offset float64) geom.Frame {
	f.Origin = r3.Add(f.Origin, r3.Scale(offset, f.Normal))
	return f
}

// addProfile replays a profile's segments onto a sketch in order.
func addProfile(k kernel.Kernel, s kernel.Sketch, p sketch.Profile) error {
	for i, seg := range p.Segments {
		var err error
		switch g := seg.(type) {
		case sketch.Line:
			err = k.AddPolyline(s, []r2.Vec{g.Start, g.End})
		case sketch.Polyline:
			err = k.AddPolyline(s, g.Points)
		case sketch.Arc:
			err = k.AddArc(s, g.Center, g.Radius, g.StartAngle, g.EndAngle)
		case sketch.Circle:
			err = k.AddCircle(s, g.Center, g.Radius)
		case sketch.Annulus:
			err = k.AddAnnulus(s, g.Center, g.Inner, g.Outer)
		default:
			err = fmt.Errorf("unknown segment type %T", seg)
		}
		if err != nil {
			return fmt.Errorf("%s segment %d: %w", p.Side, i, err)
		}
	}
	return nil
}
