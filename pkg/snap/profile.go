package snap

import (
	"math"

	"github.com/chazu/clasp/pkg/sketch"
	"gonum.org/v1/gonum/spatial/r2"
)

// maxTipChamfer caps the cantilever tip chamfer at 1 mm.
const maxTipChamfer = 1.0

// Profiles generates the male and female cross-sections for the
// parameter set, in frame-local millimetre coordinates. Callers must
// have run Validate first; Profiles does not re-check preconditions.
//
// Segment order is fixed per kind and relied on by the orchestrator:
//
//	Cantilever male:   [Polyline hook outline]
//	Cantilever female: [Polyline cavity outline]
//	Cylindrical male:  [Circle post, Line ramp, Arc fillet, Line crest, Line flank]
//	Cylindrical female:[Annulus ring, Annulus groove, Annulus entry]
func Profiles(p Parameters) (male, female sketch.Profile) {
	if p.Kind == Cylindrical {
		return cylindricalProfiles(p)
	}
	return cantileverProfiles(p)
}

// cantileverProfiles lays out the hook beam in the (beam axis, beam
// thickness) plane. The beam width is the out-of-plane extrusion depth.
func cantileverProfiles(p Parameters) (male, female sketch.Profile) {
	l := p.Cantilever.BeamLength.Millimetres()
	t := p.Cantilever.BeamThickness.Millimetres()
	d := p.SnapDepth.Millimetres()
	clr := p.Clearance.Millimetres()

	// Tip chamfer breaks the stress concentration at the hook point.
	c := math.Min(0.2*t, maxTipChamfer)

	male = sketch.Profile{
		Side: sketch.Male,
		Segments: []sketch.Segment{
			sketch.Polyline{Points: []r2.Vec{
				{X: 0, Y: 0},
				{X: l - c, Y: 0},
				{X: l, Y: c},
				{X: l, Y: t / 2},
				{X: l + d, Y: t / 2}, // barb reaches past the beam tip
				{X: l, Y: t},         // insertion ramp back to full thickness
				{X: 0, Y: t},
			}},
		},
	}

	// Cavity: the male envelope [0,l+d]x[0,t] inflated by the clearance
	// on every side. The hook tip leads insertion, so the entrance
	// chamfer sits on the x = l+d+clr edge. The chamfer is cut at both
	// corners of that edge and must not exceed half the cavity height,
	// or the two cuts would cross; at the clamp the corners meet in a
	// single apex and the duplicate point is dropped.
	e := p.OverhangAngle.Tan() * t
	if half := (t + 2*clr) / 2; e > half {
		e = half
	}
	pts := []r2.Vec{
		{X: -clr, Y: -clr},
		{X: l + d + clr - e, Y: -clr},
		{X: l + d + clr, Y: -clr + e},
	}
	if e < (t+2*clr)/2 {
		pts = append(pts, r2.Vec{X: l + d + clr, Y: t + clr - e})
	}
	pts = append(pts,
		r2.Vec{X: l + d + clr - e, Y: t + clr},
		r2.Vec{X: -clr, Y: t + clr},
	)
	female = sketch.Profile{
		Side:     sketch.Female,
		Segments: []sketch.Segment{sketch.Polyline{Points: pts}},
	}
	return male, female
}

// cylindricalProfiles lays out the barbed post. The post circle lives in
// the sketch plane; the lip segments are a (radial, axial) cross-section
// revolved about the frame normal. The female annuli are indexed by the
// orchestrator as ring body, retention groove and entry chamfer.
func cylindricalProfiles(p Parameters) (male, female sketch.Profile) {
	r := p.Cylindrical.CylinderDiameter.Millimetres() / 2
	h := p.Cylindrical.PostHeight.Millimetres()
	rt := p.Cylindrical.RingThickness.Millimetres()
	d := p.SnapDepth.Millimetres()
	clr := p.Clearance.Millimetres()

	// Lip cross-section: ramp out at the overhang angle, quarter-fillet
	// back inward, flat crest at the post height, then down the flank.
	fr := d / 2
	z1 := h - fr
	z0 := z1 - d*p.OverhangAngle.Tan()
	male = sketch.Profile{
		Side: sketch.Male,
		Segments: []sketch.Segment{
			sketch.Circle{Radius: r},
			sketch.Line{Start: r2.Vec{X: r, Y: z0}, End: r2.Vec{X: r + d, Y: z1}},
			sketch.Arc{
				Center:     r2.Vec{X: r + d - fr, Y: z1},
				Radius:     fr,
				StartAngle: 0,
				EndAngle:   math.Pi / 2,
			},
			sketch.Line{Start: r2.Vec{X: r + d - fr, Y: z1 + fr}, End: r2.Vec{X: r, Y: z1 + fr}},
			sketch.Line{Start: r2.Vec{X: r, Y: z1 + fr}, End: r2.Vec{X: r, Y: z0}},
		},
	}

	female = sketch.Profile{
		Side: sketch.Female,
		Segments: []sketch.Segment{
			sketch.Annulus{Inner: r - clr, Outer: r + d + rt + clr},
			sketch.Annulus{Inner: r - clr, Outer: r + d + clr},
			sketch.Annulus{Inner: r - clr, Outer: r + d/2},
		},
	}
	return male, female
}
