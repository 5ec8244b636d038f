package snap

import "github.com/chazu/clasp/pkg/unit"

// Kind selects the snap-joint style.
type Kind int

const (
	// Cantilever is a flexing hook beam engaging a ledge.
	Cantilever Kind = iota
	// Cylindrical is a barbed post engaging an annular groove.
	Cylindrical
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Cantilever:
		return "cantilever"
	case Cylindrical:
		return "cylindrical"
	default:
		return "unknown"
	}
}

// CantileverParams are the dimensions specific to a cantilever hook.
type CantileverParams struct {
	BeamLength    unit.Length
	BeamWidth     unit.Length
	BeamThickness unit.Length
}

// CylindricalParams are the dimensions specific to a barbed post.
type CylindricalParams struct {
	CylinderDiameter unit.Length
	PostHeight       unit.Length
	RingHeight       unit.Length
	RingThickness    unit.Length
}

// Parameters is the full snap-fit design parameter set. Kind selects
// which of the per-kind field groups is meaningful; the other is
// ignored. Construct with DefaultFor and adjust, then Validate before
// use.
type Parameters struct {
	Kind Kind

	PositionOffset unit.Length
	Clearance      unit.Length
	SnapDepth      unit.Length
	OverhangAngle  unit.Angle

	Cantilever  CantileverParams
	Cylindrical CylindricalParams
}

// DefaultFor returns a validated-by-construction parameter set for the
// given kind, sized for a typical FDM-printed joint.
func DefaultFor(kind Kind) Parameters {
	p := Parameters{
		Kind:          kind,
		Clearance:     unit.Millimetres(0.1),
		SnapDepth:     unit.Millimetres(1),
		OverhangAngle: unit.Degrees(30),
	}
	switch kind {
	case Cantilever:
		p.Cantilever = CantileverParams{
			BeamLength:    unit.Millimetres(20),
			BeamWidth:     unit.Millimetres(5),
			BeamThickness: unit.Millimetres(2),
		}
	case Cylindrical:
		p.Cylindrical = CylindricalParams{
			CylinderDiameter: unit.Millimetres(6),
			PostHeight:       unit.Millimetres(8),
			RingHeight:       unit.Millimetres(6),
			RingThickness:    unit.Millimetres(1.5),
		}
	}
	return p
}

// GoverningThickness is the wall dimension that controls printability
// and fillet sizing: beam thickness for cantilever joints, ring
// thickness for cylindrical ones.
func (p Parameters) GoverningThickness() unit.Length {
	if p.Kind == Cylindrical {
		return p.Cylindrical.RingThickness
	}
	return p.Cantilever.BeamThickness
}
