package snap

import "fmt"

// ParameterError reports a design parameter that fails precondition
// validation. It is raised before any kernel call is made.
type ParameterError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s = %g: %s", e.Param, e.Value, e.Reason)
}

// Validate checks the parameter set against the snap-fit preconditions.
// The first violated precondition is returned as a *ParameterError.
func (p Parameters) Validate() error {
	if p.SnapDepth <= 0 {
		return &ParameterError{Param: "snapDepth", Value: p.SnapDepth.Millimetres(), Reason: "must be positive"}
	}
	if p.Clearance < 0 {
		return &ParameterError{Param: "clearance", Value: p.Clearance.Millimetres(), Reason: "must not be negative"}
	}
	if deg := p.OverhangAngle.Degrees(); deg < 10 || deg > 60 {
		return &ParameterError{Param: "overhangAngle", Value: deg, Reason: "must be between 10 and 60 degrees"}
	}

	switch p.Kind {
	case Cantilever:
		c := p.Cantilever
		if c.BeamLength <= 0 {
			return &ParameterError{Param: "beamLength", Value: c.BeamLength.Millimetres(), Reason: "must be positive"}
		}
		if c.BeamWidth <= 0 {
			return &ParameterError{Param: "beamWidth", Value: c.BeamWidth.Millimetres(), Reason: "must be positive"}
		}
		if c.BeamThickness <= 0 {
			return &ParameterError{Param: "beamThickness", Value: c.BeamThickness.Millimetres(), Reason: "must be positive"}
		}
	case Cylindrical:
		c := p.Cylindrical
		if c.CylinderDiameter <= 0 {
			return &ParameterError{Param: "cylinderDiameter", Value: c.CylinderDiameter.Millimetres(), Reason: "must be positive"}
		}
		if c.PostHeight <= 0 {
			return &ParameterError{Param: "postHeight", Value: c.PostHeight.Millimetres(), Reason: "must be positive"}
		}
		if c.RingHeight <= 0 {
			return &ParameterError{Param: "ringHeight", Value: c.RingHeight.Millimetres(), Reason: "must be positive"}
		}
		if c.RingThickness <= 0 {
			return &ParameterError{Param: "ringThickness", Value: c.RingThickness.Millimetres(), Reason: "must be positive"}
		}
	default:
		return &ParameterError{Param: "kind", Value: float64(p.Kind), Reason: "unknown snap kind"}
	}
	return nil
}
