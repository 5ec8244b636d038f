package snap

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/clasp/pkg/unit"
)

func TestValidateDefaults(t *testing.T) {
	for _, kind := range []Kind{Cantilever, Cylindrical} {
		t.Run(kind.String(), func(t *testing.T) {
			if err := DefaultFor(kind).Validate(); err != nil {
				t.Errorf("DefaultFor(%s).Validate() = %v, want nil", kind, err)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Parameters)
		kind      Kind
		wantParam string
	}{
		{
			name:      "zero beam length",
			kind:      Cantilever,
			mutate:    func(p *Parameters) { p.Cantilever.BeamLength = 0 },
			wantParam: "beamLength",
		},
		{
			name:      "negative beam length",
			kind:      Cantilever,
			mutate:    func(p *Parameters) { p.Cantilever.BeamLength = unit.Millimetres(-5) },
			wantParam: "beamLength",
		},
		{
			name:      "zero snap depth",
			kind:      Cantilever,
			mutate:    func(p *Parameters) { p.SnapDepth = 0 },
			wantParam: "snapDepth",
		},
		{
			name:      "negative clearance",
			kind:      Cylindrical,
			mutate:    func(p *Parameters) { p.Clearance = unit.Millimetres(-0.1) },
			wantParam: "clearance",
		},
		{
			name:      "overhang below range",
			kind:      Cantilever,
			mutate:    func(p *Parameters) { p.OverhangAngle = unit.Degrees(5) },
			wantParam: "overhangAngle",
		},
		{
			name:      "overhang above range",
			kind:      Cylindrical,
			mutate:    func(p *Parameters) { p.OverhangAngle = unit.Degrees(75) },
			wantParam: "overhangAngle",
		},
		{
			name:      "zero beam width",
			kind:      Cantilever,
			mutate:    func(p *Parameters) { p.Cantilever.BeamWidth = 0 },
			wantParam: "beamWidth",
		},
		{
			name:      "zero beam thickness",
			kind:      Cantilever,
			mutate:    func(p *Parameters) { p.Cantilever.BeamThickness = 0 },
			wantParam: "beamThickness",
		},
		{
			name:      "zero diameter",
			kind:      Cylindrical,
			mutate:    func(p *Parameters) { p.Cylindrical.CylinderDiameter = 0 },
			wantParam: "cylinderDiameter",
		},
		{
			name:      "zero post height",
			kind:      Cylindrical,
			mutate:    func(p *Parameters) { p.Cylindrical.PostHeight = 0 },
			wantParam: "postHeight",
		},
		{
			name:      "zero ring height",
			kind:      Cylindrical,
			mutate:    func(p *Parameters) { p.Cylindrical.RingHeight = 0 },
			wantParam: "ringHeight",
		},
		{
			name:      "zero ring thickness",
			kind:      Cylindrical,
			mutate:    func(p *Parameters) { p.Cylindrical.RingThickness = 0 },
			wantParam: "ringThickness",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultFor(tt.kind)
			tt.mutate(&p)
			err := p.Validate()
			var perr *ParameterError
			if !errors.As(err, &perr) {
				t.Fatalf("Validate() = %v, want *ParameterError", err)
			}
			if perr.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", perr.Param, tt.wantParam)
			}
			if !strings.Contains(perr.Error(), "invalid parameter") {
				t.Errorf("Error() = %q, want invalid parameter prefix", perr.Error())
			}
		})
	}
}

func TestValidateIgnoresOtherKindFields(t *testing.T) {
	// Cylindrical fields are irrelevant to a cantilever joint and must
	// not be checked.
	p := DefaultFor(Cantilever)
	p.Cylindrical = CylindricalParams{}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateZeroClearanceAllowed(t *testing.T) {
	p := DefaultFor(Cantilever)
	p.Clearance = 0
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for zero clearance", err)
	}
}
