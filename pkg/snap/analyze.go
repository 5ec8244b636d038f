package snap

import (
	"fmt"

	"github.com/chazu/clasp/pkg/unit"
)

// Severity classifies a printability finding. Findings are advisory and
// never block feature generation.
type Severity int

const (
	SeverityWarning Severity = iota
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Finding is one advisory printability observation.
type Finding struct {
	Severity Severity
	Message  string
}

// Printability thresholds for common FDM processes.
const (
	// minWallThickness is the thinnest wall most FDM printers resolve.
	minWallThickness = unit.Length(0.8)
	// maxUnsupportedOverhangDeg is the steepest overhang printable
	// without support material.
	maxUnsupportedOverhangDeg = 45.0
	// maxStrain is the allowable deflection strain for common snap-fit
	// plastics (snap depth over beam length).
	maxStrain = 0.05
)

// AnalyzePrintability evaluates the parameter set against fixed
// engineering thresholds. Every applicable check runs; all resulting
// findings are returned. The analyzer never queries geometry.
func AnalyzePrintability(p Parameters) []Finding {
	var findings []Finding

	if t := p.GoverningThickness(); t < minWallThickness {
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("wall thickness too thin: %.2fmm is below the %.1fmm printable minimum",
				t.Millimetres(), minWallThickness.Millimetres()),
		})
	}

	if deg := p.OverhangAngle.Degrees(); deg > maxUnsupportedOverhangDeg {
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("overhang may require supports: %.0f° exceeds %.0f°",
				deg, maxUnsupportedOverhangDeg),
		})
	}

	if p.Kind == Cantilever {
		strain := p.SnapDepth.Millimetres() / p.Cantilever.BeamLength.Millimetres()
		if strain > maxStrain {
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Message: fmt.Sprintf("deflection may be too high: strain %.3f exceeds %.2f; lengthen the beam or reduce the snap depth",
					strain, maxStrain),
			})
		}
	}

	return findings
}
