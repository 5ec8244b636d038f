// Package clasp generates printable snap-fit connectors between CAD
// bodies. The App type ties the pieces together: the recipe engine
// turns Lisp source into placements, the feature orchestrator drives a
// geometry kernel for each placement, and the generated features are
// meshed for preview when the kernel supports it.
package clasp

import (
	"fmt"
	"log"

	"github.com/chazu/clasp/pkg/engine"
	"github.com/chazu/clasp/pkg/feature"
	"github.com/chazu/clasp/pkg/kernel"
	"github.com/chazu/clasp/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to
// generated features.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the host-facing service. It exposes Evaluate as the single
// entry point a CAD host or editor frontend binds to.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format sent to a frontend.
type MeshData struct {
	Vertices    []float32 `json:"vertices"`
	Normals     []float32 `json:"normals"`
	Indices     []uint32  `json:"indices"`
	FeatureName string    `json:"featureName"`
	Color       string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// FindingData is a JSON-serializable printability finding.
type FindingData struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// EvalResult is the full result of evaluating a recipe.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []FindingData   `json:"warnings"`
}

// NewApp creates an App bound to the given kernel. The kernel owns the
// document the snap fits are generated into.
func NewApp(k kernel.Kernel) *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: k,
	}
}

// Evaluate takes recipe source, generates every requested snap fit and
// returns preview meshes plus errors and printability warnings.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []FindingData{},
	}

	// Step 1: Evaluate the Lisp source into placements.
	recipe, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 2: Generate geometry for each placement.
	var results []*feature.Result
	for i, pl := range recipe.Placements {
		res, err := feature.GenerateSnapFit(a.kernel, pl.MaleQuery, pl.FemaleQuery, pl.Params, pl.Options)
		if err != nil {
			log.Printf("GenerateSnapFit error: %v", err)
			result.Errors = append(result.Errors, EvalErrorData{
				Message: fmt.Sprintf("snap-fit %d: %v", i+1, err),
			})
			return result
		}
		for _, f := range res.Findings {
			result.Warnings = append(result.Warnings, FindingData{
				Severity: f.Severity.String(),
				Message:  f.Message,
			})
		}
		results = append(results, res)
	}

	// Step 3: Mesh the generated features for preview. Kernels without
	// meshing (a CAD host with its own display pipeline) skip this.
	mesher, ok := a.kernel.(kernel.Mesher)
	if !ok {
		return result
	}
	meshes, err := tessellate.Tessellate(results, mesher)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Convert kernel meshes to the frontend format.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices:    m.Vertices,
			Normals:     m.Normals,
			Indices:     m.Indices,
			FeatureName: m.FeatureName,
			Color:       colorPalette[i%len(colorPalette)],
		})
	}

	return result
}
