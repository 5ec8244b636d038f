package clasp

import (
	"strings"
	"testing"

	"github.com/chazu/clasp/pkg/kernel/sdfx"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors, non-nil slices.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil {
		t.Error("Meshes should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax error mid-expression: unmatched parens -> eval error, 0 meshes.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := newTestApp(t)

	// Put valid code on line 1, broken code on line 2 so line info is
	// meaningful when the interpreter reports one.
	source := "(+ 1 2)\n(snap-fit :male \"bracket\""
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}

	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, message=%q", e.Line, e.Message)
}

// ---------------------------------------------------------------------------
// 3. Unknown body selection -> generation error naming the selection.
// ---------------------------------------------------------------------------

func TestE2EUnknownBodySelection(t *testing.T) {
	app := newTestApp(t)

	result := app.Evaluate(`(snap-fit :male "ghost" :female "housing")`)

	if len(result.Errors) == 0 {
		t.Fatal("expected error for unknown body selection")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "ghost") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error mentioning 'ghost', got: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 4. Coincident bodies -> degenerate geometry error, no meshes.
// ---------------------------------------------------------------------------

func TestE2ECoincidentBodies(t *testing.T) {
	backend := sdfx.New()
	box, err := sdf.Box3D(v3.Vec{X: 10, Y: 10, Z: 10}, 0)
	if err != nil {
		t.Fatalf("Box3D: %v", err)
	}
	backend.AddBody("a", box)
	backend.AddBody("b", box)
	app := NewApp(backend)

	result := app.Evaluate(`(snap-fit :male "a" :female "b")`)

	if len(result.Errors) == 0 {
		t.Fatal("expected error for coincident bodies")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 5. Invalid parameter in recipe -> eval error from the builtin.
// ---------------------------------------------------------------------------

func TestE2EInvalidParameterValue(t *testing.T) {
	app := newTestApp(t)

	result := app.Evaluate(`
(snap-fit :male "bracket"
          :female "housing"
          :params (cantilever-snap :beam-length (mm -5)))
`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for negative beam length")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "invalid parameter") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected an invalid-parameter message, got: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 6. Rapid evaluation (debounce simulation): no panics between error and
//    success states. Run with `go test -race` to detect data races.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	// Rapid sequential calls to Evaluate on the same App. The engine
	// serializes via its mutex; this exercises the generation-counter
	// path and the recovery between error and success states.
	app := newTestApp(t)

	sources := []string{
		`(snap-fit :male "bracket" :female "housing")`,
		`(snap-fit :male "broken"`,
		``,
		`(snap-fit :male "ghost" :female "housing")`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(snap-fit :male "bracket" :female "housing" :params (cylindrical-snap))`,
		`(undefined-func 1 2 3)`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			result := app.Evaluate(source)
			_ = result
		}()
	}
}

// ---------------------------------------------------------------------------
// 7. Comments only: source that is only comments -> 0 meshes, 0 errors.
// ---------------------------------------------------------------------------

func TestE2ECommentsOnly(t *testing.T) {
	app := newTestApp(t)

	source := `
;; This is a comment
;; Another comment
; And another
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for comments-only source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for comments-only source, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 8. Multiple placements: two snap fits in one source -> meshes from both,
//    colors assigned to all.
// ---------------------------------------------------------------------------

func TestE2EMultiplePlacements(t *testing.T) {
	app := newTestApp(t)

	source := `
(snap-fit :male "bracket" :female "housing")
(snap-fit :male "bracket"
          :female "housing"
          :params (cylindrical-snap))
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}

	// Cantilever contributes 2 meshes, cylindrical 5.
	if len(result.Meshes) != 7 {
		t.Fatalf("expected 7 meshes from two placements, got %d", len(result.Meshes))
	}
	names := make(map[string]bool)
	for _, m := range result.Meshes {
		names[m.FeatureName] = true
		if m.Color == "" {
			t.Errorf("mesh %q should have a color assigned", m.FeatureName)
		}
	}
	if !names["snap1-male"] {
		t.Error("missing mesh for snap1-male")
	}
	if !names["snap2-female3"] {
		t.Error("missing mesh for snap2-female3")
	}
}

// ---------------------------------------------------------------------------
// 9. Computed dimensions: arithmetic feeding a unit constructor.
// ---------------------------------------------------------------------------

func TestE2EComputedDimensions(t *testing.T) {
	app := newTestApp(t)

	source := `
(def base 20)
(snap-fit :male "bracket"
          :female "housing"
          :params (cantilever-snap :beam-length (mm (+ base 5))))
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}
}
