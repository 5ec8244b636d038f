// Package engine provides the Lisp recipe engine for clasp. It wraps
// zygomys in a sandboxed environment and evaluates recipe source into
// snap-fit placements ready for the feature orchestrator.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/clasp/pkg/feature"
	"github.com/chazu/clasp/pkg/snap"
	zygo "github.com/glycerine/zygomys/zygo"
)

// Placement is one snap-fit request produced by a recipe: which two
// bodies to join, with which parameters and post-processing options.
type Placement struct {
	MaleQuery   string
	FemaleQuery string
	Params      snap.Parameters
	Options     feature.Options
}

// Recipe is the result of evaluating recipe source.
type Recipe struct {
	Placements []Placement
}

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in recipe code.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter for recipe evaluation. It is
// safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate takes recipe source and produces a Recipe. Each call creates
// a fresh zygomys sandbox.
//
// Return semantics:
//   - On success: returns recipe + nil errors + nil error
//   - On parse/eval failure: returns nil recipe + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Recipe, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		recipe, evalErrs, err := e.evaluate(source)
		ch <- evalResult{recipe: recipe, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Recipe, []EvalError, error) {
	// Empty source is a valid recipe with no placements.
	if strings.TrimSpace(source) == "" {
		return &Recipe{}, nil, nil
	}

	// Sandbox mode prevents recipe code from touching the filesystem
	// or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	recipe := &Recipe{}
	registerBuiltins(env, recipe)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	return recipe, nil, nil
}

// linePattern matches zygomys error messages that include line info.
var (
	linePattern      = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting a line number from the message when one is present.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, pat := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := pat.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
