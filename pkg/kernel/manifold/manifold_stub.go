//go:build !manifold

// Package manifold binds the snap-fit kernel interface to the Manifold
// solid modeling library through manifoldc. The binding needs cgo and
// the manifoldc shared library, so it sits behind the "manifold" build
// tag; default builds get this stub, whose New always fails.
//
// Enable it with:
//
//	go build -tags=manifold ./...
package manifold

import (
	"errors"

	"github.com/chazu/clasp/pkg/kernel"
)

// New reports that the Manifold backend was not compiled into this
// binary. Rebuild with -tags=manifold (manifoldc must be installed).
func New() (kernel.Kernel, error) {
	return nil, errors.New("manifold backend disabled in this build: compile with -tags=manifold (requires the manifoldc C library)")
}
