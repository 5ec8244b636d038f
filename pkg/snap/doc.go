// Package snap holds the snap-fit design parameters, their validation,
// the pure 2D profile generator and the printability analyzer. Nothing
// in this package touches a geometry kernel.
package snap
