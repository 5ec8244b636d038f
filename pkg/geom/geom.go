// Package geom provides the vector helpers and placement-frame
// construction used to project 2D snap profiles into 3D space.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// epsilon is the length threshold below which a direction vector is
// considered degenerate.
const epsilon = 1e-9

// parallelThreshold is the |dot| value above which a direction is treated
// as near-parallel to world +Z and the world +X fallback is used instead.
const parallelThreshold = 0.9

var (
	worldX = r3.Vec{X: 1}
	worldZ = r3.Vec{Z: 1}
)

// PerpendicularTo returns a unit vector orthogonal to dir. The cross
// product is taken against world +Z unless dir is near-parallel to it,
// in which case world +X is used to avoid a near-zero cross product.
func PerpendicularTo(dir r3.Vec) r3.Vec {
	d := r3.Unit(dir)
	ref := worldZ
	if math.Abs(r3.Dot(d, worldZ)) >= parallelThreshold {
		ref = worldX
	}
	return r3.Unit(r3.Cross(d, ref))
}
