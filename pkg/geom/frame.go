package geom

import (
	"errors"
	"fmt"

	"github.com/chazu/clasp/pkg/unit"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateGeometry is returned when the two body centroids coincide
// and no placement direction can be derived.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Frame is the local coordinate system a snap feature is built in.
// Normal points from the male body toward the female body; Lateral is
// orthogonal to Normal. Both are unit length. A Frame is immutable once
// built.
type Frame struct {
	Origin  r3.Vec
	Normal  r3.Vec
	Lateral r3.Vec
}

// NewFrame derives the placement frame from the two body centroids and
// the position offset along the male-to-female direction. Coincident
// centroids (difference shorter than 1e-9 mm) fail with
// ErrDegenerateGeometry; the division by the vector norm is never
// reached with a near-zero denominator.
func NewFrame(maleCentroid, femaleCentroid r3.Vec, positionOffset unit.Length) (Frame, error) {
	diff := r3.Sub(femaleCentroid, maleCentroid)
	if r3.Norm(diff) < epsilon {
		return Frame{}, fmt.Errorf("%w: body centroids coincide at %v", ErrDegenerateGeometry, maleCentroid)
	}
	normal := r3.Unit(diff)
	return Frame{
		Origin:  r3.Add(maleCentroid, r3.Scale(positionOffset.Millimetres(), normal)),
		Normal:  normal,
		Lateral: PerpendicularTo(normal),
	}, nil
}
