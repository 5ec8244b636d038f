// Package sketch defines the 2D path segments a snap profile is made of.
// Coordinates are millimetres in the placement frame's local plane.
package sketch

import "gonum.org/v1/gonum/spatial/r2"

// Side tags a profile as belonging to the protruding (male) or the
// cavity (female) half of a snap joint.
type Side int

const (
	Male Side = iota
	Female
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return "unknown"
	}
}

// Segment is one 2D path element of a profile. The concrete types are
// Line, Polyline, Arc, Circle and Annulus; no other implementations
// exist.
type Segment interface {
	segment()
}

// Line is a straight segment from Start to End.
type Line struct {
	Start r2.Vec
	End   r2.Vec
}

// Polyline is a closed outline through Points in order. The last point
// connects back to the first.
type Polyline struct {
	Points []r2.Vec
}

// Arc is a circular arc around Center from StartAngle to EndAngle
// (radians, counterclockwise).
type Arc struct {
	Center     r2.Vec
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

// Circle is a full circle around Center.
type Circle struct {
	Center r2.Vec
	Radius float64
}

// Annulus is the region between two concentric circles around Center.
type Annulus struct {
	Center r2.Vec
	Inner  float64
	Outer  float64
}

func (Line) segment()     {}
func (Polyline) segment() {}
func (Arc) segment()      {}
func (Circle) segment()   {}
func (Annulus) segment()  {}

// Profile is an ordered sequence of segments tagged with the joint side
// it describes. Segment order is fixed per snap kind and relied on by
// the feature orchestrator.
type Profile struct {
	Side     Side
	Segments []Segment
}

// Envelope returns the axis-aligned bounding rectangle of every polyline
// point, circle and annulus extent in the profile.
func (p Profile) Envelope() (min, max r2.Vec) {
	first := true
	grow := func(v r2.Vec) {
		if first {
			min, max = v, v
			first = false
			return
		}
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
	}
	for _, seg := range p.Segments {
		switch s := seg.(type) {
		case Line:
			grow(s.Start)
			grow(s.End)
		case Polyline:
			for _, pt := range s.Points {
				grow(pt)
			}
		case Circle:
			grow(r2.Vec{X: s.Center.X - s.Radius, Y: s.Center.Y - s.Radius})
			grow(r2.Vec{X: s.Center.X + s.Radius, Y: s.Center.Y + s.Radius})
		case Annulus:
			grow(r2.Vec{X: s.Center.X - s.Outer, Y: s.Center.Y - s.Outer})
			grow(r2.Vec{X: s.Center.X + s.Outer, Y: s.Center.Y + s.Outer})
		case Arc:
			grow(r2.Vec{X: s.Center.X - s.Radius, Y: s.Center.Y - s.Radius})
			grow(r2.Vec{X: s.Center.X + s.Radius, Y: s.Center.Y + s.Radius})
		}
	}
	return min, max
}
