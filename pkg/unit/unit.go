// Package unit provides explicit length and angle quantities so that
// design parameters are never passed around as bare numbers.
package unit

import "math"

// MillimetresPerInch is millimetres per inch (25.4).
const MillimetresPerInch = 25.4

// Length is a linear dimension stored in millimetres.
type Length float64

// Millimetres returns a Length of v millimetres.
func Millimetres(v float64) Length { return Length(v) }

// Centimetres returns a Length of v centimetres.
func Centimetres(v float64) Length { return Length(v * 10) }

// Inches returns a Length of v inches.
func Inches(v float64) Length { return Length(v * MillimetresPerInch) }

// Millimetres returns the length in millimetres.
func (l Length) Millimetres() float64 { return float64(l) }

// Inches returns the length in inches.
func (l Length) Inches() float64 { return float64(l) / MillimetresPerInch }

// Angle is an angular dimension stored in radians.
type Angle float64

// Degrees returns an Angle of v degrees.
func Degrees(v float64) Angle { return Angle(v * math.Pi / 180) }

// Radians returns an Angle of v radians.
func Radians(v float64) Angle { return Angle(v) }

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 { return float64(a) * 180 / math.Pi }

// Radians returns the angle in radians.
func (a Angle) Radians() float64 { return float64(a) }

// Tan returns the tangent of the angle.
func (a Angle) Tan() float64 { return math.Tan(float64(a)) }
