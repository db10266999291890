package fusion

import "math"

// Vector is a three-component vector. Unless stated otherwise it is
// expressed in the sensor frame.
type Vector struct {
	X, Y, Z float32
}

func NewVector(x, y, z float32) Vector {
	return Vector{X: x, Y: y, Z: z}
}

// VectorOnes returns (1, 1, 1), the neutral sensitivity.
func VectorOnes() Vector {
	return Vector{X: 1, Y: 1, Z: 1}
}

// IsZero reports whether all three components are exactly zero.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func (v Vector) Add(u Vector) Vector {
	return Vector{X: v.X + u.X, Y: v.Y + u.Y, Z: v.Z + u.Z}
}

func (v Vector) Sub(u Vector) Vector {
	return Vector{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

func (v Vector) Scale(s float32) Vector {
	return Vector{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Hadamard returns the element-wise product of v and u.
func (v Vector) Hadamard(u Vector) Vector {
	return Vector{X: v.X * u.X, Y: v.Y * u.Y, Z: v.Z * u.Z}
}

func (v Vector) Sum() float32 {
	return v.X + v.Y + v.Z
}

func (v Vector) Cross(u Vector) Vector {
	return Vector{
		X: v.Y*u.Z - v.Z*u.Y,
		Y: v.Z*u.X - v.X*u.Z,
		Z: v.X*u.Y - v.Y*u.X,
	}
}

func (v Vector) Dot(u Vector) float32 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

func (v Vector) MagnitudeSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vector) Magnitude() float32 {
	return float32(math.Sqrt(float64(v.MagnitudeSquared())))
}

// Normalize scales v to unit length. The zero vector has no direction and
// must be special-cased by the caller.
func (v Vector) Normalize() Vector {
	return v.Scale(invSqrt(v.MagnitudeSquared()))
}
