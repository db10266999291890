package fusion

import "math"

// Euler holds ZYX Euler angles in degrees.
type Euler struct {
	Roll  float32
	Pitch float32
	Yaw   float32
}

// Quaternion returns the unit quaternion for e.
func (e Euler) Quaternion() Quaternion {
	hr := 0.5 * degreesToRadians(e.Roll)
	hp := 0.5 * degreesToRadians(e.Pitch)
	hy := 0.5 * degreesToRadians(e.Yaw)
	cr, sr := cosf(hr), sinf(hr)
	cp, sp := cosf(hp), sinf(hp)
	cy, sy := cosf(hy), sinf(hy)
	return Quaternion{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

func degreesToRadians(degrees float32) float32 {
	return degrees * (math.Pi / 180)
}

func radiansToDegrees(radians float32) float32 {
	return radians * (180 / math.Pi)
}

// asinSafe clamps out-of-domain inputs to +/-90 degrees instead of NaN.
func asinSafe(v float32) float32 {
	if v <= -1 {
		return -math.Pi / 2
	}
	if v >= 1 {
		return math.Pi / 2
	}
	return float32(math.Asin(float64(v)))
}

func atan2f(y, x float32) float32 { return float32(math.Atan2(float64(y), float64(x))) }
func sinf(v float32) float32      { return float32(math.Sin(float64(v))) }
func cosf(v float32) float32      { return float32(math.Cos(float64(v))) }

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
