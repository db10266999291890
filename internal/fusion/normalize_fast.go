//go:build !fusion_sqrt

package fusion

import "math"

// exactSqrt is false when normalization uses the bit-level approximation.
const exactSqrt = false

// invSqrt approximates 1/sqrt(x) with a magic-constant seed and one refined
// Newton step. Results differ from the exact form at the 1e-3 relative level.
func invSqrt(x float32) float32 {
	i := int32(0x5F1F1412) - int32(math.Float32bits(x))>>1
	y := math.Float32frombits(uint32(i))
	return y * (1.69000231 - 0.714158168*x*y*y)
}
