//go:build fusion_sqrt

package fusion

import "math"

const exactSqrt = true

func invSqrt(x float32) float32 {
	return 1 / float32(math.Sqrt(float64(x)))
}
