// Package magcal fits magnetometer hard-iron and soft-iron parameters from
// raw samples collected while the sensor is turned through many
// orientations.
//
// The fitted soft-iron matrix is diagonal: it rescales each axis so the
// calibrated readings lie on a sphere whose radius is the mean of the
// fitted semi-axes.
package magcal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"imu-fusion/internal/fusion"
)

// MinSamples is the fewest samples Fit accepts.
const MinSamples = 12

var ErrDegenerate = errors.New("magcal: samples do not span an ellipsoid")

// Fit solves the axis-aligned ellipsoid
//
//	a*x^2 + b*y^2 + c*z^2 + d*x + e*y + f*z = 1
//
// in the least-squares sense.
func Fit(samples []fusion.Vector) (fusion.MagneticParameters, error) {
	if len(samples) < MinSamples {
		return fusion.MagneticParameters{}, fmt.Errorf("magcal: need at least %d samples, got %d", MinSamples, len(samples))
	}

	if _, _, ok := bounds(samples); !ok {
		return fusion.MagneticParameters{}, ErrDegenerate
	}

	a := mat.NewDense(len(samples), 6, nil)
	ones := mat.NewVecDense(len(samples), nil)
	for i, s := range samples {
		x, y, z := float64(s.X), float64(s.Y), float64(s.Z)
		a.SetRow(i, []float64{x * x, y * y, z * z, x, y, z})
		ones.SetVec(i, 1)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, ones); err != nil {
		return fusion.MagneticParameters{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}

	var center, radii [3]float64
	g := 1.0
	for i := 0; i < 3; i++ {
		q, l := coef.AtVec(i), coef.AtVec(i+3)
		if q <= 0 {
			return fusion.MagneticParameters{}, ErrDegenerate
		}
		center[i] = -l / (2 * q)
		g += q * center[i] * center[i]
	}
	for i := 0; i < 3; i++ {
		r2 := g / coef.AtVec(i)
		if r2 <= 0 || math.IsNaN(r2) || math.IsInf(r2, 0) {
			return fusion.MagneticParameters{}, ErrDegenerate
		}
		radii[i] = math.Sqrt(r2)
	}
	return parameters(center, radii), nil
}

// FitMinMax centers each axis on the midpoint of its observed range and
// scales it by its half-range. It needs good coverage of all six axis
// extremes but no matrix solve.
func FitMinMax(samples []fusion.Vector) (fusion.MagneticParameters, error) {
	if len(samples) == 0 {
		return fusion.MagneticParameters{}, fmt.Errorf("magcal: no samples")
	}
	lo, hi, ok := bounds(samples)
	if !ok {
		return fusion.MagneticParameters{}, ErrDegenerate
	}
	var center, radii [3]float64
	for i := 0; i < 3; i++ {
		center[i] = (hi[i] + lo[i]) / 2
		radii[i] = (hi[i] - lo[i]) / 2
	}
	return parameters(center, radii), nil
}

// bounds returns the per-axis extremes. ok is false if any axis has no
// spread.
func bounds(samples []fusion.Vector) (lo, hi [3]float64, ok bool) {
	lo = [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, s := range samples {
		for i, v := range [3]float32{s.X, s.Y, s.Z} {
			lo[i] = math.Min(lo[i], float64(v))
			hi[i] = math.Max(hi[i], float64(v))
		}
	}
	for i := 0; i < 3; i++ {
		if !(hi[i] > lo[i]) {
			return lo, hi, false
		}
	}
	return lo, hi, true
}

func parameters(center, radii [3]float64) fusion.MagneticParameters {
	mean := (radii[0] + radii[1] + radii[2]) / 3
	return fusion.MagneticParameters{
		SoftIron: fusion.DiagonalMatrix(fusion.NewVector(
			float32(mean/radii[0]),
			float32(mean/radii[1]),
			float32(mean/radii[2]),
		)),
		HardIron: fusion.NewVector(float32(center[0]), float32(center[1]), float32(center[2])),
	}
}

// Residual is the RMS deviation of calibrated sample magnitudes from their
// mean, relative to that mean. A perfect fit gives zero.
func Residual(p fusion.MagneticParameters, samples []fusion.Vector) float64 {
	if len(samples) == 0 {
		return 0
	}
	mags := make([]float64, len(samples))
	var sum float64
	for i, s := range samples {
		mags[i] = float64(p.Apply(s).Magnitude())
		sum += mags[i]
	}
	mean := sum / float64(len(mags))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, m := range mags {
		sq += (m - mean) * (m - mean)
	}
	return math.Sqrt(sq/float64(len(mags))) / mean
}
