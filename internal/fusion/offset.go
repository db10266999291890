package fusion

import "math"

// GyroscopeOffset tracks a slowly varying gyroscope bias. The estimate only
// moves after the gyroscope has looked stationary for offsetTimeout seconds,
// so a real rotation is never mistaken for drift.
type GyroscopeOffset struct {
	filterCoefficient float32
	timeout           uint32
	timer             uint32
	offset            Vector
}

// NewGyroscopeOffset returns an estimator for the given sample rate in Hz.
// sampleRate must be non-zero.
func NewGyroscopeOffset(sampleRate uint32) GyroscopeOffset {
	return GyroscopeOffset{
		filterCoefficient: 2 * math.Pi * offsetCutoffFrequency * (1 / float32(sampleRate)),
		timeout:           offsetTimeout * sampleRate,
	}
}

// Update removes the current bias estimate from gyr and, while stationary,
// advances the estimate. The returned sample is always bias-corrected with
// the estimate in effect before this call.
func (o *GyroscopeOffset) Update(gyr Vector) Vector {
	gyr = gyr.Sub(o.offset)

	if absf(gyr.X) > offsetThreshold || absf(gyr.Y) > offsetThreshold || absf(gyr.Z) > offsetThreshold {
		o.timer = 0
		return gyr
	}

	if o.timer < o.timeout {
		o.timer++
		return gyr
	}

	o.offset = o.offset.Add(gyr.Scale(o.filterCoefficient))
	return gyr
}

// Offset returns the current bias estimate in degrees per second.
func (o *GyroscopeOffset) Offset() Vector {
	return o.offset
}

// Stationary reports whether the stationarity timer has elapsed.
func (o *GyroscopeOffset) Stationary() bool {
	return o.timer >= o.timeout
}
