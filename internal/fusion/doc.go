// Package fusion estimates the orientation of a single rigid body from
// gyroscope, accelerometer and optional magnetometer samples.
//
// The package is a pure computational core: it never reads a clock, never
// logs and never allocates on the update path. Callers own the sensor bus and
// the time source and feed one sample per call, in sample order.
//
// Units: gyroscope in degrees per second, accelerometer in g, magnetometer in
// any consistent unit, time in seconds, angles reported in degrees.
//
// Normalization uses a fast inverse square root by default. Build with
// -tags fusion_sqrt to use the exact square root instead.
package fusion

const (
	// initialGain is the feedback gain at the start of initialization.
	initialGain = 10.0
	// initializationPeriod is the time in seconds over which the gain ramps
	// down to the configured value.
	initializationPeriod = 3.0

	// offsetTimeout is how long, in seconds, the gyroscope must stay below
	// offsetThreshold before the bias estimate starts to move.
	offsetTimeout = 5
	// offsetCutoffFrequency is the bias low-pass cutoff in Hz.
	offsetCutoffFrequency = 0.02
	// offsetThreshold is the stationarity threshold in degrees per second.
	offsetThreshold = 3.0
)
