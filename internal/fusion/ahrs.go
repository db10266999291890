package fusion

import "math"

// Settings configure the AHRS algorithm.
//
// GyroscopeRange is in degrees per second; zero disables the range check.
// AccelerationRejection and MagneticRejection are in degrees; zero disables
// rejection for that sensor. RecoveryTriggerPeriod is a sample count; zero
// disables rejection for both sensors.
type Settings struct {
	Convention            Convention
	Gain                  float32
	GyroscopeRange        float32
	AccelerationRejection float32
	MagneticRejection     float32
	RecoveryTriggerPeriod int32
}

func DefaultSettings() Settings {
	return Settings{
		Convention:            NWU,
		Gain:                  0.5,
		AccelerationRejection: 90,
		MagneticRejection:     90,
	}
}

// Flags report the health of the algorithm.
type Flags struct {
	Initializing         bool
	AngularRateRecovery  bool
	AccelerationRecovery bool
	MagneticRecovery     bool
}

// InternalStates expose the per-sample rejection bookkeeping.
type InternalStates struct {
	// AccelerationError is the angle in degrees between the measured and
	// the estimated gravity direction.
	AccelerationError    float32
	AccelerometerIgnored bool
	// AccelerationRecoveryTrigger is the trigger counter as a fraction of
	// the recovery trigger period.
	AccelerationRecoveryTrigger float32
	MagneticError               float32
	MagnetometerIgnored         bool
	MagneticRecoveryTrigger     float32
}

// recoveryTrigger is the rejection hysteresis of one sensor channel.
// Accepted samples decrement the trigger by 9, rejected ones increment it by
// 1. Once it exceeds the timeout the channel is accepted regardless until
// the trigger falls back to zero.
type recoveryTrigger struct {
	trigger int32
	timeout int32
}

func (r *recoveryTrigger) reset(period int32) {
	r.trigger = 0
	r.timeout = period
}

// update returns whether the sample is ignored.
func (r *recoveryTrigger) update(accepted bool, period int32) bool {
	ignored := true
	if accepted {
		ignored = false
		r.trigger -= 9
	} else {
		r.trigger++
	}

	if r.trigger > r.timeout {
		r.timeout = 0
		ignored = false
	} else {
		r.timeout = period
	}
	r.trigger = clamp(r.trigger, 0, period)
	return ignored
}

func (r *recoveryTrigger) recovering() bool {
	return r.trigger > r.timeout
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Ahrs is the attitude and heading reference algorithm: a complementary
// filter integrating the gyroscope and steering it towards the gravity and
// magnetic directions measured by the accelerometer and magnetometer.
//
// Ahrs is a value type and not safe for concurrent use.
type Ahrs struct {
	// settings hold derived values: scaled range and squared-sine thresholds.
	settings Settings

	quaternion    Quaternion
	accelerometer Vector

	initializing        bool
	rampedGain          float32
	rampedGainStep      float32
	angularRateRecovery bool

	halfAccelerometerFeedback Vector
	halfMagnetometerFeedback  Vector
	accelerometerIgnored      bool
	magnetometerIgnored       bool
	acceleration              recoveryTrigger
	magnetic                  recoveryTrigger
}

// NewAhrs returns an initializing algorithm at the identity orientation.
func NewAhrs(settings Settings) Ahrs {
	var a Ahrs
	a.Reset()
	a.SetSettings(settings)
	return a
}

// SetSettings applies new settings. The trigger timeouts restart from the
// new recovery trigger period.
func (a *Ahrs) SetSettings(s Settings) {
	a.settings.Convention = s.Convention
	a.settings.Gain = s.Gain
	a.settings.GyroscopeRange = math.MaxFloat32
	if s.GyroscopeRange != 0 {
		a.settings.GyroscopeRange = 0.98 * s.GyroscopeRange
	}
	a.settings.AccelerationRejection = rejectionThreshold(s.AccelerationRejection)
	a.settings.MagneticRejection = rejectionThreshold(s.MagneticRejection)
	a.settings.RecoveryTriggerPeriod = s.RecoveryTriggerPeriod
	a.acceleration.timeout = s.RecoveryTriggerPeriod
	a.magnetic.timeout = s.RecoveryTriggerPeriod

	if s.Gain == 0 || s.RecoveryTriggerPeriod == 0 {
		a.settings.AccelerationRejection = math.MaxFloat32
		a.settings.MagneticRejection = math.MaxFloat32
	}
	if !a.initializing {
		a.rampedGain = s.Gain
	}
	a.rampedGainStep = (initialGain - s.Gain) / initializationPeriod
}

// rejectionThreshold converts an angle in degrees to the squared magnitude
// of the half feedback vector at that angle.
func rejectionThreshold(degrees float32) float32 {
	if degrees == 0 {
		return math.MaxFloat32
	}
	v := 0.5 * sinf(degreesToRadians(degrees))
	return v * v
}

// Settings returns the settings in effect. Thresholds and range are reported
// in their derived form.
func (a *Ahrs) Settings() Settings {
	return a.settings
}

// Reset returns the algorithm to its initial state: identity orientation,
// initializing, all rejection bookkeeping cleared.
func (a *Ahrs) Reset() {
	a.quaternion = IdentityQuaternion()
	a.accelerometer = Vector{}
	a.initializing = true
	a.rampedGain = initialGain
	a.angularRateRecovery = false
	a.halfAccelerometerFeedback = Vector{}
	a.halfMagnetometerFeedback = Vector{}
	a.accelerometerIgnored = false
	a.magnetometerIgnored = false
	a.acceleration.reset(a.settings.RecoveryTriggerPeriod)
	a.magnetic.reset(a.settings.RecoveryTriggerPeriod)
}

// Update advances the orientation by one sample. gyr is in degrees per
// second, acc in g, dt in seconds. A zero acc or mag skips that sensor.
func (a *Ahrs) Update(gyr, acc, mag Vector, dt float32) {
	a.accelerometer = acc

	// Reinitialise, keeping the orientation, if the gyroscope saturated.
	r := a.settings.GyroscopeRange
	if absf(gyr.X) > r || absf(gyr.Y) > r || absf(gyr.Z) > r {
		q := a.quaternion
		a.Reset()
		a.quaternion = q
		a.angularRateRecovery = true
	}

	if a.initializing {
		a.rampedGain -= a.rampedGainStep * dt
		if a.rampedGain < a.settings.Gain || a.settings.Gain == 0 {
			a.rampedGain = a.settings.Gain
			a.initializing = false
			a.angularRateRecovery = false
		}
	}

	halfGravity := expectedHalfGravity(a.settings.Convention, a.quaternion)

	var halfAccelerometerFeedback Vector
	a.accelerometerIgnored = true
	if !acc.IsZero() {
		a.halfAccelerometerFeedback = feedback(acc.Normalize(), halfGravity)
		accepted := a.initializing || a.halfAccelerometerFeedback.MagnitudeSquared() <= a.settings.AccelerationRejection
		a.accelerometerIgnored = a.acceleration.update(accepted, a.settings.RecoveryTriggerPeriod)
		if !a.accelerometerIgnored {
			halfAccelerometerFeedback = a.halfAccelerometerFeedback
		}
	}

	var halfMagnetometerFeedback Vector
	a.magnetometerIgnored = true
	// A field parallel to gravity carries no heading.
	if west := halfGravity.Cross(mag); !west.IsZero() {
		halfMagnetic := expectedHalfMagnetic(a.settings.Convention, a.quaternion)
		a.halfMagnetometerFeedback = feedback(west.Normalize(), halfMagnetic)
		accepted := a.initializing || a.halfMagnetometerFeedback.MagnitudeSquared() <= a.settings.MagneticRejection
		a.magnetometerIgnored = a.magnetic.update(accepted, a.settings.RecoveryTriggerPeriod)
		if !a.magnetometerIgnored {
			halfMagnetometerFeedback = a.halfMagnetometerFeedback
		}
	}

	halfGyroscope := gyr.Scale(degreesToRadians(0.5))
	adjusted := halfGyroscope.Add(halfAccelerometerFeedback.Add(halfMagnetometerFeedback).Scale(a.rampedGain))
	a.quaternion = a.quaternion.Add(a.quaternion.MulVector(adjusted.Scale(dt))).Normalize()
}

// feedback is the half-angle error between a measured and a reference
// direction. Errors beyond 90 degrees saturate at unit magnitude.
func feedback(sensor, reference Vector) Vector {
	if sensor.Dot(reference) < 0 {
		return sensor.Cross(reference).Normalize()
	}
	return sensor.Cross(reference)
}

// UpdateNoMagnetometer is Update without a magnetometer. While initializing
// the heading is held at zero since nothing observes it.
func (a *Ahrs) UpdateNoMagnetometer(gyr, acc Vector, dt float32) {
	a.Update(gyr, acc, Vector{}, dt)
	if a.initializing {
		a.SetHeading(0)
	}
}

// UpdateExternalHeading is Update with the magnetometer replaced by a
// horizontal field synthesised from heading (degrees) and the current roll.
func (a *Ahrs) UpdateExternalHeading(gyr, acc Vector, heading, dt float32) {
	q := a.quaternion
	roll := atan2f(q.W*q.X+q.Y*q.Z, 0.5-q.Y*q.Y-q.X*q.X)

	headingRadians := degreesToRadians(heading)
	sinHeading := sinf(headingRadians)
	mag := Vector{
		X: cosf(headingRadians),
		Y: -1 * cosf(roll) * sinHeading,
		Z: sinHeading * sinf(roll),
	}
	a.Update(gyr, acc, mag, dt)
}

// SetHeading rotates the orientation about the earth vertical so that its
// yaw becomes heading degrees.
func (a *Ahrs) SetHeading(heading float32) {
	q := a.quaternion
	yaw := atan2f(q.W*q.Z+q.X*q.Y, 0.5-q.Y*q.Y-q.Z*q.Z)
	halfYawMinusHeading := 0.5 * (yaw - degreesToRadians(heading))
	rotation := Quaternion{
		W: cosf(halfYawMinusHeading),
		Z: -1 * sinf(halfYawMinusHeading),
	}
	a.quaternion = rotation.Mul(a.quaternion)
}

func (a *Ahrs) Quaternion() Quaternion {
	return a.quaternion
}

// SetQuaternion overrides the orientation estimate.
func (a *Ahrs) SetQuaternion(q Quaternion) {
	a.quaternion = q
}

func (a *Ahrs) Euler() Euler {
	return a.quaternion.Euler()
}

func (a *Ahrs) RotationMatrix() Matrix {
	return a.quaternion.RotationMatrix()
}

// EarthAcceleration is the last accelerometer sample rotated into the earth
// frame with gravity removed, in g.
func (a *Ahrs) EarthAcceleration() Vector {
	e := a.quaternion.RotationMatrix().MulVector(a.accelerometer)
	e.Z -= gravitySign(a.settings.Convention)
	return e
}

// LinearAcceleration is the last accelerometer sample with gravity removed,
// in the sensor frame, in g.
func (a *Ahrs) LinearAcceleration() Vector {
	q := a.quaternion
	gravity := Vector{
		X: 2 * (q.X*q.Z - q.W*q.Y),
		Y: 2 * (q.Y*q.Z + q.W*q.X),
		Z: 2 * (q.W*q.W - 0.5 + q.Z*q.Z),
	}
	return a.accelerometer.Sub(gravity.Scale(gravitySign(a.settings.Convention)))
}

func (a *Ahrs) Flags() Flags {
	return Flags{
		Initializing:         a.initializing,
		AngularRateRecovery:  a.angularRateRecovery,
		AccelerationRecovery: a.acceleration.recovering(),
		MagneticRecovery:     a.magnetic.recovering(),
	}
}

func (a *Ahrs) InternalStates() InternalStates {
	return InternalStates{
		AccelerationError:           feedbackAngle(a.halfAccelerometerFeedback),
		AccelerometerIgnored:        a.accelerometerIgnored,
		AccelerationRecoveryTrigger: a.triggerFraction(a.acceleration.trigger),
		MagneticError:               feedbackAngle(a.halfMagnetometerFeedback),
		MagnetometerIgnored:         a.magnetometerIgnored,
		MagneticRecoveryTrigger:     a.triggerFraction(a.magnetic.trigger),
	}
}

func feedbackAngle(halfFeedback Vector) float32 {
	return radiansToDegrees(asinSafe(2 * halfFeedback.Magnitude()))
}

func (a *Ahrs) triggerFraction(trigger int32) float32 {
	if a.settings.RecoveryTriggerPeriod == 0 {
		return 0
	}
	return float32(trigger) / float32(a.settings.RecoveryTriggerPeriod)
}
