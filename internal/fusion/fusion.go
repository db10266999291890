package fusion

// Fusion runs the full per-sample pipeline: calibration, gyroscope offset
// correction, then the AHRS update.
//
// Fusion holds no pointers and can be embedded by value. It is not safe for
// concurrent use.
type Fusion struct {
	calibration   Calibration
	ahrs          Ahrs
	offset        GyroscopeOffset
	lastTimestamp float64
}

// New returns a pipeline for sampleRate Hz (must be non-zero) with identity
// calibration.
func New(sampleRate uint32, settings Settings) Fusion {
	return Fusion{
		calibration: DefaultCalibration(),
		ahrs:        NewAhrs(settings),
		offset:      NewGyroscopeOffset(sampleRate),
	}
}

func (f *Fusion) Calibration() Calibration {
	return f.calibration
}

func (f *Fusion) SetCalibration(c Calibration) {
	f.calibration = c
}

// SetSettings forwards new settings to the AHRS algorithm.
func (f *Fusion) SetSettings(s Settings) {
	f.ahrs.SetSettings(s)
}

// AHRS exposes the underlying algorithm.
func (f *Fusion) AHRS() *Ahrs {
	return &f.ahrs
}

// InertialCalibration applies inertial calibration parameters to a sample.
func (f *Fusion) InertialCalibration(uncalibrated Vector, misalignment Matrix, sensitivity, offset Vector) Vector {
	return InertialCalibration(uncalibrated, misalignment, sensitivity, offset)
}

// MagneticCalibration applies magnetic calibration parameters to a sample.
func (f *Fusion) MagneticCalibration(uncalibrated Vector, softIron Matrix, hardIron Vector) Vector {
	return MagneticCalibration(uncalibrated, softIron, hardIron)
}

// Update processes one sample stamped with an absolute timestamp in seconds.
// Timestamps must increase; the first call measures from zero.
func (f *Fusion) Update(gyr, acc, mag Vector, timestamp float64) {
	f.UpdateDuration(gyr, acc, mag, f.elapsed(timestamp))
}

// UpdateDuration processes one sample taken dt seconds after the previous one.
func (f *Fusion) UpdateDuration(gyr, acc, mag Vector, dt float32) {
	gyr, acc = f.inertial(gyr, acc)
	mag = f.calibration.Magnetometer.Apply(mag)
	f.ahrs.Update(gyr, acc, mag, dt)
}

// UpdateNoMagnetometer processes a gyroscope and accelerometer sample stamped
// with an absolute timestamp in seconds.
func (f *Fusion) UpdateNoMagnetometer(gyr, acc Vector, timestamp float64) {
	f.UpdateNoMagnetometerDuration(gyr, acc, f.elapsed(timestamp))
}

func (f *Fusion) UpdateNoMagnetometerDuration(gyr, acc Vector, dt float32) {
	gyr, acc = f.inertial(gyr, acc)
	f.ahrs.UpdateNoMagnetometer(gyr, acc, dt)
}

// UpdateExternalHeading processes a gyroscope and accelerometer sample with a
// heading in degrees from an external source, stamped with an absolute
// timestamp in seconds.
func (f *Fusion) UpdateExternalHeading(gyr, acc Vector, heading float32, timestamp float64) {
	f.UpdateExternalHeadingDuration(gyr, acc, heading, f.elapsed(timestamp))
}

func (f *Fusion) UpdateExternalHeadingDuration(gyr, acc Vector, heading, dt float32) {
	gyr, acc = f.inertial(gyr, acc)
	f.ahrs.UpdateExternalHeading(gyr, acc, heading, dt)
}

func (f *Fusion) elapsed(timestamp float64) float32 {
	dt := float32(timestamp - f.lastTimestamp)
	f.lastTimestamp = timestamp
	return dt
}

func (f *Fusion) inertial(gyr, acc Vector) (Vector, Vector) {
	gyr = f.calibration.Gyroscope.Apply(gyr)
	acc = f.calibration.Accelerometer.Apply(acc)
	return f.offset.Update(gyr), acc
}

// Reset reinitialises the AHRS algorithm and forgets the last timestamp. The
// gyroscope offset estimate is kept.
func (f *Fusion) Reset() {
	f.ahrs.Reset()
	f.lastTimestamp = 0
}

func (f *Fusion) Euler() Euler {
	return f.ahrs.Euler()
}

func (f *Fusion) Quaternion() Quaternion {
	return f.ahrs.Quaternion()
}

func (f *Fusion) EarthAcceleration() Vector {
	return f.ahrs.EarthAcceleration()
}

func (f *Fusion) LinearAcceleration() Vector {
	return f.ahrs.LinearAcceleration()
}

func (f *Fusion) Flags() Flags {
	return f.ahrs.Flags()
}

// GyroscopeOffset returns the current gyroscope bias estimate.
func (f *Fusion) GyroscopeOffset() Vector {
	return f.offset.Offset()
}
