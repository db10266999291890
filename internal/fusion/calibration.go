package fusion

// InertialParameters calibrate a gyroscope or accelerometer.
type InertialParameters struct {
	Misalignment Matrix
	Sensitivity  Vector
	Offset       Vector
}

// MagneticParameters calibrate a magnetometer.
type MagneticParameters struct {
	SoftIron Matrix
	HardIron Vector
}

// Calibration groups the parameters for all three sensors.
type Calibration struct {
	Gyroscope     InertialParameters
	Accelerometer InertialParameters
	Magnetometer  MagneticParameters
}

// DefaultInertialParameters leave samples unchanged.
func DefaultInertialParameters() InertialParameters {
	return InertialParameters{Misalignment: IdentityMatrix(), Sensitivity: VectorOnes()}
}

// DefaultMagneticParameters leave samples unchanged.
func DefaultMagneticParameters() MagneticParameters {
	return MagneticParameters{SoftIron: IdentityMatrix()}
}

func DefaultCalibration() Calibration {
	return Calibration{
		Gyroscope:     DefaultInertialParameters(),
		Accelerometer: DefaultInertialParameters(),
		Magnetometer:  DefaultMagneticParameters(),
	}
}

// InertialCalibration returns misalignment * ((uncalibrated - offset) .* sensitivity).
func InertialCalibration(uncalibrated Vector, misalignment Matrix, sensitivity, offset Vector) Vector {
	return misalignment.MulVector(uncalibrated.Sub(offset).Hadamard(sensitivity))
}

// MagneticCalibration returns softIron * (uncalibrated - hardIron).
func MagneticCalibration(uncalibrated Vector, softIron Matrix, hardIron Vector) Vector {
	return softIron.MulVector(uncalibrated.Sub(hardIron))
}

func (p InertialParameters) Apply(v Vector) Vector {
	return InertialCalibration(v, p.Misalignment, p.Sensitivity, p.Offset)
}

func (p MagneticParameters) Apply(v Vector) Vector {
	return MagneticCalibration(v, p.SoftIron, p.HardIron)
}
