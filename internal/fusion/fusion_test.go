package fusion

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFusion_ExampleScenario(t *testing.T) {
	f := New(100, exampleSettings())
	for i := 1; i <= 500; i++ {
		f.Update(Vector{}, NewVector(0, 0, 1), NewVector(1, 0, 0), float64(i)*dt)
	}
	if diff := cmp.Diff(Euler{}, f.Euler(), cmpopts.EquateApprox(0, 0.5)); diff != "" {
		t.Fatalf("euler (-want +got):\n%s", diff)
	}
	if f.Flags().Initializing {
		t.Fatalf("expected initialization complete")
	}
}

func TestFusion_TimestampMatchesDuration(t *testing.T) {
	byTime := New(100, exampleSettings())
	byDuration := New(100, exampleSettings())
	gyr := NewVector(5, -3, 12)
	acc := NewVector(0.1, 0, 0.99)
	mag := NewVector(0.8, 0.1, -0.4)

	for i := 1; i <= 300; i++ {
		byTime.Update(gyr, acc, mag, float64(i)*dt)
		byDuration.UpdateDuration(gyr, acc, mag, dt)
	}
	if diff := cmp.Diff(byDuration.Quaternion(), byTime.Quaternion(), cmpopts.EquateApprox(0, 1e-5)); diff != "" {
		t.Fatalf("quaternion (-duration +timestamp):\n%s", diff)
	}

	noMagTime := New(100, exampleSettings())
	noMagDuration := New(100, exampleSettings())
	headingTime := New(100, exampleSettings())
	headingDuration := New(100, exampleSettings())
	for i := 1; i <= 300; i++ {
		noMagTime.UpdateNoMagnetometer(gyr, acc, float64(i)*dt)
		noMagDuration.UpdateNoMagnetometerDuration(gyr, acc, dt)
		headingTime.UpdateExternalHeading(gyr, acc, 30, float64(i)*dt)
		headingDuration.UpdateExternalHeadingDuration(gyr, acc, 30, dt)
	}
	if diff := cmp.Diff(noMagDuration.Quaternion(), noMagTime.Quaternion(), cmpopts.EquateApprox(0, 1e-5)); diff != "" {
		t.Fatalf("no magnetometer quaternion (-duration +timestamp):\n%s", diff)
	}
	if diff := cmp.Diff(headingDuration.Quaternion(), headingTime.Quaternion(), cmpopts.EquateApprox(0, 1e-5)); diff != "" {
		t.Fatalf("external heading quaternion (-duration +timestamp):\n%s", diff)
	}
}

func TestFusion_CalibrationAppliedBeforeAhrs(t *testing.T) {
	f := New(100, exampleSettings())
	c := DefaultCalibration()
	c.Gyroscope.Offset = NewVector(0, 0, 10)
	c.Accelerometer.Sensitivity = NewVector(1, 1, 0.5)
	c.Magnetometer.HardIron = NewVector(100, 0, 0)
	f.SetCalibration(c)

	for i := 1; i <= 1000; i++ {
		f.Update(NewVector(0, 0, 10), NewVector(0, 0, 2), NewVector(101, 0, 0), float64(i)*dt)
	}
	if diff := cmp.Diff(Euler{}, f.Euler(), cmpopts.EquateApprox(0, 0.5)); diff != "" {
		t.Fatalf("euler (-want +got):\n%s", diff)
	}
	if e := f.EarthAcceleration(); e.Magnitude() > 0.01 {
		t.Fatalf("earth acceleration=%v want ~0 after sensitivity correction", e)
	}
	if got := f.Calibration(); got != c {
		t.Fatalf("calibration=%+v want %+v", got, c)
	}
}

func TestFusion_LearnsGyroscopeBias(t *testing.T) {
	f := New(100, exampleSettings())
	bias := NewVector(0.5, -0.3, 0.2)
	for i := 1; i <= 6000; i++ {
		f.UpdateNoMagnetometerDuration(bias, NewVector(0, 0, 1), dt)
	}
	if diff := cmp.Diff(bias, f.GyroscopeOffset(), cmpopts.EquateApprox(0, 0.01)); diff != "" {
		t.Fatalf("gyroscope offset (-want +got):\n%s", diff)
	}
	if e := f.Euler(); math.Abs(float64(e.Roll)) > 1 || math.Abs(float64(e.Pitch)) > 1 {
		t.Fatalf("euler=%+v want level", e)
	}
}

func TestFusion_ResetForgetsTimestamp(t *testing.T) {
	f := New(100, exampleSettings())
	for i := 1; i <= 100; i++ {
		f.Update(NewVector(0, 0, 30), NewVector(0, 0, 1), Vector{}, 1000+float64(i)*dt)
	}
	f.Reset()
	if f.Quaternion() != IdentityQuaternion() {
		t.Fatalf("quaternion=%v want identity", f.Quaternion())
	}
	if !f.Flags().Initializing {
		t.Fatalf("expected initializing after reset")
	}

	// The first sample after reset measures from zero again.
	fresh := New(100, exampleSettings())
	f.Update(NewVector(0, 0, 30), NewVector(0, 0, 1), Vector{}, 0.01)
	fresh.Update(NewVector(0, 0, 30), NewVector(0, 0, 1), Vector{}, 0.01)
	if f.Quaternion() != fresh.Quaternion() {
		t.Fatalf("quaternion=%v want %v", f.Quaternion(), fresh.Quaternion())
	}
	if yaw := f.Euler().Yaw; yaw < 0.2 || yaw > 0.4 {
		t.Fatalf("yaw=%v want ~0.3 after one 10 ms step at 30 deg/s", yaw)
	}
}

func TestFusion_MethodsMatchFreeFunctions(t *testing.T) {
	f := New(50, DefaultSettings())
	raw := NewVector(1, 2, 3)
	m := NewMatrix(1, 0.1, 0, 0, 1, 0, 0, 0, 1)
	if got, want := f.InertialCalibration(raw, m, NewVector(2, 2, 2), NewVector(1, 1, 1)), InertialCalibration(raw, m, NewVector(2, 2, 2), NewVector(1, 1, 1)); got != want {
		t.Fatalf("InertialCalibration=%v want %v", got, want)
	}
	if got, want := f.MagneticCalibration(raw, m, NewVector(1, 1, 1)), MagneticCalibration(raw, m, NewVector(1, 1, 1)); got != want {
		t.Fatalf("MagneticCalibration=%v want %v", got, want)
	}
}
