package fusion

import (
	"math"
	"testing"
)

func TestGyroscopeOffset_ConvergesWhileStationary(t *testing.T) {
	const rate = 100
	o := NewGyroscopeOffset(rate)
	bias := NewVector(1, -0.5, 2)

	var out Vector
	for i := 0; i < offsetTimeout*rate; i++ {
		out = o.Update(bias)
	}
	if out != bias {
		t.Fatalf("before timeout out=%v want %v unchanged", out, bias)
	}
	if !o.Offset().IsZero() {
		t.Fatalf("offset moved before timeout: %v", o.Offset())
	}

	for i := 0; i < 60*rate; i++ {
		out = o.Update(bias)
	}
	if m := out.Magnitude(); m > 0.01 {
		t.Fatalf("corrected output=%v want ~0", out)
	}
	off := o.Offset()
	if math.Abs(float64(off.X-bias.X)) > 0.01 || math.Abs(float64(off.Y-bias.Y)) > 0.01 || math.Abs(float64(off.Z-bias.Z)) > 0.01 {
		t.Fatalf("offset=%v want ~%v", off, bias)
	}
}

func TestGyroscopeOffset_MotionResetsTimer(t *testing.T) {
	const rate = 50
	o := NewGyroscopeOffset(rate)
	still := NewVector(0.2, 0, 0)
	for i := 0; i < offsetTimeout*rate; i++ {
		o.Update(still)
	}
	if !o.Stationary() {
		t.Fatalf("expected stationary after timeout")
	}

	moving := NewVector(0, 0, 45)
	if got := o.Update(moving); got != moving {
		t.Fatalf("moving sample altered: got=%v want=%v", got, moving)
	}
	if o.Stationary() {
		t.Fatalf("expected motion to reset stationarity")
	}
	if !o.Offset().IsZero() {
		t.Fatalf("offset moved on motion: %v", o.Offset())
	}
}

func TestGyroscopeOffset_ThresholdIsPerAxis(t *testing.T) {
	o := NewGyroscopeOffset(10)
	for i := 0; i < 1000; i++ {
		o.Update(NewVector(0, 3.5, 0))
	}
	if !o.Offset().IsZero() {
		t.Fatalf("offset=%v want zero above threshold", o.Offset())
	}
}
