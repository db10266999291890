package fusion

import "testing"

func TestInertialCalibration_IdentityIsNoop(t *testing.T) {
	for _, v := range []Vector{{}, {1, 2, 3}, {-0.25, 9.5, -1e3}} {
		got := InertialCalibration(v, IdentityMatrix(), VectorOnes(), Vector{})
		if got != v {
			t.Fatalf("InertialCalibration(%v)=%v want unchanged", v, got)
		}
		if got := DefaultInertialParameters().Apply(v); got != v {
			t.Fatalf("default parameters altered %v -> %v", v, got)
		}
		if got := DefaultMagneticParameters().Apply(v); got != v {
			t.Fatalf("default magnetic parameters altered %v -> %v", v, got)
		}
	}
}

func TestInertialCalibration_OrderOfOperations(t *testing.T) {
	// Offset first, then sensitivity, then misalignment.
	raw := NewVector(11, 22, 33)
	offset := NewVector(1, 2, 3)
	sensitivity := NewVector(2, 0.5, 1)
	swapXY := NewMatrix(0, 1, 0, 1, 0, 0, 0, 0, 1)

	got := InertialCalibration(raw, swapXY, sensitivity, offset)
	want := NewVector(10, 20, 30)
	if got != want {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestMagneticCalibration(t *testing.T) {
	raw := NewVector(15, -5, 40)
	hardIron := NewVector(5, 5, 10)
	softIron := DiagonalMatrix(NewVector(0.5, 2, 1))

	got := MagneticCalibration(raw, softIron, hardIron)
	want := NewVector(5, -20, 30)
	if got != want {
		t.Fatalf("got=%v want=%v", got, want)
	}
}
