package ahrs

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"imu-fusion/internal/fusion"
)

type sliceSource struct {
	samples []Sample
	i       int
	err     error
}

func (s *sliceSource) Next(ctx context.Context) (Sample, error) {
	if s.i >= len(s.samples) {
		if s.err != nil {
			return Sample{}, s.err
		}
		return Sample{}, io.EOF
	}
	sample := s.samples[s.i]
	s.i++
	return sample, nil
}

func testConfig() Config {
	return Config{
		SampleRateHz: 100,
		Settings: fusion.Settings{
			Convention:            fusion.NWU,
			Gain:                  0.5,
			GyroscopeRange:        2000,
			AccelerationRejection: 10,
			MagneticRejection:     10,
			RecoveryTriggerPeriod: 500,
		},
		Calibration: fusion.DefaultCalibration(),
	}
}

func stationary(n int, acc fusion.Vector) []Sample {
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Sample{
			Time:            float64(i) * 0.01,
			Accelerometer:   acc,
			HasMagnetometer: true,
			Magnetometer:    fusion.NewVector(1, 0, 0),
		})
	}
	return out
}

func TestService_ProcessSettlesLevel(t *testing.T) {
	s := New(testConfig())
	var snap Snapshot
	var err error
	for _, sample := range stationary(500, fusion.NewVector(0, 0, 1)) {
		snap, err = s.Process(sample)
		if err != nil {
			t.Fatalf("Process() error: %v", err)
		}
	}
	if !snap.Valid {
		t.Fatalf("expected valid snapshot after initialization")
	}
	if snap.Samples != 500 {
		t.Fatalf("samples=%d want 500", snap.Samples)
	}
	if math.Abs(snap.RollDeg) > 0.5 || math.Abs(snap.PitchDeg) > 0.5 || math.Abs(snap.YawDeg) > 0.5 {
		t.Fatalf("attitude=(%v,%v,%v) want ~0", snap.RollDeg, snap.PitchDeg, snap.YawDeg)
	}
	if got := s.Snapshot(); got != snap {
		t.Fatalf("Snapshot()=%+v want %+v", got, snap)
	}
}

func TestService_RejectsNonMonotonicTime(t *testing.T) {
	s := New(testConfig())
	if _, err := s.Process(Sample{Time: 1, Accelerometer: fusion.NewVector(0, 0, 1)}); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	before := s.Snapshot()
	_, err := s.Process(Sample{Time: 1, Accelerometer: fusion.NewVector(0, 0, 1)})
	if err == nil {
		t.Fatalf("expected error for repeated timestamp")
	}
	want := "ahrs: non-monotonic timestamp t=1.000000 last=1.000000"
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
	after := s.Snapshot()
	if after.Samples != before.Samples || after.LastError != want {
		t.Fatalf("snapshot=%+v want samples=%d last_error set", after, before.Samples)
	}
}

func TestService_SetLevel(t *testing.T) {
	s := New(testConfig())
	if err := s.SetLevel(); err == nil {
		t.Fatalf("expected error before initialization")
	}

	// 10 degrees of roll.
	acc := fusion.NewVector(0, float32(math.Sin(10*math.Pi/180)), float32(math.Cos(10*math.Pi/180)))
	for _, sample := range stationary(500, acc) {
		if _, err := s.Process(sample); err != nil {
			t.Fatalf("Process() error: %v", err)
		}
	}
	if snap := s.Snapshot(); math.Abs(snap.RollDeg-10) > 0.5 {
		t.Fatalf("roll=%v want ~10", snap.RollDeg)
	}
	if err := s.SetLevel(); err != nil {
		t.Fatalf("SetLevel() error: %v", err)
	}
	snap, err := s.Process(Sample{Time: 5.0, Accelerometer: acc, HasMagnetometer: true, Magnetometer: fusion.NewVector(1, 0, 0)})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if math.Abs(snap.RollDeg) > 0.1 || math.Abs(snap.PitchDeg) > 0.1 {
		t.Fatalf("roll=%v pitch=%v want ~0 after SetLevel", snap.RollDeg, snap.PitchDeg)
	}
}

func TestService_ExternalHeading(t *testing.T) {
	s := New(testConfig())
	var snap Snapshot
	for i := 0; i < 500; i++ {
		var err error
		snap, err = s.Process(Sample{
			Time:          float64(i) * 0.01,
			Accelerometer: fusion.NewVector(0, 0, 1),
			HasHeading:    true,
			HeadingDeg:    60,
			// Ignored when a heading is present.
			HasMagnetometer: true,
			Magnetometer:    fusion.NewVector(1, 0, 0),
		})
		if err != nil {
			t.Fatalf("Process() error: %v", err)
		}
	}
	if math.Abs(snap.YawDeg-60) > 1 {
		t.Fatalf("yaw=%v want ~60", snap.YawDeg)
	}
}

func TestService_Run(t *testing.T) {
	s := New(testConfig())
	samples := stationary(50, fusion.NewVector(0, 0, 1))
	// A duplicate is skipped, not fatal.
	samples = append(samples[:10], append([]Sample{samples[9]}, samples[10:]...)...)

	var got []Snapshot
	err := s.Run(context.Background(), &sliceSource{samples: samples}, func(snap Snapshot) error {
		got = append(got, snap)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("snapshots=%d want 50", len(got))
	}
	if got[49].Samples != 50 {
		t.Fatalf("samples=%d want 50", got[49].Samples)
	}
}

func TestService_RunErrors(t *testing.T) {
	s := New(testConfig())
	if err := s.Run(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil source")
	}

	srcErr := errors.New("boom")
	err := s.Run(context.Background(), &sliceSource{err: srcErr}, nil)
	if !errors.Is(err, srcErr) {
		t.Fatalf("err=%v want wrapped %v", err, srcErr)
	}

	sinkErr := errors.New("full")
	err = s.Run(context.Background(), &sliceSource{samples: stationary(3, fusion.NewVector(0, 0, 1))}, func(Snapshot) error {
		return sinkErr
	})
	if !errors.Is(err, sinkErr) {
		t.Fatalf("err=%v want wrapped %v", err, sinkErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Run(ctx, &sliceSource{samples: stationary(3, fusion.NewVector(0, 0, 1))}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

func TestService_Reset(t *testing.T) {
	s := New(testConfig())
	for _, sample := range stationary(400, fusion.NewVector(0, 0, 1)) {
		if _, err := s.Process(sample); err != nil {
			t.Fatalf("Process() error: %v", err)
		}
	}
	s.Reset()
	if snap := s.Snapshot(); snap.Valid || snap.Samples != 0 {
		t.Fatalf("snapshot=%+v want cleared", snap)
	}
	// Time may restart after a reset.
	snap, err := s.Process(Sample{Time: 0, Accelerometer: fusion.NewVector(0, 0, 1)})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if !snap.Flags.Initializing {
		t.Fatalf("expected initializing after reset")
	}
}

func TestService_NilSafe(t *testing.T) {
	var s *Service
	if _, err := s.Process(Sample{}); err == nil {
		t.Fatalf("expected error")
	}
	if err := s.SetLevel(); err == nil {
		t.Fatalf("expected error")
	}
	s.Reset()
}
