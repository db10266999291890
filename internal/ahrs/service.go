package ahrs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"imu-fusion/internal/fusion"
)

type Config struct {
	SampleRateHz uint32
	Settings     fusion.Settings
	Calibration  fusion.Calibration
}

// Sample is one raw sensor reading. Time is in seconds and must increase
// from one sample to the next.
type Sample struct {
	Time          float64
	Gyroscope     fusion.Vector
	Accelerometer fusion.Vector

	HasMagnetometer bool
	Magnetometer    fusion.Vector

	// HasHeading selects the external heading path. It takes precedence
	// over the magnetometer.
	HasHeading bool
	HeadingDeg float32
}

// Source yields samples in time order. It returns io.EOF when exhausted.
type Source interface {
	Next(ctx context.Context) (Sample, error)
}

type Snapshot struct {
	// Valid is true once initialization has completed.
	Valid   bool    `json:"valid"`
	Samples uint64  `json:"samples"`
	Time    float64 `json:"time"`

	RollDeg  float64 `json:"roll_deg"`
	PitchDeg float64 `json:"pitch_deg"`
	YawDeg   float64 `json:"yaw_deg"`

	Quaternion         fusion.Quaternion `json:"quaternion"`
	EarthAcceleration  fusion.Vector     `json:"earth_acceleration"`
	LinearAcceleration fusion.Vector     `json:"linear_acceleration"`
	GyroscopeOffset    fusion.Vector     `json:"gyroscope_offset"`
	Flags              fusion.Flags      `json:"flags"`

	LastError string `json:"last_error,omitempty"`
}

type Service struct {
	cfg Config

	mu       sync.RWMutex
	fusion   fusion.Fusion
	lastTime float64
	samples  uint64
	flags    fusion.Flags
	snap     Snapshot

	rollOffsetDeg  float64
	pitchOffsetDeg float64
}

func New(cfg Config) *Service {
	if cfg.SampleRateHz == 0 {
		cfg.SampleRateHz = 100
	}
	f := fusion.New(cfg.SampleRateHz, cfg.Settings)
	f.SetCalibration(cfg.Calibration)
	return &Service{cfg: cfg, fusion: f}
}

func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Process feeds one sample through the filter and returns the new snapshot.
// Samples that do not advance time are rejected and leave the filter
// untouched.
func (s *Service) Process(sample Sample) (Snapshot, error) {
	if s == nil {
		return Snapshot{}, fmt.Errorf("ahrs: service is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := 1 / float32(s.cfg.SampleRateHz)
	if s.samples > 0 {
		if sample.Time <= s.lastTime {
			err := fmt.Errorf("ahrs: non-monotonic timestamp t=%.6f last=%.6f", sample.Time, s.lastTime)
			s.snap.LastError = err.Error()
			return s.snap, err
		}
		dt = float32(sample.Time - s.lastTime)
	}
	s.lastTime = sample.Time
	s.samples++

	switch {
	case sample.HasHeading:
		s.fusion.UpdateExternalHeadingDuration(sample.Gyroscope, sample.Accelerometer, sample.HeadingDeg, dt)
	case sample.HasMagnetometer:
		s.fusion.UpdateDuration(sample.Gyroscope, sample.Accelerometer, sample.Magnetometer, dt)
	default:
		s.fusion.UpdateNoMagnetometerDuration(sample.Gyroscope, sample.Accelerometer, dt)
	}

	flags := s.fusion.Flags()
	if flags != s.flags {
		log.Printf("ahrs flags changed initializing=%t angular_rate_recovery=%t acceleration_recovery=%t magnetic_recovery=%t t=%.3f",
			flags.Initializing, flags.AngularRateRecovery, flags.AccelerationRecovery, flags.MagneticRecovery, sample.Time)
		s.flags = flags
	}

	e := s.fusion.Euler()
	s.snap = Snapshot{
		Valid:              !flags.Initializing,
		Samples:            s.samples,
		Time:               sample.Time,
		RollDeg:            float64(e.Roll) + s.rollOffsetDeg,
		PitchDeg:           float64(e.Pitch) + s.pitchOffsetDeg,
		YawDeg:             float64(e.Yaw),
		Quaternion:         s.fusion.Quaternion(),
		EarthAcceleration:  s.fusion.EarthAcceleration(),
		LinearAcceleration: s.fusion.LinearAcceleration(),
		GyroscopeOffset:    s.fusion.GyroscopeOffset(),
		Flags:              flags,
	}
	return s.snap, nil
}

// Run reads src until it is exhausted or ctx is cancelled, passing every
// processed snapshot to sink. sink may be nil. Rejected samples are logged
// and skipped.
func (s *Service) Run(ctx context.Context, src Source, sink func(Snapshot) error) error {
	if s == nil {
		return fmt.Errorf("ahrs: service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ahrs: ctx is nil")
	}
	if src == nil {
		return fmt.Errorf("ahrs: source is nil")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sample, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ahrs: read sample: %w", err)
		}
		snap, err := s.Process(sample)
		if err != nil {
			log.Printf("ahrs sample skipped: %v", err)
			continue
		}
		if sink != nil {
			if err := sink(snap); err != nil {
				return fmt.Errorf("ahrs: sink: %w", err)
			}
		}
	}
}

// SetLevel re-zeros roll/pitch so the current attitude becomes (0,0).
// The offset is not persisted; it lives for the process lifetime.
func (s *Service) SetLevel() error {
	if s == nil {
		return fmt.Errorf("ahrs: service is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snap.Valid {
		return fmt.Errorf("ahrs: not valid (initializing)")
	}
	s.rollOffsetDeg -= s.snap.RollDeg
	s.pitchOffsetDeg -= s.snap.PitchDeg
	s.snap.RollDeg = 0
	s.snap.PitchDeg = 0
	return nil
}

// Reset reinitializes the filter and forgets the last timestamp. Level
// offsets and the gyroscope bias estimate are kept.
func (s *Service) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fusion.Reset()
	s.samples = 0
	s.lastTime = 0
	s.flags = fusion.Flags{}
	s.snap = Snapshot{}
	log.Printf("ahrs reset")
}
