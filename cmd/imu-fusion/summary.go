package main

import (
	"fmt"
	"io"

	"imu-fusion/internal/ahrs"
)

type runSummary struct {
	Samples              int
	FirstTime            float64
	LastTime             float64
	InitializingSamples  int
	AngularRateRecovery  int
	AccelerationRecovery int
	MagneticRecovery     int
	SendErrors           int
	Last                 ahrs.Snapshot
}

func (s *runSummary) add(snap ahrs.Snapshot) {
	if s.Samples == 0 {
		s.FirstTime = snap.Time
	}
	s.Samples++
	s.LastTime = snap.Time
	s.Last = snap
	if snap.Flags.Initializing {
		s.InitializingSamples++
	}
	if snap.Flags.AngularRateRecovery {
		s.AngularRateRecovery++
	}
	if snap.Flags.AccelerationRecovery {
		s.AccelerationRecovery++
	}
	if snap.Flags.MagneticRecovery {
		s.MagneticRecovery++
	}
}

func (s runSummary) print(w io.Writer) {
	fmt.Fprintf(w, "samples: %d\n", s.Samples)
	fmt.Fprintf(w, "duration_s: %.3f\n", s.LastTime-s.FirstTime)
	fmt.Fprintf(w, "initializing_samples: %d\n", s.InitializingSamples)
	fmt.Fprintf(w, "recovery_samples: angular_rate=%d acceleration=%d magnetic=%d\n",
		s.AngularRateRecovery, s.AccelerationRecovery, s.MagneticRecovery)
	if s.SendErrors > 0 {
		fmt.Fprintf(w, "udp_send_errors: %d\n", s.SendErrors)
	}
	if s.Samples == 0 {
		return
	}
	l := s.Last
	fmt.Fprintf(w, "final_euler_deg: roll=%.3f pitch=%.3f yaw=%.3f\n", l.RollDeg, l.PitchDeg, l.YawDeg)
	fmt.Fprintf(w, "gyroscope_offset: x=%.4f y=%.4f z=%.4f\n", l.GyroscopeOffset.X, l.GyroscopeOffset.Y, l.GyroscopeOffset.Z)
}
