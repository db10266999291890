package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"imu-fusion/internal/ahrs"
	"imu-fusion/internal/config"
	"imu-fusion/internal/fusion"
	"imu-fusion/internal/replay"
	"imu-fusion/internal/sim"
	"imu-fusion/internal/udp"
)

type runOptions struct {
	// SimDuration selects the simulated source when positive.
	SimDuration time.Duration
	RecordPath  string
	Sleeper     replay.Sleeper
}

// simIMU is the synthetic sensor used by -sim: a slow turn with a small
// gyroscope bias and sensor noise.
func simIMU(cfg config.Config, d time.Duration) sim.IMU {
	settings := cfg.FusionSettings()
	n := int(d.Seconds() * float64(cfg.SampleRateHz))
	if n < 1 {
		n = 1
	}
	return sim.IMU{
		SampleRateHz:  cfg.SampleRateHz,
		Convention:    settings.Convention,
		RateDegPerSec: fusion.NewVector(0, 0, 10),
		GyroscopeBias: fusion.NewVector(0.2, -0.1, 0.05),
		DipDeg:        60,
		NoiseStdDev:   0.002,
		Seed:          1,
		Samples:       n,
	}
}

func openSource(cfg config.Config, opts runOptions) (ahrs.Source, error) {
	if opts.SimDuration > 0 {
		imu := simIMU(cfg, opts.SimDuration)
		if strings.TrimSpace(opts.RecordPath) == "" {
			return sim.NewGenerator(imu), nil
		}
		// Record first so the log and the run see the same samples.
		frames := sim.NewGenerator(imu).Generate(imu.Samples)
		w, err := replay.CreateWriter(opts.RecordPath, replay.SampleHeader)
		if err != nil {
			return nil, fmt.Errorf("create record: %w", err)
		}
		samples := make([]ahrs.Sample, 0, len(frames))
		for _, f := range frames {
			if err := w.WriteSample(f.Sample); err != nil {
				_ = w.Close()
				return nil, fmt.Errorf("write record: %w", err)
			}
			samples = append(samples, f.Sample)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("close record: %w", err)
		}
		return replay.NewPlayer(samples, 0, nil)
	}

	path := strings.TrimSpace(cfg.Replay.Path)
	if path == "" {
		return nil, fmt.Errorf("replay.path is required without -sim")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := replay.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	return replay.NewPlayer(samples, cfg.Replay.Speed, opts.Sleeper)
}

// run feeds the configured source through the filter, writing results and
// broadcasting snapshots when the config asks for them.
func run(ctx context.Context, cfg config.Config, opts runOptions) (runSummary, error) {
	var sum runSummary

	src, err := openSource(cfg, opts)
	if err != nil {
		return sum, err
	}

	var out *replay.Writer
	if p := strings.TrimSpace(cfg.Output.Path); p != "" {
		out, err = replay.CreateWriter(p, replay.ResultHeader)
		if err != nil {
			return sum, fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := out.Close(); cerr != nil {
				log.Printf("output close failed: %v", cerr)
			}
		}()
	}

	var bc *udp.Broadcaster
	if dest := strings.TrimSpace(cfg.Output.UDPDest); dest != "" {
		bc, err = udp.NewBroadcaster(dest)
		if err != nil {
			return sum, fmt.Errorf("udp broadcaster init failed: %w", err)
		}
		defer bc.Close()
		log.Printf("udp dest=%s", dest)
	}

	svc := ahrs.New(ahrs.Config{
		SampleRateHz: cfg.SampleRateHz,
		Settings:     cfg.FusionSettings(),
		Calibration:  cfg.FusionCalibration(),
	})

	err = svc.Run(ctx, src, func(s ahrs.Snapshot) error {
		sum.add(s)
		if out != nil {
			if err := out.WriteResult(s); err != nil {
				return err
			}
		}
		if bc != nil {
			// Datagrams are best-effort.
			if err := bc.SendJSON(s); err != nil {
				sum.SendErrors++
			}
		}
		return nil
	})
	return sum, err
}
