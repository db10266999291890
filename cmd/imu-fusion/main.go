package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imu-fusion/internal/config"
)

func main() {
	var (
		configPath string
		magcalPath string
		method     string
		simFor     time.Duration
		recordPath string
	)
	flag.StringVar(&configPath, "config", "./imu-fusion.yaml", "Path to YAML config")
	flag.StringVar(&magcalPath, "magcal", "", "Fit magnetometer calibration from this sample log, print YAML and exit")
	flag.StringVar(&method, "magcal-method", "lsq", "Magnetometer fit method: lsq or minmax")
	flag.DurationVar(&simFor, "sim", 0, "Run a simulated IMU for this long instead of replay.path")
	flag.StringVar(&recordPath, "record", "", "With -sim, also write the generated samples to this path")
	flag.Parse()

	if magcalPath != "" {
		if err := runMagcal(magcalPath, method, os.Stdout); err != nil {
			log.Fatalf("magcal failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("imu-fusion starting")
	log.Printf("sample_rate_hz=%d convention=%s gain=%v", cfg.SampleRateHz, cfg.AHRS.Convention, cfg.AHRS.Gain)

	sum, err := run(ctx, cfg, runOptions{SimDuration: simFor, RecordPath: recordPath})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("run failed: %v", err)
	}
	sum.print(os.Stdout)
	log.Printf("imu-fusion stopping")
}
