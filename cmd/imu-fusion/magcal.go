package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"imu-fusion/internal/config"
	"imu-fusion/internal/fusion"
	"imu-fusion/internal/magcal"
	"imu-fusion/internal/replay"
)

// magcalOutput mirrors the calibration section of the config file so the
// printed YAML can be pasted in as is.
type magcalOutput struct {
	Calibration struct {
		Magnetometer config.MagneticConfig `yaml:"magnetometer"`
	} `yaml:"calibration"`
}

func runMagcal(path, method string, w io.Writer) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	samples, err := replay.NewReader(f).ReadAll()
	if err != nil {
		return err
	}
	mags := replay.Magnetometer(samples)

	var p fusion.MagneticParameters
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", "lsq":
		p, err = magcal.Fit(mags)
	case "minmax":
		p, err = magcal.FitMinMax(mags)
	default:
		return fmt.Errorf("unknown magcal method %q (want lsq or minmax)", method)
	}
	if err != nil {
		return err
	}
	log.Printf("magcal fit method=%s samples=%d residual=%.5f", method, len(mags), magcal.Residual(p, mags))

	var out magcalOutput
	out.Calibration.Magnetometer = config.MagneticConfigFrom(p)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
