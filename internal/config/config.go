package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"imu-fusion/internal/fusion"
)

type Config struct {
	SampleRateHz uint32            `yaml:"sample_rate_hz"`
	AHRS         AHRSConfig        `yaml:"ahrs"`
	Calibration  CalibrationConfig `yaml:"calibration"`
	Replay       ReplayConfig      `yaml:"replay"`
	Output       OutputConfig      `yaml:"output"`
}

type AHRSConfig struct {
	Convention            string  `yaml:"convention"`
	Gain                  float32 `yaml:"gain"`
	GyroscopeRange        float32 `yaml:"gyroscope_range"`
	AccelerationRejection float32 `yaml:"acceleration_rejection"`
	MagneticRejection     float32 `yaml:"magnetic_rejection"`
	// RecoveryTriggerPeriod is in samples. Nil means five seconds worth.
	RecoveryTriggerPeriod *int32 `yaml:"recovery_trigger_period"`
}

type CalibrationConfig struct {
	Gyroscope     InertialConfig `yaml:"gyroscope"`
	Accelerometer InertialConfig `yaml:"accelerometer"`
	Magnetometer  MagneticConfig `yaml:"magnetometer"`
}

// InertialConfig holds row-major misalignment and per-axis sensitivity and
// offset. Empty lists keep the identity values.
type InertialConfig struct {
	Misalignment []float32 `yaml:"misalignment"`
	Sensitivity  []float32 `yaml:"sensitivity"`
	Offset       []float32 `yaml:"offset"`
}

type MagneticConfig struct {
	SoftIron []float32 `yaml:"soft_iron"`
	HardIron []float32 `yaml:"hard_iron"`
}

type ReplayConfig struct {
	Path string `yaml:"path"`
	// Speed is a real-time multiplier. Zero replays as fast as possible.
	Speed float64 `yaml:"speed"`
}

type OutputConfig struct {
	Path    string `yaml:"path"`
	UDPDest string `yaml:"udp_dest"`
}

// Default returns the configuration used for keys absent from a file.
func Default() Config {
	return Config{
		SampleRateHz: 100,
		AHRS: AHRSConfig{
			Convention:            "nwu",
			Gain:                  0.5,
			AccelerationRejection: 10,
			MagneticRejection:     10,
		},
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML over Default, then applies derived defaults and
// validates the result.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.SampleRateHz == 0 {
		return Config{}, fmt.Errorf("sample_rate_hz must be > 0")
	}

	cfg.AHRS.Convention = strings.ToLower(strings.TrimSpace(cfg.AHRS.Convention))
	if cfg.AHRS.Convention == "" {
		cfg.AHRS.Convention = "nwu"
	}
	if _, err := fusion.ParseConvention(cfg.AHRS.Convention); err != nil {
		return Config{}, fmt.Errorf("ahrs.convention must be one of nwu, enu, ned (got %q)", cfg.AHRS.Convention)
	}
	if cfg.AHRS.Gain < 0 {
		return Config{}, fmt.Errorf("ahrs.gain must be >= 0")
	}
	if cfg.AHRS.GyroscopeRange < 0 {
		return Config{}, fmt.Errorf("ahrs.gyroscope_range must be >= 0")
	}
	if cfg.AHRS.AccelerationRejection < 0 {
		return Config{}, fmt.Errorf("ahrs.acceleration_rejection must be >= 0")
	}
	if cfg.AHRS.MagneticRejection < 0 {
		return Config{}, fmt.Errorf("ahrs.magnetic_rejection must be >= 0")
	}
	if cfg.AHRS.RecoveryTriggerPeriod == nil {
		p := int32(5 * cfg.SampleRateHz)
		cfg.AHRS.RecoveryTriggerPeriod = &p
	}
	if *cfg.AHRS.RecoveryTriggerPeriod < 0 {
		return Config{}, fmt.Errorf("ahrs.recovery_trigger_period must be >= 0")
	}

	if err := cfg.Calibration.Gyroscope.validate("calibration.gyroscope"); err != nil {
		return Config{}, err
	}
	if err := cfg.Calibration.Accelerometer.validate("calibration.accelerometer"); err != nil {
		return Config{}, err
	}
	if err := cfg.Calibration.Magnetometer.validate("calibration.magnetometer"); err != nil {
		return Config{}, err
	}

	if cfg.Replay.Speed < 0 {
		return Config{}, fmt.Errorf("replay.speed must be >= 0")
	}

	return cfg, nil
}

func (c InertialConfig) validate(prefix string) error {
	if err := checkLen(prefix+".misalignment", c.Misalignment, 9); err != nil {
		return err
	}
	if err := checkLen(prefix+".sensitivity", c.Sensitivity, 3); err != nil {
		return err
	}
	return checkLen(prefix+".offset", c.Offset, 3)
}

func (c MagneticConfig) validate(prefix string) error {
	if err := checkLen(prefix+".soft_iron", c.SoftIron, 9); err != nil {
		return err
	}
	return checkLen(prefix+".hard_iron", c.HardIron, 3)
}

func checkLen(key string, v []float32, n int) error {
	if len(v) != 0 && len(v) != n {
		return fmt.Errorf("%s must have exactly %d values (got %d)", key, n, len(v))
	}
	return nil
}

// FusionSettings converts the validated ahrs section.
func (c Config) FusionSettings() fusion.Settings {
	conv, _ := fusion.ParseConvention(c.AHRS.Convention)
	var period int32
	if c.AHRS.RecoveryTriggerPeriod != nil {
		period = *c.AHRS.RecoveryTriggerPeriod
	}
	return fusion.Settings{
		Convention:            conv,
		Gain:                  c.AHRS.Gain,
		GyroscopeRange:        c.AHRS.GyroscopeRange,
		AccelerationRejection: c.AHRS.AccelerationRejection,
		MagneticRejection:     c.AHRS.MagneticRejection,
		RecoveryTriggerPeriod: period,
	}
}

// FusionCalibration converts the validated calibration section, filling
// identity values for anything left empty.
func (c Config) FusionCalibration() fusion.Calibration {
	return fusion.Calibration{
		Gyroscope:     c.Calibration.Gyroscope.parameters(),
		Accelerometer: c.Calibration.Accelerometer.parameters(),
		Magnetometer:  c.Calibration.Magnetometer.parameters(),
	}
}

func (c InertialConfig) parameters() fusion.InertialParameters {
	p := fusion.DefaultInertialParameters()
	if m, ok := fusion.MatrixFromSlice(c.Misalignment); ok {
		p.Misalignment = m
	}
	if v, ok := vectorFromSlice(c.Sensitivity); ok {
		p.Sensitivity = v
	}
	if v, ok := vectorFromSlice(c.Offset); ok {
		p.Offset = v
	}
	return p
}

func (c MagneticConfig) parameters() fusion.MagneticParameters {
	p := fusion.DefaultMagneticParameters()
	if m, ok := fusion.MatrixFromSlice(c.SoftIron); ok {
		p.SoftIron = m
	}
	if v, ok := vectorFromSlice(c.HardIron); ok {
		p.HardIron = v
	}
	return p
}

func vectorFromSlice(v []float32) (fusion.Vector, bool) {
	if len(v) != 3 {
		return fusion.Vector{}, false
	}
	return fusion.NewVector(v[0], v[1], v[2]), true
}

// MagneticConfigFrom renders fitted parameters in the layout Load accepts.
func MagneticConfigFrom(p fusion.MagneticParameters) MagneticConfig {
	return MagneticConfig{
		SoftIron: p.SoftIron.Slice(),
		HardIron: []float32{p.HardIron.X, p.HardIron.Y, p.HardIron.Z},
	}
}
