package sim

import (
	"context"
	"io"
	"math"
	"math/rand"

	"imu-fusion/internal/ahrs"
	"imu-fusion/internal/fusion"
)

// IMU describes a deterministic synthetic sensor: a body spinning at
// constant rates in a uniform gravity and magnetic field.
type IMU struct {
	SampleRateHz uint32
	Convention   fusion.Convention

	// Initial attitude of the body.
	Initial fusion.Euler
	// RateDegPerSec is the true body angular rate.
	RateDegPerSec fusion.Vector
	// GyroscopeBias is added to every gyroscope reading.
	GyroscopeBias fusion.Vector
	// DipDeg is the magnetic inclination below the horizon.
	DipDeg float32
	// NoMagnetometer leaves the magnetometer out of the samples.
	NoMagnetometer bool

	// NoiseStdDev is the standard deviation of white noise added to every
	// axis of every sensor. Zero disables noise.
	NoiseStdDev float64
	Seed        int64

	// Samples bounds the stream. Zero means unbounded.
	Samples int
}

// Frame is one generated sample plus the attitude that produced it.
type Frame struct {
	Sample ahrs.Sample
	Truth  fusion.Quaternion
}

// Generator produces frames one at a time. It implements ahrs.Source.
type Generator struct {
	cfg   IMU
	dt    float64
	step  fusion.Quaternion
	truth fusion.Quaternion
	rng   *rand.Rand
	n     int
}

func NewGenerator(cfg IMU) *Generator {
	if cfg.SampleRateHz == 0 {
		cfg.SampleRateHz = 100
	}
	dt := 1 / float64(cfg.SampleRateHz)

	// Constant body rate: the per-sample rotation is fixed.
	rate := cfg.RateDegPerSec
	angle := float64(rate.Magnitude()) * math.Pi / 180 * dt
	step := fusion.IdentityQuaternion()
	if angle > 0 {
		axis := rate.Scale(1 / rate.Magnitude())
		s := float32(math.Sin(angle / 2))
		step = fusion.Quaternion{W: float32(math.Cos(angle / 2)), X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s}
	}

	g := &Generator{
		cfg:   cfg,
		dt:    dt,
		step:  step,
		truth: cfg.Initial.Quaternion(),
	}
	if cfg.NoiseStdDev > 0 {
		g.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return g
}

// Frame returns the next frame. ok is false once Samples frames have been
// produced.
func (g *Generator) Frame() (f Frame, ok bool) {
	if g.cfg.Samples > 0 && g.n >= g.cfg.Samples {
		return Frame{}, false
	}
	if g.n > 0 {
		g.truth = g.truth.Mul(g.step).Normalize()
	}

	toSensor := g.truth.Conjugate()
	s := ahrs.Sample{
		Time:          float64(g.n) * g.dt,
		Gyroscope:     g.noisy(g.cfg.RateDegPerSec.Add(g.cfg.GyroscopeBias)),
		Accelerometer: g.noisy(toSensor.Rotate(Gravity(g.cfg.Convention))),
	}
	if !g.cfg.NoMagnetometer {
		s.HasMagnetometer = true
		s.Magnetometer = g.noisy(toSensor.Rotate(MagneticField(g.cfg.Convention, g.cfg.DipDeg)))
	}
	g.n++
	return Frame{Sample: s, Truth: g.truth}, true
}

func (g *Generator) Next(ctx context.Context) (ahrs.Sample, error) {
	if err := ctx.Err(); err != nil {
		return ahrs.Sample{}, err
	}
	f, ok := g.Frame()
	if !ok {
		return ahrs.Sample{}, io.EOF
	}
	return f.Sample, nil
}

// Generate returns the next n frames, fewer if the stream ends.
func (g *Generator) Generate(n int) []Frame {
	out := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		f, ok := g.Frame()
		if !ok {
			break
		}
		out = append(out, f)
	}
	return out
}

func (g *Generator) noisy(v fusion.Vector) fusion.Vector {
	if g.rng == nil {
		return v
	}
	sd := g.cfg.NoiseStdDev
	return v.Add(fusion.NewVector(
		float32(g.rng.NormFloat64()*sd),
		float32(g.rng.NormFloat64()*sd),
		float32(g.rng.NormFloat64()*sd),
	))
}

// Gravity is the earth-frame accelerometer reading of a body at rest, in g.
func Gravity(c fusion.Convention) fusion.Vector {
	if c == fusion.NED {
		return fusion.NewVector(0, 0, -1)
	}
	return fusion.NewVector(0, 0, 1)
}

// MagneticField is a unit earth-frame field pointing north and dipping
// dipDeg below the horizon.
func MagneticField(c fusion.Convention, dipDeg float32) fusion.Vector {
	dip := float64(dipDeg) * math.Pi / 180
	h, v := float32(math.Cos(dip)), float32(math.Sin(dip))
	switch c {
	case fusion.ENU:
		return fusion.NewVector(0, h, -v)
	case fusion.NED:
		return fusion.NewVector(h, 0, v)
	default:
		return fusion.NewVector(h, 0, -v)
	}
}
