package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"imu-fusion/internal/ahrs"
)

type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// Player replays samples with their relative timing.
//
// speed: 0 = as fast as possible, 1.0 = real time, 2.0 = 2x speed (half
// waits), 0.5 = half speed.
type Player struct {
	samples []ahrs.Sample
	speed   float64
	sleeper Sleeper
	next    int
}

// NewPlayer returns a Source over samples. A nil sleeper uses time.Sleep.
func NewPlayer(samples []ahrs.Sample, speed float64, sleeper Sleeper) (*Player, error) {
	if speed < 0 {
		return nil, fmt.Errorf("speed must be >= 0")
	}
	if len(samples) == 0 {
		return nil, errors.New("no samples")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	return &Player{samples: samples, speed: speed, sleeper: sleeper}, nil
}

func (p *Player) Next(ctx context.Context) (ahrs.Sample, error) {
	if err := ctx.Err(); err != nil {
		return ahrs.Sample{}, err
	}
	if p.next >= len(p.samples) {
		return ahrs.Sample{}, io.EOF
	}
	s := p.samples[p.next]
	if p.next > 0 && p.speed > 0 {
		wait := s.Time - p.samples[p.next-1].Time
		if wait > 0 {
			p.sleeper.Sleep(time.Duration(wait / p.speed * float64(time.Second)))
		}
	}
	p.next++
	return s, nil
}
