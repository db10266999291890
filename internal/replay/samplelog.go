package replay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"imu-fusion/internal/ahrs"
	"imu-fusion/internal/fusion"
)

// Sample log format: line-oriented CSV.
//
// - Blank lines ignored.
// - Lines starting with '#' ignored.
// - A first data line starting with a letter is a header and is skipped.
// - Data lines are: t,gx,gy,gz,ax,ay,az[,mx,my,mz][,heading]
//   t in seconds, gyroscope in deg/s, accelerometer in g, magnetometer in any
//   consistent unit, heading in degrees. Field count selects the layout:
//   7 (no magnetometer), 8 (external heading), 10 (magnetometer) or
//   11 (magnetometer and heading; the heading wins).

// SampleHeader is written by SampleWriter and skipped by Reader.
const SampleHeader = "time,gyr_x,gyr_y,gyr_z,acc_x,acc_y,acc_z,mag_x,mag_y,mag_z"

type Reader struct {
	s        *bufio.Scanner
	line     int
	seenData bool
}

func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{s: s}
}

// Next returns the next sample or io.EOF at the end of input.
func (rr *Reader) Next(ctx context.Context) (ahrs.Sample, error) {
	for rr.s.Scan() {
		rr.line++
		line := strings.TrimSpace(rr.s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !rr.seenData {
			rr.seenData = true
			if c := line[0]; (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				continue
			}
		}
		sample, err := parseSample(line)
		if err != nil {
			return ahrs.Sample{}, fmt.Errorf("replay: line %d: %w", rr.line, err)
		}
		return sample, nil
	}
	if err := rr.s.Err(); err != nil {
		return ahrs.Sample{}, err
	}
	return ahrs.Sample{}, io.EOF
}

func (rr *Reader) ReadAll() ([]ahrs.Sample, error) {
	out := make([]ahrs.Sample, 0, 1024)
	for {
		sample, err := rr.Next(context.Background())
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
}

func parseSample(line string) (ahrs.Sample, error) {
	fields := strings.Split(line, ",")
	switch len(fields) {
	case 7, 8, 10, 11:
	default:
		return ahrs.Sample{}, fmt.Errorf("invalid sample line (want 7, 8, 10 or 11 fields, got %d): %q", len(fields), line)
	}

	t, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return ahrs.Sample{}, fmt.Errorf("invalid timestamp %q: %w", fields[0], err)
	}
	vals := make([]float32, len(fields)-1)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return ahrs.Sample{}, fmt.Errorf("invalid value %q in field %d: %w", f, i+2, err)
		}
		vals[i] = float32(v)
	}

	sample := ahrs.Sample{
		Time:          t,
		Gyroscope:     fusion.NewVector(vals[0], vals[1], vals[2]),
		Accelerometer: fusion.NewVector(vals[3], vals[4], vals[5]),
	}
	switch len(vals) {
	case 7:
		sample.HasHeading, sample.HeadingDeg = true, vals[6]
	case 9:
		sample.HasMagnetometer = true
		sample.Magnetometer = fusion.NewVector(vals[6], vals[7], vals[8])
	case 10:
		sample.HasMagnetometer = true
		sample.Magnetometer = fusion.NewVector(vals[6], vals[7], vals[8])
		sample.HasHeading, sample.HeadingDeg = true, vals[9]
	}
	return sample, nil
}

// Magnetometer returns the magnetometer readings in samples, skipping those
// without one.
func Magnetometer(samples []ahrs.Sample) []fusion.Vector {
	out := make([]fusion.Vector, 0, len(samples))
	for _, s := range samples {
		if s.HasMagnetometer {
			out = append(out, s.Magnetometer)
		}
	}
	return out
}
