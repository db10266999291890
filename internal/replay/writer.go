package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"imu-fusion/internal/ahrs"
)

// ResultHeader is the first line of every result log.
const ResultHeader = "time,roll,pitch,yaw,earth_x,earth_y,earth_z,q_w,q_x,q_y,q_z,initializing,angular_rate_recovery,acceleration_recovery,magnetic_recovery"

// Writer writes CSV lines through a buffer. Results and raw samples share
// the same plumbing; the header decides which log it is.
type Writer struct {
	c      io.Closer
	w      *bufio.Writer
	closed bool
}

// CreateWriter creates path and writes header as its first line.
func CreateWriter(path, header string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, header)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.c = f
	return w, nil
}

// NewWriter wraps w. Close flushes but does not close w.
func NewWriter(w io.Writer, header string) (*Writer, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	if _, err := bw.WriteString(header + "\n"); err != nil {
		return nil, err
	}
	return &Writer{w: bw}, nil
}

// WriteResult appends one filter output row.
func (ww *Writer) WriteResult(s ahrs.Snapshot) error {
	if ww.closed {
		return errors.New("replay writer is closed")
	}
	_, err := fmt.Fprintf(ww.w, "%.6f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f,%d,%d,%d,%d\n",
		s.Time,
		s.RollDeg, s.PitchDeg, s.YawDeg,
		s.EarthAcceleration.X, s.EarthAcceleration.Y, s.EarthAcceleration.Z,
		s.Quaternion.W, s.Quaternion.X, s.Quaternion.Y, s.Quaternion.Z,
		b2i(s.Flags.Initializing), b2i(s.Flags.AngularRateRecovery),
		b2i(s.Flags.AccelerationRecovery), b2i(s.Flags.MagneticRecovery),
	)
	return err
}

// WriteSample appends one raw sample in the layout Reader accepts. Samples
// without a magnetometer are written with 7 fields; an external heading adds
// one trailing field.
func (ww *Writer) WriteSample(s ahrs.Sample) error {
	if ww.closed {
		return errors.New("replay writer is closed")
	}
	if _, err := fmt.Fprintf(ww.w, "%.6f,%.8f,%.8f,%.8f,%.8f,%.8f,%.8f",
		s.Time,
		s.Gyroscope.X, s.Gyroscope.Y, s.Gyroscope.Z,
		s.Accelerometer.X, s.Accelerometer.Y, s.Accelerometer.Z,
	); err != nil {
		return err
	}
	if s.HasMagnetometer {
		if _, err := fmt.Fprintf(ww.w, ",%.8f,%.8f,%.8f", s.Magnetometer.X, s.Magnetometer.Y, s.Magnetometer.Z); err != nil {
			return err
		}
	}
	if s.HasHeading {
		if _, err := fmt.Fprintf(ww.w, ",%.8f", s.HeadingDeg); err != nil {
			return err
		}
	}
	return ww.w.WriteByte('\n')
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		if ww.c != nil {
			_ = ww.c.Close()
		}
		return err
	}
	if ww.c != nil {
		return ww.c.Close()
	}
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
