package fusion

import (
	"fmt"
	"strings"
)

// Convention is the earth axes convention.
type Convention int

const (
	// NWU is North-West-Up.
	NWU Convention = iota
	// ENU is East-North-Up.
	ENU
	// NED is North-East-Down.
	NED
)

func (c Convention) String() string {
	switch c {
	case NWU:
		return "nwu"
	case ENU:
		return "enu"
	case NED:
		return "ned"
	default:
		return fmt.Sprintf("convention(%d)", int(c))
	}
}

// ParseConvention parses "nwu", "enu" or "ned" (case-insensitive).
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nwu":
		return NWU, nil
	case "enu":
		return ENU, nil
	case "ned":
		return NED, nil
	default:
		return 0, fmt.Errorf("unknown convention %q", s)
	}
}

// expectedHalfGravity is the direction of gravity indicated by q, scaled by 0.5.
func expectedHalfGravity(c Convention, q Quaternion) Vector {
	switch c {
	case NED:
		return Vector{
			X: q.W*q.Y - q.X*q.Z,
			Y: -1 * (q.Y*q.Z + q.W*q.X),
			Z: 0.5 - q.W*q.W - q.Z*q.Z,
		}
	default: // NWU, ENU
		return Vector{
			X: q.X*q.Z - q.W*q.Y,
			Y: q.Y*q.Z + q.W*q.X,
			Z: q.W*q.W - 0.5 + q.Z*q.Z,
		}
	}
}

// expectedHalfMagnetic is the direction of gravity x magnetic field indicated by q,
// scaled by 0.5.
func expectedHalfMagnetic(c Convention, q Quaternion) Vector {
	switch c {
	case ENU:
		return Vector{
			X: 0.5 - q.W*q.W - q.X*q.X,
			Y: q.W*q.Z - q.X*q.Y,
			Z: -1 * (q.X*q.Z + q.W*q.Y),
		}
	case NED:
		return Vector{
			X: -1 * (q.X*q.Y + q.W*q.Z),
			Y: 0.5 - q.W*q.W - q.Y*q.Y,
			Z: q.W*q.X - q.Y*q.Z,
		}
	default: // NWU
		return Vector{
			X: q.X*q.Y + q.W*q.Z,
			Y: q.W*q.W - 0.5 + q.Y*q.Y,
			Z: q.Y*q.Z - q.W*q.X,
		}
	}
}

// gravitySign is +1 where the vertical axis points up (NWU, ENU) and -1
// where it points down (NED).
func gravitySign(c Convention) float32 {
	if c == NED {
		return -1
	}
	return 1
}
