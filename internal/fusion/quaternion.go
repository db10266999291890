package fusion

// Quaternion is a Hamilton quaternion (w, x, y, z). Orientation quaternions
// are kept at unit norm by normalizing after every integration step.
type Quaternion struct {
	W, X, Y, Z float32
}

func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

func (q Quaternion) Add(p Quaternion) Quaternion {
	return Quaternion{W: q.W + p.W, X: q.X + p.X, Y: q.Y + p.Y, Z: q.Z + p.Z}
}

func (q Quaternion) Scale(s float32) Quaternion {
	return Quaternion{W: q.W * s, X: q.X * s, Y: q.Y * s, Z: q.Z * s}
}

// Mul returns the Hamilton product q*p. It is not commutative.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return Quaternion{
		W: q.W*p.W - q.X*p.X - q.Y*p.Y - q.Z*p.Z,
		X: q.W*p.X + q.X*p.W + q.Y*p.Z - q.Z*p.Y,
		Y: q.W*p.Y - q.X*p.Z + q.Y*p.W + q.Z*p.X,
		Z: q.W*p.Z + q.X*p.Y - q.Y*p.X + q.Z*p.W,
	}
}

// MulVector returns q*v with v treated as the pure quaternion (0, v).
func (q Quaternion) MulVector(v Vector) Quaternion {
	return Quaternion{
		W: -q.X*v.X - q.Y*v.Y - q.Z*v.Z,
		X: q.W*v.X + q.Y*v.Z - q.Z*v.Y,
		Y: q.W*v.Y - q.X*v.Z + q.Z*v.X,
		Z: q.W*v.Z + q.X*v.Y - q.Y*v.X,
	}
}

func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

func (q Quaternion) NormSquared() float32 {
	return q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
}

func (q Quaternion) Normalize() Quaternion {
	return q.Scale(invSqrt(q.NormSquared()))
}

// Rotate rotates v by the unit quaternion q without building a matrix.
func (q Quaternion) Rotate(v Vector) Vector {
	u := Vector{X: q.X, Y: q.Y, Z: q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// RotationMatrix returns the matrix that rotates sensor-frame vectors into
// the earth frame.
func (q Quaternion) RotationMatrix() Matrix {
	qwqw := q.W * q.W
	qwqx := q.W * q.X
	qwqy := q.W * q.Y
	qwqz := q.W * q.Z
	qxqx := q.X * q.X
	qxqy := q.X * q.Y
	qxqz := q.X * q.Z
	qyqy := q.Y * q.Y
	qyqz := q.Y * q.Z
	qzqz := q.Z * q.Z
	return Matrix{
		XX: 2 * (qwqw - 0.5 + qxqx),
		XY: 2 * (qxqy - qwqz),
		XZ: 2 * (qxqz + qwqy),
		YX: 2 * (qxqy + qwqz),
		YY: 2 * (qwqw - 0.5 + qyqy),
		YZ: 2 * (qyqz - qwqx),
		ZX: 2 * (qxqz - qwqy),
		ZY: 2 * (qyqz + qwqx),
		ZZ: 2 * (qwqw - 0.5 + qzqz),
	}
}

// Euler returns the ZYX Euler angles of q in degrees.
func (q Quaternion) Euler() Euler {
	halfMinusQySquared := 0.5 - q.Y*q.Y
	return Euler{
		Roll:  radiansToDegrees(atan2f(q.W*q.X+q.Y*q.Z, halfMinusQySquared-q.X*q.X)),
		Pitch: radiansToDegrees(asinSafe(2 * (q.W*q.Y - q.Z*q.X))),
		Yaw:   radiansToDegrees(atan2f(q.W*q.Z+q.X*q.Y, halfMinusQySquared-q.Z*q.Z)),
	}
}
