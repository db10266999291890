package fusion

// Matrix is a 3x3 matrix stored row by row.
type Matrix struct {
	XX, XY, XZ float32
	YX, YY, YZ float32
	ZX, ZY, ZZ float32
}

func NewMatrix(xx, xy, xz, yx, yy, yz, zx, zy, zz float32) Matrix {
	return Matrix{
		XX: xx, XY: xy, XZ: xz,
		YX: yx, YY: yy, YZ: yz,
		ZX: zx, ZY: zy, ZZ: zz,
	}
}

func IdentityMatrix() Matrix {
	return Matrix{XX: 1, YY: 1, ZZ: 1}
}

// DiagonalMatrix returns a matrix with d on the diagonal and zeros elsewhere.
func DiagonalMatrix(d Vector) Matrix {
	return Matrix{XX: d.X, YY: d.Y, ZZ: d.Z}
}

// MatrixFromSlice builds a matrix from 9 row-major values. It returns false
// if the slice has the wrong length.
func MatrixFromSlice(v []float32) (Matrix, bool) {
	if len(v) != 9 {
		return Matrix{}, false
	}
	return NewMatrix(v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], v[8]), true
}

// Slice returns the 9 entries in row-major order.
func (m Matrix) Slice() []float32 {
	return []float32{m.XX, m.XY, m.XZ, m.YX, m.YY, m.YZ, m.ZX, m.ZY, m.ZZ}
}

func (m Matrix) MulVector(v Vector) Vector {
	return Vector{
		X: m.XX*v.X + m.XY*v.Y + m.XZ*v.Z,
		Y: m.YX*v.X + m.YY*v.Y + m.YZ*v.Z,
		Z: m.ZX*v.X + m.ZY*v.Y + m.ZZ*v.Z,
	}
}

func (m Matrix) Transpose() Matrix {
	return Matrix{
		XX: m.XX, XY: m.YX, XZ: m.ZX,
		YX: m.XY, YY: m.YY, YZ: m.ZY,
		ZX: m.XZ, ZY: m.YZ, ZZ: m.ZZ,
	}
}
