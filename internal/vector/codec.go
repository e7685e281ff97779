package vector

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/x448/float16"
)

// Matrix is a row-major float matrix. Embeddings are always 1×N.
type Matrix [][]float64

// Flatten returns the elements of m in row-major order.
func (m Matrix) Flatten() []float64 {
	n := 0
	for _, row := range m {
		n += len(row)
	}
	out := make([]float64, 0, n)
	for _, row := range m {
		out = append(out, row...)
	}
	return out
}

// Encode packs m as big-endian elements of width dt.
// Narrowing casts follow IEEE-754 round-to-nearest-even.
func Encode(m Matrix, dt DType) ([]byte, error) {
	width, err := dt.Width()
	if err != nil {
		return nil, err
	}

	values := m.Flatten()
	b := make([]byte, len(values)*width)

	for i, v := range values {
		off := i * width
		switch dt {
		case Float16:
			binary.BigEndian.PutUint16(b[off:], float16.Fromfloat32(float32(v)).Bits())
		case Float32:
			binary.BigEndian.PutUint32(b[off:], math.Float32bits(float32(v)))
		case Float64:
			binary.BigEndian.PutUint64(b[off:], math.Float64bits(v))
		}
	}

	return b, nil
}

// Decode unpacks b as big-endian elements of width dt, widened to float64,
// and wraps them as a single-row matrix.
func Decode(b []byte, dt DType) (Matrix, error) {
	n, err := Len(b, dt)
	if err != nil {
		return nil, err
	}
	width, _ := dt.Width()

	row := make([]float64, n)
	for i := range row {
		off := i * width
		switch dt {
		case Float16:
			row[i] = float64(float16.Frombits(binary.BigEndian.Uint16(b[off:])).Float32())
		case Float32:
			row[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(b[off:])))
		case Float64:
			row[i] = math.Float64frombits(binary.BigEndian.Uint64(b[off:]))
		}
	}

	return Matrix{row}, nil
}

// Len returns the number of dt elements packed in b.
func Len(b []byte, dt DType) (int, error) {
	width, err := dt.Width()
	if err != nil {
		return 0, err
	}
	if len(b)%width != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a multiple of %d (%s)",
			common.ErrInvalidVectorLength, len(b), width, dt)
	}
	return len(b) / width, nil
}

// ByteLen is the expected packed length of size elements of dt.
func ByteLen(size int, dt DType) (int, error) {
	width, err := dt.Width()
	if err != nil {
		return 0, err
	}
	return size * width, nil
}
