package vector

import (
	"fmt"

	"github.com/dmitrijs2005/userembed/internal/common"
)

// DType is the declared element kind of a packed vector.
type DType string

const (
	Float16 DType = "float16"
	Float32 DType = "float32"
	Float64 DType = "float64"
)

// DefaultDType is used when a request omits the dtype.
const DefaultDType = Float16

// ParseDType validates s and returns it as a DType.
func ParseDType(s string) (DType, error) {
	dt := DType(s)
	if _, err := dt.Width(); err != nil {
		return "", err
	}
	return dt, nil
}

// Width returns the number of bytes per element.
func (dt DType) Width() (int, error) {
	switch dt {
	case Float16:
		return 2, nil
	case Float32:
		return 4, nil
	case Float64:
		return 8, nil
	}
	return 0, fmt.Errorf("%w: %q", common.ErrUnsupportedDType, string(dt))
}

func (dt DType) String() string { return string(dt) }
