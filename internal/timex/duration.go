// Package timex holds time helpers that the standard library lacks.
package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration so it can be read from JSON either as a Go
// duration string ("1m30s") or as an integer number of nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	case nil:
		d.Duration = 0
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}
