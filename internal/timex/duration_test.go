package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", in: `"1m30s"`, want: 90 * time.Second},
		{name: "nanoseconds", in: `1000000000`, want: time.Second},
		{name: "null", in: `null`, want: 0},
		{name: "bad string", in: `"soon"`, wantErr: true},
		{name: "bool", in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 10 * time.Second})
	require.NoError(t, err)
	assert.JSONEq(t, `"10s"`, string(b))
}
