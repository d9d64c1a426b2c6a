package budgetwatch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "date only",
			input: `"2025-08-01"`,
			want:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 timestamp",
			input: `"2025-08-01T14:30:00Z"`,
			want:  time.Date(2025, 8, 1, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "null",
			input: `null`,
			want:  time.Time{},
		},
		{
			name:  "empty string",
			input: `""`,
			want:  time.Time{},
		},
		{
			name:    "garbage",
			input:   `"not-a-date"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time), "got %s, want %s", d.Time, tt.want)
		})
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	d := Date{Time: time.Date(2025, 8, 1, 14, 30, 0, 0, time.UTC)}
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-08-01"`, string(out))

	out, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestDate_String(t *testing.T) {
	assert.Equal(t, "2025-08-01", Date{Time: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)}.String())
	assert.Equal(t, "", Date{}.String())
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2025-08-01", MonthKey(time.Date(2025, 8, 29, 12, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2025-12-01", MonthKey(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "2026-01-01", MonthKey(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFormatPollTime(t *testing.T) {
	ts := time.Date(2025, 8, 29, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "August 29, 2025 - 02:05 PM", formatPollTime(ts))
	assert.Equal(t, "02:05 PM", formatResetTime(ts))
}
