package localtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUTC(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		clock string
		want  time.Time
	}{
		{"morning", "2025-01-10", "09:00", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"afternoon", "2025-01-10", "14:30", time.Date(2025, 1, 10, 5, 30, 0, 0, time.UTC)},
		{"early hours fall on previous UTC day", "2025-01-10", "03:15", time.Date(2025, 1, 9, 18, 15, 0, 0, time.UTC)},
		{"new year rolls back a year", "2025-01-01", "00:00", time.Date(2024, 12, 31, 15, 0, 0, 0, time.UTC)},
		{"last minute of the day", "2025-03-31", "23:59", time.Date(2025, 3, 31, 14, 59, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToUTC(tt.date, tt.clock)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestToUTCInvalid(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		clock string
	}{
		{"empty date", "", "09:00"},
		{"short date", "2025-1-10", "09:00"},
		{"slashes", "2025/01/10", "09:00"},
		{"impossible day", "2025-02-30", "09:00"},
		{"hour out of range", "2025-01-10", "24:00"},
		{"minute out of range", "2025-01-10", "10:60"},
		{"single digit hour", "2025-01-10", "9:00"},
		{"seconds included", "2025-01-10", "09:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToUTC(tt.date, tt.clock)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestFromUTCRollsOver(t *testing.T) {
	got := FromUTC(time.Date(2024, 12, 31, 20, 45, 0, 0, time.UTC))
	assert.Equal(t, "2025-01-01", got.Date())
	assert.Equal(t, "05:45", got.Clock())

	leap := FromUTC(time.Date(2024, 2, 28, 16, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-29", leap.Date())
	assert.Equal(t, "01:00", leap.Clock())
}

func TestFromUTCIgnoresInputLocation(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	got := FromUTC(time.Date(2025, 6, 1, 10, 0, 0, 0, ny))
	assert.Equal(t, "2025-06-02", got.Date())
	assert.Equal(t, "00:00", got.Clock())
}

func TestRoundTrip(t *testing.T) {
	dates := []string{"2024-02-29", "2025-01-01", "2025-06-15", "2025-12-31"}
	for _, d := range dates {
		for h := 0; h < 24; h++ {
			for _, m := range []int{0, 1, 29, 30, 59} {
				clock := time.Date(2000, 1, 1, h, m, 0, 0, time.UTC).Format(ClockLayout)
				utc, err := ToUTC(d, clock)
				require.NoError(t, err)
				back := FromUTC(utc)
				assert.Equal(t, d, back.Date())
				assert.Equal(t, clock, back.Clock())
			}
		}
	}
}

func TestNormalizeDateForQuery(t *testing.T) {
	start, err := NormalizeDateForQuery("2025-01-10", false)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10T00:00:00.000Z", start.Format("2006-01-02T15:04:05.000Z07:00"))

	end, err := NormalizeDateForQuery("2025-01-10", true)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10T23:59:59.999Z", end.Format("2006-01-02T15:04:05.000Z07:00"))

	for _, bad := range []string{"2025-01-1", "2025-01-100", "20250110", "2025-13-01", "abcd-ef-gh"} {
		_, err := NormalizeDateForQuery(bad, false)
		assert.ErrorIs(t, err, ErrInvalidFormat, bad)
	}
}

func TestDayRange(t *testing.T) {
	start, end, err := DayRange("2025-01-10", "2025-01-12")
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 1, 9, 15, 0, 0, 0, time.UTC)))
	assert.True(t, end.Equal(time.Date(2025, 1, 12, 15, 0, 0, 0, time.UTC)))

	t.Run("reversed dates are swapped", func(t *testing.T) {
		s2, e2, err := DayRange("2025-01-12", "2025-01-10")
		require.NoError(t, err)
		assert.True(t, start.Equal(s2))
		assert.True(t, end.Equal(e2))
	})

	t.Run("single day covers 24 hours", func(t *testing.T) {
		s, e, err := DayRange("2025-01-10", "2025-01-10")
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, e.Sub(s))
	})

	t.Run("bad input", func(t *testing.T) {
		_, _, err := DayRange("2025-01-10", "tomorrow")
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}

func TestFormat(t *testing.T) {
	ts := time.Date(2025, 1, 10, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-11 00:30", Format(ts, "2006-01-02 15:04"))
	assert.Equal(t, "+0900", Format(ts, "-0700"))
}
