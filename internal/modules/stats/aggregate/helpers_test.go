package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		g     Granularity
		ref   time.Time
		start time.Time
	}{
		{"daily", Daily, date(2024, 4, 1, 10), date(2024, 3, 2, 0)},
		{"daily across year", Daily, date(2024, 1, 15, 0), date(2023, 12, 16, 0)},
		{"monthly", Monthly, date(2024, 4, 1, 10), date(2023, 4, 1, 0)},
		{"monthly keeps day", Monthly, date(2024, 3, 31, 8), date(2023, 3, 31, 0)},
		{"yearly", Yearly, date(2024, 4, 1, 0), date(2019, 4, 1, 0)},
		{"yearly clamps leap day", Yearly, date(2024, 2, 29, 12), date(2019, 2, 28, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := Boundaries(tc.g, tc.ref)
			require.NoError(t, err)
			assert.Equal(t, tc.start, w.Start)
			assert.Equal(t, tc.ref, w.End)
		})
	}

	_, err := Boundaries(Granularity("hourly"), date(2024, 1, 1, 0))
	assert.Error(t, err)
}

func TestBoundariesStartAtLocalMidnight(t *testing.T) {
	shanghai := time.FixedZone("UTC+8", 8*3600)
	ref := time.Date(2024, 4, 1, 15, 30, 0, 0, shanghai)

	w, err := Boundaries(Daily, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, shanghai), w.Start)

	// A post from early on the first day lands in the window.
	assert.True(t, w.Contains(time.Date(2024, 3, 2, 1, 0, 0, 0, shanghai)))
	assert.False(t, w.Contains(time.Date(2024, 3, 1, 23, 59, 0, 0, shanghai)))
}

func TestLastMonthClampsDay(t *testing.T) {
	assert.Equal(t, date(2024, 2, 29, 9), LastMonth(date(2024, 3, 31, 9)).Start)
	assert.Equal(t, date(2023, 2, 28, 9), LastMonth(date(2023, 3, 31, 9)).Start)
	assert.Equal(t, date(2023, 12, 15, 0), LastMonth(date(2024, 1, 15, 0)).Start)
}

func TestAddMonthsClamped(t *testing.T) {
	assert.Equal(t, date(2023, 11, 30, 0), addMonthsClamped(date(2024, 1, 30, 0), -2))
	assert.Equal(t, date(2024, 2, 29, 0), addMonthsClamped(date(2023, 12, 31, 0), 2))
	assert.Equal(t, date(2012, 5, 31, 0), addMonthsClamped(date(2024, 5, 31, 0), -144))
	assert.Equal(t, date(2024, 1, 31, 0), addMonthsClamped(date(2024, 1, 31, 0), 0))
}

func TestBucketKey(t *testing.T) {
	ts := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-05", BucketKey(Daily, ts))
	assert.Equal(t, "2024-03", BucketKey(Monthly, ts))
	assert.Equal(t, "2024", BucketKey(Yearly, ts))
}

func TestWindowContainsIsInclusive(t *testing.T) {
	w := Window{Start: date(2024, 1, 1, 0), End: date(2024, 2, 1, 0)}
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(w.End.Add(time.Nanosecond)))
}
