// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDosTimeRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 15, 13, 45, 30, 0, time.UTC),
		time.Date(2107, 12, 31, 23, 59, 58, 0, time.UTC),
	}

	for _, want := range cases {
		packed := FromWallClock(want)
		got, err := packed.ToWallClock()
		require.NoError(t, err)

		// Seconds truncate to an even second.
		truncated := want.Truncate(2 * time.Second)
		assert.True(t, truncated.Equal(got), "want %v got %v", truncated, got)
	}
}

func TestDosTimeFromWallClockTruncatesSeconds(t *testing.T) {
	odd := time.Date(2020, 3, 4, 5, 6, 7, 0, time.UTC)
	packed := FromWallClock(odd)
	got, err := packed.ToWallClock()
	require.NoError(t, err)
	assert.Equal(t, 6, got.Second())
}

func TestDosTimeRejectsOutOfRangeFields(t *testing.T) {
	cases := []struct {
		name string
		dt   DosTime
	}{
		{"month 13", NewDosTime(0, 0, 0, 1, 13, 0)},
		{"month 0", NewDosTime(0, 0, 0, 1, 0, 0)},
		{"day 31 in february", NewDosTime(0, 0, 0, 31, 2, 44)},
		{"hour 24", NewDosTime(0, 0, 24, 1, 1, 0)},
		{"minute 60", NewDosTime(0, 60, 0, 1, 1, 0)},
		{"seconds/2 30", NewDosTime(30, 0, 0, 1, 1, 0)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.dt.ToWallClock()
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}
}

func TestDosTimeClampsPre1980(t *testing.T) {
	early := time.Date(1975, 5, 1, 0, 0, 0, 0, time.UTC)
	packed := FromWallClock(early)
	got, err := packed.ToWallClock()
	require.NoError(t, err)
	assert.Equal(t, 1980, got.Year())
}
