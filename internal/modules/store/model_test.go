package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	// One degree of latitude along a meridian.
	d := Haversine(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 1)

	// Zero distance.
	assert.InDelta(t, 0, Haversine(40.7128, -74.0060, 40.7128, -74.0060), 0.001)

	// Central Park to Times Square, roughly 3.9 km.
	d = Haversine(40.7829, -73.9654, 40.7580, -73.9855)
	assert.InDelta(t, 3250, d, 150)

	// Symmetry.
	assert.InDelta(t,
		Haversine(51.5074, -0.1278, 48.8566, 2.3522),
		Haversine(48.8566, 2.3522, 51.5074, -0.1278), 0.001)
}

func TestIsOpenAt(t *testing.T) {
	s := &Store{Hours: map[string]DayHours{
		"monday":  {Open: "09:00", Close: "21:00"},
		"tuesday": {Closed: true},
	}}

	monday := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Monday, monday.Weekday())

	assert.True(t, s.IsOpenAt(monday))
	assert.False(t, s.IsOpenAt(monday.Add(-2*time.Hour)))               // 08:00
	assert.True(t, s.IsOpenAt(time.Date(2026, 8, 31, 20, 59, 0, 0, time.UTC)))
	assert.False(t, s.IsOpenAt(time.Date(2026, 8, 31, 21, 0, 0, 0, time.UTC)))

	tuesday := monday.AddDate(0, 0, 1)
	assert.False(t, s.IsOpenAt(tuesday)) // marked closed

	wednesday := monday.AddDate(0, 0, 2)
	assert.False(t, s.IsOpenAt(wednesday)) // no hours recorded
}
