package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationFallsBackToDefault(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("Mars/Olympus"))
	assert.Equal(t, DefaultTimezone, Location("Mars/Olympus").String())
	assert.Equal(t, "Europe/Paris", Location("Europe/Paris").String())
}

func TestDayBounds(t *testing.T) {
	loc := Location("Europe/Paris")
	start, end := DayBounds(time.Date(2026, 3, 29, 15, 0, 0, 0, loc), loc)

	assert.Equal(t, time.Date(2026, 3, 29, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 30, 0, 0, 0, 0, loc), end)
	// passagem para o horário de verão: o dia tem 23h
	assert.Equal(t, 23*time.Hour, end.Sub(start))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-06-03", Location(DefaultTimezone))
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.June, d.Month())

	_, err = ParseDate("03/06/2026", time.UTC)
	assert.Error(t, err)
}
