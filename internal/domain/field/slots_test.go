package field

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/field-booking/internal/models"
)

var abidjan = time.UTC

func schedule(weekday int, open, close string, step int) models.FieldSchedule {
	return models.FieldSchedule{FieldID: 1, Weekday: weekday, OpenTime: open, CloseTime: close, SlotMinutes: step, Active: true}
}

func TestBuildSlotsFollowsWeeklyGrid(t *testing.T) {
	// 2026-06-01 é segunda-feira
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, abidjan)
	to := time.Date(2026, 6, 7, 0, 0, 0, 0, abidjan)

	slots, err := BuildSlots(1, []models.FieldSchedule{
		schedule(1, "18:00", "21:00", 60),
		schedule(6, "08:00", "10:00", 90),
		{FieldID: 1, Weekday: 3, OpenTime: "18:00", CloseTime: "22:00", SlotMinutes: 60, Active: false},
	}, from, to, abidjan)
	require.NoError(t, err)

	require.Len(t, slots, 4)
	assert.Equal(t, "18:00", slots[0].StartTime)
	assert.Equal(t, "19:00", slots[0].EndTime)
	assert.Equal(t, time.Date(2026, 6, 1, 18, 0, 0, 0, abidjan), slots[0].StartsAt)
	assert.Equal(t, time.Date(2026, 6, 1, 19, 0, 0, 0, abidjan), slots[0].EndsAt)

	// sábado: 08:00-09:30, a sobra é descartada
	last := slots[3]
	assert.Equal(t, time.Saturday, last.StartsAt.Weekday())
	assert.Equal(t, "08:00", last.StartTime)
	assert.Equal(t, 90*time.Minute, last.EndsAt.Sub(last.StartsAt))
	for _, s := range slots {
		assert.True(t, s.IsAvailable)
		assert.Equal(t, uint(1), s.FieldID)
	}
}

func TestBuildSlotsRejectsBadRange(t *testing.T) {
	from := time.Date(2026, 6, 10, 0, 0, 0, 0, abidjan)

	_, err := BuildSlots(1, nil, from, from.AddDate(0, 0, -1), abidjan)
	assert.EqualError(t, err, "invalid_date_range")

	_, err = BuildSlots(1, nil, from, from.AddDate(0, 0, MaxGenerationDays+1), abidjan)
	assert.EqualError(t, err, "invalid_date_range")
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule(schedule(0, "08:00", "22:00", 60)))
	assert.Error(t, ValidateSchedule(schedule(7, "08:00", "22:00", 60)))
	assert.Error(t, ValidateSchedule(schedule(1, "22:00", "08:00", 60)))
	assert.Error(t, ValidateSchedule(schedule(1, "08:00", "08:30", 60)))
	assert.Error(t, ValidateSchedule(schedule(1, "08:00", "22:00", 10)))
}

func TestFreeSlots(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, abidjan)
	at := func(h int) time.Time { return time.Date(2026, 6, 1, h, 0, 0, 0, abidjan) }
	slot := func(id uint, h int) models.FieldAvailability {
		return models.FieldAvailability{ID: id, FieldID: 1, StartsAt: at(h), EndsAt: at(h + 1), IsAvailable: true}
	}

	holdUntil := now.Add(10 * time.Minute)
	alice, bob := uint(7), uint(8)

	past := slot(1, 9)
	free := slot(2, 12)
	closed := slot(3, 13)
	closed.IsAvailable = false
	heldByAlice := slot(4, 14)
	heldByAlice.OnHoldUntil, heldByAlice.HeldBy = &holdUntil, &alice
	booked := slot(5, 15)
	expiredHold := slot(6, 16)
	old := now.Add(-time.Minute)
	expiredHold.OnHoldUntil, expiredHold.HeldBy = &old, &bob

	bookings := []models.Booking{
		{FieldID: 1, Status: "confirmed", StartsAt: at(15), EndsAt: at(16)},
		{FieldID: 1, Status: "cancelled", StartsAt: at(12), EndsAt: at(13)},
	}
	all := []models.FieldAvailability{past, free, closed, heldByAlice, booked, expiredHold}

	ids := func(in []models.FieldAvailability) []uint {
		out := []uint{}
		for _, s := range in {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t, []uint{2, 6}, ids(FreeSlots(all, bookings, 0, now)))
	assert.Equal(t, []uint{2, 6}, ids(FreeSlots(all, bookings, bob, now)))
	assert.Equal(t, []uint{2, 4, 6}, ids(FreeSlots(all, bookings, alice, now)))
}

func TestDistanceKm(t *testing.T) {
	// Plateau -> Cocody, ~7 km
	d := DistanceKm(5.3197, -4.0167, 5.3600, -3.9670)
	assert.InDelta(t, 7.1, d, 0.5)
	assert.Zero(t, DistanceKm(5.3, -4.0, 5.3, -4.0))

	minLat, maxLat, minLng, maxLng := BoundingBox(5.3197, -4.0167, 10)
	assert.Less(t, minLat, 5.3197)
	assert.Greater(t, maxLat, 5.3197)
	assert.Less(t, minLng, -4.0167)
	assert.Greater(t, maxLng, -4.0167)
	assert.InDelta(t, 0.09, maxLat-5.3197, 0.001)
}

func TestWithoutSlots(t *testing.T) {
	all := []models.FieldAvailability{{ID: 1}, {ID: 2}, {ID: 3}}

	assert.Len(t, WithoutSlots(all, nil), 3)

	left := WithoutSlots([]models.FieldAvailability{{ID: 1}, {ID: 2}, {ID: 3}}, []uint{2})
	require.Len(t, left, 2)
	assert.Equal(t, uint(1), left[0].ID)
	assert.Equal(t, uint(3), left[1].ID)
}
