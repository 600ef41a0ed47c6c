package handlers

import (
	"time"

	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
)

// resolve o fuso oficial do terreno
func locationFromField(f *models.Field) *time.Location {
	if f != nil {
		return timezone.Location(f.Timezone)
	}
	return timezone.Location("")
}

// parseRange lê from/to (YYYY-MM-DD); to é inclusivo e vira o início do dia seguinte.
func parseRange(loc *time.Location, fromStr, toStr string) (time.Time, time.Time, bool) {
	from, err := timezone.ParseDate(fromStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := timezone.ParseDate(toStr, loc)
	if err != nil || to.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to.AddDate(0, 0, 1), true
}
