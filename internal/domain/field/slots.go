// Package field gera a grade de slots dos terrenos e filtra o que está livre.
package field

import (
	"slices"
	"time"

	"github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/timeslot"
)

// MaxGenerationDays limita uma geração de slots.
const MaxGenerationDays = 62

const (
	minSlotMinutes = 30
	maxSlotMinutes = 240
)

// ValidateSchedule confere uma linha da grade semanal.
func ValidateSchedule(s models.FieldSchedule) error {
	if s.Weekday < 0 || s.Weekday > 6 {
		return httperr.ErrBusiness("invalid_request")
	}
	if s.SlotMinutes < minSlotMinutes || s.SlotMinutes > maxSlotMinutes {
		return httperr.ErrBusiness("invalid_request")
	}
	d, err := timeslot.Duration(s.OpenTime, s.CloseTime)
	if err != nil || d < s.SlotMinutes {
		return httperr.ErrBusiness("invalid_request")
	}
	return nil
}

// BuildSlots monta os slots das datas [from, to] (inclusive) no fuso loc.
// Dias sem grade ativa não geram nada.
func BuildSlots(
	fieldID uint,
	schedules []models.FieldSchedule,
	from, to time.Time,
	loc *time.Location,
) ([]models.FieldAvailability, error) {

	from = dateOf(from, loc)
	to = dateOf(to, loc)
	if to.Before(from) || to.Sub(from) > MaxGenerationDays*24*time.Hour {
		return nil, httperr.ErrBusiness("invalid_date_range")
	}

	byDay := map[int]models.FieldSchedule{}
	for _, s := range schedules {
		if s.Active {
			byDay[s.Weekday] = s
		}
	}

	var out []models.FieldAvailability
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		s, ok := byDay[int(d.Weekday())]
		if !ok {
			continue
		}

		ranges, err := timeslot.Split(s.OpenTime, s.CloseTime, s.SlotMinutes)
		if err != nil {
			return nil, httperr.ErrBusiness("invalid_request")
		}

		for _, r := range ranges {
			start, err := timeslot.Combine(d, r.Start, loc)
			if err != nil {
				return nil, err
			}
			out = append(out, models.FieldAvailability{
				FieldID:     fieldID,
				Date:        d,
				StartTime:   r.Start,
				EndTime:     r.End,
				StartsAt:    start,
				EndsAt:      start.Add(time.Duration(s.SlotMinutes) * time.Minute),
				IsAvailable: true,
			})
		}
	}
	return out, nil
}

// FreeSlots remove slots passados, indisponíveis, ocupados por reservas ativas
// ou segurados por outro usuário. viewerID 0 = anônimo.
func FreeSlots(
	slots []models.FieldAvailability,
	bookings []models.Booking,
	viewerID uint,
	now time.Time,
) []models.FieldAvailability {

	out := make([]models.FieldAvailability, 0, len(slots))
	for _, s := range slots {
		if !s.IsAvailable || !s.StartsAt.After(now) {
			continue
		}
		if s.OnHoldUntil != nil && s.OnHoldUntil.After(now) &&
			(s.HeldBy == nil || *s.HeldBy != viewerID || viewerID == 0) {
			continue
		}
		if occupied(s, bookings) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// WithoutSlots tira os slots cujos ids estão em skip (ex.: cagnotte aberta).
func WithoutSlots(slots []models.FieldAvailability, skip []uint) []models.FieldAvailability {
	if len(skip) == 0 {
		return slots
	}
	out := slots[:0]
	for _, s := range slots {
		if !slices.Contains(skip, s.ID) {
			out = append(out, s)
		}
	}
	return out
}

func occupied(s models.FieldAvailability, bookings []models.Booking) bool {
	for _, b := range bookings {
		if b.FieldID != s.FieldID || !booking.Status(b.Status).IsActive() {
			continue
		}
		if b.StartsAt.Before(s.EndsAt) && s.StartsAt.Before(b.EndsAt) {
			return true
		}
	}
	return false
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
