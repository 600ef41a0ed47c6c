package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/cagnotte"
	"github.com/BruksfildServices01/field-booking/internal/domain/field"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

var _ field.Repository = (*BookingRepository)(nil)

func (r *BookingRepository) AddSchedule(s models.FieldSchedule) *models.FieldSchedule {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == 0 {
		s.ID = r.nextID()
	}
	r.st.schedules[s.ID] = s
	return &s
}

func (r *BookingRepository) ListSchedules(_ context.Context, fieldID uint) ([]models.FieldSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.FieldSchedule
	for _, s := range r.st.schedules {
		if s.FieldID == fieldID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (r *BookingRepository) UpsertSlots(_ context.Context, slots []models.FieldAvailability) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken := map[string]bool{}
	for _, s := range r.st.slots {
		taken[slotKey(s)] = true
	}

	var n int64
	for _, s := range slots {
		if taken[slotKey(s)] {
			continue
		}
		s.ID = r.nextID()
		r.st.slots[s.ID] = s
		taken[slotKey(s)] = true
		n++
	}
	return n, nil
}

func slotKey(s models.FieldAvailability) string {
	return fmt.Sprintf("%d|%d", s.FieldID, s.StartsAt.Unix())
}

func (r *BookingRepository) SearchFields(_ context.Context, f field.SearchFilter) ([]models.Field, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Field
	for _, fl := range r.st.fields {
		switch {
		case !fl.IsBookable(),
			f.City != "" && !strings.EqualFold(fl.City, strings.TrimSpace(f.City)),
			f.Sport != "" && !strings.EqualFold(fl.Sport, strings.TrimSpace(f.Sport)),
			f.MaxPrice > 0 && fl.PublicPrice > f.MaxPrice:
			continue
		}
		if f.Lat != nil && f.Lng != nil {
			minLat, maxLat, minLng, maxLng := field.BoundingBox(*f.Lat, *f.Lng, f.RadiusKm)
			if fl.Latitude < minLat || fl.Latitude > maxLat || fl.Longitude < minLng || fl.Longitude > maxLng {
				continue
			}
		}
		out = append(out, fl)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublicPrice != out[j].PublicPrice {
			return out[i].PublicPrice < out[j].PublicPrice
		}
		return out[i].ID < out[j].ID
	})
	return limitTo(out, f.Limit), nil
}

func (r *BookingRepository) ListSlots(_ context.Context, fieldIDs []uint, from, to time.Time) ([]models.FieldAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.FieldAvailability
	for _, s := range r.st.slots {
		if containsID(fieldIDs, s.FieldID) && !s.StartsAt.Before(from) && s.StartsAt.Before(to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *BookingRepository) ListActiveBookings(_ context.Context, fieldIDs []uint, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedBookings(func(b models.Booking) bool {
		return containsID(fieldIDs, b.FieldID) &&
			booking.Status(b.Status).IsActive() &&
			b.StartsAt.Before(to) && b.EndsAt.After(from)
	}), nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (r *BookingRepository) OpenCagnotteSlots(_ context.Context, slotIDs []uint) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uint
	for _, c := range r.st.cagnottes {
		if cagnotte.Status(c.Status).IsOpen() && slices.Contains(slotIDs, c.SlotID) && !slices.Contains(out, c.SlotID) {
			out = append(out, c.SlotID)
		}
	}
	return out, nil
}
