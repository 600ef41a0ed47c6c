package field

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/field"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
)

const (
	defaultRadiusKm = 10
	maxRadiusKm     = 100
	defaultLimit    = 20
	maxLimit        = 50
)

type SearchInput struct {
	Filter domain.SearchFilter

	// Date opcional; quando vem, só terrenos com slot livre nesse dia.
	Date     string
	ViewerID uint
}

type FieldResult struct {
	Field      models.Field               `json:"field"`
	DistanceKm *float64                   `json:"distance_km,omitempty"`
	FreeSlots  []models.FieldAvailability `json:"free_slots,omitempty"`
}

type SearchFields struct {
	repo domain.Repository
	now  func() time.Time
}

func NewSearchFields(repo domain.Repository, now func() time.Time) *SearchFields {
	if now == nil {
		now = time.Now
	}
	return &SearchFields{repo: repo, now: now}
}

func (uc *SearchFields) Execute(ctx context.Context, in SearchInput) ([]FieldResult, error) {
	f := in.Filter

	// ---- 1️⃣ Normaliza filtro
	if (f.Lat == nil) != (f.Lng == nil) {
		return nil, httperr.ErrBusiness("invalid_request")
	}
	if f.Lat != nil {
		if *f.Lat < -90 || *f.Lat > 90 || *f.Lng < -180 || *f.Lng > 180 {
			return nil, httperr.ErrBusiness("invalid_request")
		}
		if f.RadiusKm <= 0 {
			f.RadiusKm = defaultRadiusKm
		}
		if f.RadiusKm > maxRadiusKm {
			f.RadiusKm = maxRadiusKm
		}
	}
	if f.MaxPrice < 0 {
		return nil, httperr.ErrBusiness("invalid_request")
	}
	if f.Limit <= 0 || f.Limit > maxLimit {
		f.Limit = defaultLimit
	}

	// ---- 2️⃣ Candidatos
	fields, err := uc.repo.SearchFields(ctx, f)
	if err != nil {
		return nil, err
	}

	results := make([]FieldResult, 0, len(fields))
	for _, fl := range fields {
		r := FieldResult{Field: fl}
		if f.Lat != nil {
			d := domain.DistanceKm(*f.Lat, *f.Lng, fl.Latitude, fl.Longitude)
			if d > f.RadiusKm {
				continue
			}
			r.DistanceKm = &d
		}
		results = append(results, r)
	}

	// ---- 3️⃣ Disponibilidade no dia
	if in.Date != "" {
		results, err = uc.withFreeSlots(ctx, results, in.Date, in.ViewerID)
		if err != nil {
			return nil, err
		}
	}

	if f.Lat != nil {
		sort.SliceStable(results, func(i, j int) bool {
			return *results[i].DistanceKm < *results[j].DistanceKm
		})
	}
	return results, nil
}

func (uc *SearchFields) withFreeSlots(
	ctx context.Context,
	results []FieldResult,
	date string,
	viewerID uint,
) ([]FieldResult, error) {

	out := results[:0]
	for _, r := range results {
		free, err := freeSlotsOn(ctx, uc.repo, &r.Field, date, viewerID, uc.now())
		if err != nil {
			return nil, err
		}
		if len(free) == 0 {
			continue
		}
		r.FreeSlots = free
		out = append(out, r)
	}
	return out, nil
}

type ListFieldSlots struct {
	repo domain.Repository
	now  func() time.Time
}

func NewListFieldSlots(repo domain.Repository, now func() time.Time) *ListFieldSlots {
	if now == nil {
		now = time.Now
	}
	return &ListFieldSlots{repo: repo, now: now}
}

// Execute devolve os slots livres do terreno na data (YYYY-MM-DD, fuso do terreno).
func (uc *ListFieldSlots) Execute(ctx context.Context, fieldID uint, date string, viewerID uint) ([]models.FieldAvailability, error) {
	f, err := uc.repo.GetField(ctx, fieldID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness("field_not_found")
		}
		return nil, err
	}
	if !f.IsBookable() {
		return nil, httperr.ErrBusiness("field_not_found")
	}
	return freeSlotsOn(ctx, uc.repo, f, date, viewerID, uc.now())
}

func freeSlotsOn(
	ctx context.Context,
	repo domain.Repository,
	f *models.Field,
	date string,
	viewerID uint,
	now time.Time,
) ([]models.FieldAvailability, error) {

	loc := timezone.Location(f.Timezone)
	day, err := timezone.ParseDate(date, loc)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date")
	}
	start, end := timezone.DayBounds(day, loc)

	ids := []uint{f.ID}
	slots, err := repo.ListSlots(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}
	bookings, err := repo.ListActiveBookings(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}
	free := domain.FreeSlots(slots, bookings, viewerID, now)
	if len(free) == 0 {
		return free, nil
	}

	// slot com cagnotte aberta está reservado para o grupo
	ids = make([]uint, 0, len(free))
	for _, s := range free {
		ids = append(ids, s.ID)
	}
	pooled, err := repo.OpenCagnotteSlots(ctx, ids)
	if err != nil {
		return nil, err
	}
	return domain.WithoutSlots(free, pooled), nil
}
