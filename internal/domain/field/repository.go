package field

import (
	"context"
	"time"

	"github.com/BruksfildServices01/field-booking/internal/models"
)

// SearchFilter da busca pública; zero = sem filtro.
type SearchFilter struct {
	City     string
	Sport    string
	MaxPrice int64

	Lat      *float64
	Lng      *float64
	RadiusKm float64

	Limit int
}

type Repository interface {
	GetField(ctx context.Context, id uint) (*models.Field, error)
	ListSchedules(ctx context.Context, fieldID uint) ([]models.FieldSchedule, error)
	// UpsertSlots ignora slots que já existem (field_id, starts_at) e devolve quantos foram criados.
	UpsertSlots(ctx context.Context, slots []models.FieldAvailability) (int64, error)

	// SearchFields: só terrenos ativos e aprovados.
	SearchFields(ctx context.Context, f SearchFilter) ([]models.Field, error)
	ListSlots(ctx context.Context, fieldIDs []uint, from, to time.Time) ([]models.FieldAvailability, error)
	ListActiveBookings(ctx context.Context, fieldIDs []uint, from, to time.Time) ([]models.Booking, error)
	// OpenCagnotteSlots devolve, entre slotIDs, os que têm cagnotte coletando ou segurando.
	OpenCagnotteSlots(ctx context.Context, slotIDs []uint) ([]uint, error)
}
