package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type GetBooking struct {
	repo domain.Repository
}

func NewGetBooking(repo domain.Repository) *GetBooking {
	return &GetBooking{repo: repo}
}

// Execute devolve a reserva para o usuário que reservou ou para o dono do terreno.
func (uc *GetBooking) Execute(ctx context.Context, actorID, bookingID uint) (*models.Booking, error) {
	b, err := uc.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, NotFound(err, "booking_not_found")
	}
	if b.UserID != actorID && b.OwnerID != actorID {
		return nil, httperr.ErrBusiness("booking_not_found")
	}
	return b, nil
}

type ListBookings struct {
	repo domain.Repository
}

func NewListBookings(repo domain.Repository) *ListBookings {
	return &ListBookings{repo: repo}
}

func (uc *ListBookings) Execute(ctx context.Context, f domain.Filter) ([]models.Booking, int64, error) {
	if f.Status != "" {
		valid := false
		for _, s := range domain.AllStatuses() {
			if string(s) == f.Status {
				valid = true
				break
			}
		}
		if !valid {
			return nil, 0, httperr.ErrBusiness("invalid_status")
		}
	}
	return uc.repo.ListBookings(ctx, f)
}

type OwnerDashboard struct {
	repo domain.Repository
}

func NewOwnerDashboard(repo domain.Repository) *OwnerDashboard {
	return &OwnerDashboard{repo: repo}
}

// Execute agrega as reservas que começam em [from, to).
func (uc *OwnerDashboard) Execute(ctx context.Context, ownerID uint, from, to time.Time) (*domain.Stats, error) {
	if to.IsZero() || !to.After(from) {
		return nil, httperr.ErrBusiness("invalid_date_range")
	}
	return uc.repo.OwnerStats(ctx, ownerID, from, to)
}
