package cagnotte

import (
	"context"

	"github.com/BruksfildServices01/field-booking/internal/models"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

type GetCagnotte struct {
	deps bookinguc.Deps
}

func NewGetCagnotte(deps bookinguc.Deps) *GetCagnotte {
	return &GetCagnotte{deps: deps}
}

// Execute devolve a cagnotte com as contribuições pagas.
func (uc *GetCagnotte) Execute(ctx context.Context, id uint) (*models.Cagnotte, error) {
	c, err := uc.deps.Repo.GetCagnotte(ctx, id)
	if err != nil {
		return nil, bookinguc.NotFound(err, "cagnotte_not_found")
	}
	return c, nil
}
