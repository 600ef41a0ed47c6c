package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/promo"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
)

// ResolvePromo busca o código e valida para o slot e o usuário; devolve o desconto sobre o net.
func ResolvePromo(
	ctx context.Context,
	repo domain.Repository,
	code string,
	userID uint,
	field *models.Field,
	slot *models.FieldAvailability,
	net int64,
	now time.Time,
) (*models.PromoCode, int64, error) {

	pc, err := repo.GetPromoByCode(ctx, promo.NormalizeCode(code))
	if err != nil {
		return nil, 0, NotFound(err, "promo_not_found")
	}

	used, err := repo.CountPromoRedemptions(ctx, pc.ID, userID)
	if err != nil {
		return nil, 0, err
	}

	target := promo.Target{
		OwnerID:         field.OwnerID,
		FieldID:         field.ID,
		StartsAt:        slot.StartsAt.In(timezone.Location(field.Timezone)),
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		Amount:          net,
		UserRedemptions: used,
	}
	if err := promo.Validate(pc, target, now); err != nil {
		return nil, 0, err
	}

	return pc, promo.Discount(pc, net), nil
}
