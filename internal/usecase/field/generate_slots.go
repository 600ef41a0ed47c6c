package field

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/field"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
)

type GenerateSlots struct {
	repo domain.Repository
}

func NewGenerateSlots(repo domain.Repository) *GenerateSlots {
	return &GenerateSlots{repo: repo}
}

// Execute materializa a grade semanal em slots de [from, to].
// Rodar de novo no mesmo período não duplica nada.
func (uc *GenerateSlots) Execute(
	ctx context.Context,
	ownerID uint,
	fieldID uint,
	from time.Time,
	to time.Time,
) (int64, error) {

	// ---- 1️⃣ Terreno do dono
	f, err := uc.repo.GetField(ctx, fieldID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, httperr.ErrBusiness("field_not_found")
		}
		return 0, err
	}
	if f.OwnerID != ownerID {
		return 0, httperr.ErrBusiness("field_not_found")
	}

	// ---- 2️⃣ Grade
	schedules, err := uc.repo.ListSchedules(ctx, fieldID)
	if err != nil {
		return 0, err
	}
	if len(schedules) == 0 {
		return 0, httperr.ErrBusiness("no_schedule")
	}

	// ---- 3️⃣ Slots
	slots, err := domain.BuildSlots(fieldID, schedules, from, to, timezone.Location(f.Timezone))
	if err != nil {
		return 0, err
	}
	if len(slots) == 0 {
		return 0, nil
	}

	return uc.repo.UpsertSlots(ctx, slots)
}
