package booking

import (
	"time"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

// IsHeldByOther: hold vivo com outro token.
func IsHeldByOther(slot *models.FieldAvailability, token string, now time.Time) bool {
	return slot.OnHoldUntil != nil &&
		slot.OnHoldUntil.After(now) &&
		slot.HoldToken != token
}

// CanHold checa disponibilidade, hold de terceiros e horário.
// A sobreposição com reservas ativas é checada no repositório.
func CanHold(slot *models.FieldAvailability, token string, now time.Time) error {
	if !slot.IsAvailable {
		return httperr.ErrBusiness("slot_unavailable")
	}
	if !slot.StartsAt.After(now) {
		return httperr.ErrBusiness("slot_in_past")
	}
	if IsHeldByOther(slot, token, now) {
		return httperr.ErrBusiness("slot_on_hold")
	}
	return nil
}

func Hold(slot *models.FieldAvailability, token string, userID uint, until time.Time) {
	slot.OnHoldUntil = &until
	slot.HoldToken = token
	slot.HeldBy = &userID
}

// Release só solta o hold do próprio token.
func Release(slot *models.FieldAvailability, token string) bool {
	if slot.HoldToken == "" || slot.HoldToken != token {
		return false
	}
	slot.OnHoldUntil = nil
	slot.HoldToken = ""
	slot.HeldBy = nil
	return true
}
