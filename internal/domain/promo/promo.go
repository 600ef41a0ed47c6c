// Package promo valida códigos promocionais e calcula descontos.
package promo

import (
	"slices"
	"strings"
	"time"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/timeslot"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Target descreve o slot e o usuário a que o código seria aplicado.
type Target struct {
	OwnerID   uint
	FieldID   uint
	StartsAt  time.Time // no fuso do terreno
	StartTime string
	EndTime   string
	Amount    int64 // preço net do slot

	UserRedemptions int64
}

// ValidateDefinition é usado no CRUD do dono.
func ValidateDefinition(pc *models.PromoCode) error {
	if NormalizeCode(pc.Code) == "" || len(pc.Code) > 40 {
		return httperr.ErrBusiness("invalid_request")
	}
	switch DiscountType(pc.DiscountType) {
	case DiscountPercent:
		if pc.DiscountValue <= 0 || pc.DiscountValue > 100 {
			return httperr.ErrBusiness("invalid_request")
		}
	case DiscountFixed:
		if pc.DiscountValue <= 0 {
			return httperr.ErrBusiness("invalid_request")
		}
	default:
		return httperr.ErrBusiness("invalid_request")
	}
	if pc.MaxUses < 0 || pc.MaxUsesPerUser < 0 || pc.MinAmount < 0 || pc.MaxDiscount < 0 {
		return httperr.ErrBusiness("invalid_request")
	}
	if (pc.StartTime == "") != (pc.EndTime == "") {
		return httperr.ErrBusiness("invalid_request")
	}
	if pc.StartTime != "" {
		if _, err := timeslot.Duration(pc.StartTime, pc.EndTime); err != nil {
			return httperr.ErrBusiness("invalid_request")
		}
	}
	for _, d := range pc.Weekdays {
		if d < 0 || d > 6 {
			return httperr.ErrBusiness("invalid_request")
		}
	}
	if pc.ValidFrom != nil && pc.ValidUntil != nil && !pc.ValidUntil.After(*pc.ValidFrom) {
		return httperr.ErrBusiness("invalid_request")
	}
	return nil
}

// Validate aplica todas as regras de uso de um código.
func Validate(pc *models.PromoCode, t Target, now time.Time) error {
	if !pc.Active {
		return httperr.ErrBusiness("promo_inactive")
	}
	if pc.ValidFrom != nil && now.Before(*pc.ValidFrom) {
		return httperr.ErrBusiness("promo_not_started")
	}
	if pc.ValidUntil != nil && !now.Before(*pc.ValidUntil) {
		return httperr.ErrBusiness("promo_expired")
	}

	if pc.OwnerID != t.OwnerID || !appliesToField(pc, t.FieldID) {
		return httperr.ErrBusiness("promo_not_applicable")
	}

	if len(pc.Weekdays) > 0 && !slices.Contains(pc.Weekdays, int(t.StartsAt.Weekday())) {
		return httperr.ErrBusiness("promo_wrong_day")
	}

	if pc.StartTime != "" && pc.EndTime != "" {
		fits, err := timeslot.Contains(
			timeslot.Range{Start: pc.StartTime, End: pc.EndTime},
			timeslot.Range{Start: t.StartTime, End: t.EndTime},
		)
		if err != nil || !fits {
			return httperr.ErrBusiness("promo_wrong_time")
		}
	}

	if pc.MinAmount > 0 && t.Amount < pc.MinAmount {
		return httperr.ErrBusiness("promo_min_amount")
	}

	if pc.MaxUses > 0 && pc.UsedCount >= pc.MaxUses {
		return httperr.ErrBusiness("promo_exhausted")
	}
	if pc.MaxUsesPerUser > 0 && t.UserRedemptions >= int64(pc.MaxUsesPerUser) {
		return httperr.ErrBusiness("promo_user_limit")
	}
	return nil
}

// Discount nunca passa do valor net.
func Discount(pc *models.PromoCode, amount int64) int64 {
	var d int64
	switch DiscountType(pc.DiscountType) {
	case DiscountPercent:
		d = amount * pc.DiscountValue / 100
		if pc.MaxDiscount > 0 && d > pc.MaxDiscount {
			d = pc.MaxDiscount
		}
	case DiscountFixed:
		d = pc.DiscountValue
	}
	if d > amount {
		d = amount
	}
	if d < 0 {
		d = 0
	}
	return d
}

func appliesToField(pc *models.PromoCode, fieldID uint) bool {
	if len(pc.FieldIDs) == 0 {
		return true
	}
	return slices.Contains(pc.FieldIDs, fieldID)
}
