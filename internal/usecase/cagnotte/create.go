package cagnotte

import (
	"context"

	bookingdomain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	domain "github.com/BruksfildServices01/field-booking/internal/domain/cagnotte"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"

	"go.uber.org/zap"
)

type CreateCagnotteInput struct {
	OrganizerID uint
	SlotID      uint
	Title       string
}

type CreateCagnotte struct {
	deps bookinguc.Deps
}

func NewCreateCagnotte(deps bookinguc.Deps) *CreateCagnotte {
	return &CreateCagnotte{deps: deps}
}

func (uc *CreateCagnotte) Execute(
	ctx context.Context,
	in CreateCagnotteInput,
) (*models.Cagnotte, error) {

	d := uc.deps
	now := d.Clock()

	var c *models.Cagnotte
	err := d.Repo.Transaction(ctx, func(tx bookingdomain.Repository) error {
		// --------------------------------------------------
		// 1️⃣ Slot livre de reservas, holds e outra cagnotte
		// --------------------------------------------------
		slot, err := tx.LockSlot(ctx, in.SlotID)
		if err != nil {
			return bookinguc.NotFound(err, "slot_not_found")
		}
		field, err := tx.GetField(ctx, slot.FieldID)
		if err != nil {
			return bookinguc.NotFound(err, "field_not_found")
		}
		if !field.IsBookable() {
			return httperr.ErrBusiness("field_unavailable")
		}
		if err := bookingdomain.CanHold(slot, "", now); err != nil {
			return err
		}

		open, err := tx.HasOpenCagnotte(ctx, slot.ID)
		if err != nil {
			return err
		}
		if open {
			return httperr.ErrBusiness("cagnotte_exists")
		}

		busy, err := tx.HasActiveOverlap(ctx, slot.FieldID, slot.StartsAt, slot.EndsAt, 0)
		if err != nil {
			return err
		}
		if busy {
			return httperr.ErrBusiness("slot_unavailable")
		}

		// --------------------------------------------------
		// 2️⃣ Meta = preço público do slot
		// --------------------------------------------------
		net := bookingdomain.SlotNetPrice(slot, field)
		target := bookingdomain.PublicPrice(net, d.Policy.CommissionRate)

		c, err = domain.New(slot, in.OrganizerID, target, d.Policy.CagnotteHoldPercent, now, d.Policy.CagnotteTTL)
		if err != nil {
			return err
		}
		c.Title = in.Title
		c.NetAmount = net
		c.Currency = d.Policy.Currency

		return tx.CreateCagnotte(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	if d.Jobs != nil {
		if err := d.Jobs.ExpireCagnotteAt(ctx, c.ID, c.Deadline); err != nil {
			d.Log.Warn("schedule cagnotte expiry failed", zap.Uint("cagnotte_id", c.ID), zap.Error(err))
		}
	}
	d.Record(&in.OrganizerID, "cagnotte_created", "cagnotte", c.ID, map[string]any{
		"slot_id": c.SlotID,
		"target":  c.TargetAmount,
	})

	return c, nil
}
