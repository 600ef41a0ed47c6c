package cagnotte

import (
	"context"
	"time"

	bookingdomain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	domain "github.com/BruksfildServices01/field-booking/internal/domain/cagnotte"
	"github.com/BruksfildServices01/field-booking/internal/domain/payout"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/models"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

// Outcome é o que sobra para fazer depois do commit.
type Outcome struct {
	Messages  []events.Message
	RefundIDs []uint
	Payout    *models.Payout
}

// Settler aplica o resultado de pagamento de uma contribuição.
// Os métodos rodam dentro da transação de quem chama.
type Settler struct {
	deps bookinguc.Deps
}

func NewSettler(deps bookinguc.Deps) *Settler {
	return &Settler{deps: deps}
}

// ContributionPaid soma a contribuição e cruza os marcos da cagnotte.
// Dinheiro que não cabe mais (cagnotte fechada ou meta excedida) volta para a fila de reembolso.
func (s *Settler) ContributionPaid(
	ctx context.Context,
	tx bookingdomain.Repository,
	contributionID uint,
	transactionID string,
	now time.Time,
) (Outcome, error) {

	var out Outcome

	contrib, err := tx.LockContribution(ctx, contributionID)
	if err != nil {
		return out, bookinguc.NotFound(err, "contribution_not_found")
	}
	if contrib.Status == domain.ContributionPaid {
		return out, nil
	}

	c, err := tx.LockCagnotte(ctx, contrib.CagnotteID)
	if err != nil {
		return out, bookinguc.NotFound(err, "cagnotte_not_found")
	}

	contrib.Status = domain.ContributionPaid
	contrib.TransactionID = transactionID
	contrib.PaidAt = &now

	progress, applyErr := domain.ApplyPaid(c, contrib.Amount, now)
	if applyErr != nil {
		contrib.RefundStatus = domain.RefundPending
		out.RefundIDs = []uint{contrib.ID}
		return out, tx.UpdateContribution(ctx, contrib)
	}
	if err := tx.UpdateContribution(ctx, contrib); err != nil {
		return out, err
	}

	// --------------------------------------------------
	// 1️⃣ Limiar: segura o slot + reserva provisória
	// --------------------------------------------------
	if progress.ReachedThreshold {
		held, err := s.hold(ctx, tx, c, now)
		if err != nil {
			return out, err
		}
		if !held {
			// slot tomado por outra reserva: a cagnotte não tem mais objeto
			if err := domain.Close(c, domain.StatusCancelled, now); err != nil {
				return out, err
			}
			if out.RefundIDs, err = bookinguc.MarkContributionsForRefund(ctx, tx, c.ID); err != nil {
				return out, err
			}
			out.Messages = append(out.Messages, cagnotteMessage(events.RKCagnotteClosed, c))
			return out, tx.UpdateCagnotte(ctx, c)
		}
		out.Messages = append(out.Messages, cagnotteMessage(events.RKCagnotteHolding, c))
	}

	// --------------------------------------------------
	// 2️⃣ Meta: confirma a reserva + agenda o repasse
	// --------------------------------------------------
	if progress.Completed {
		b, err := tx.LockBooking(ctx, *c.BookingID)
		if err != nil {
			return out, err
		}
		if err := bookingdomain.MarkPaid(b, now); err != nil {
			return out, err
		}
		if err := bookinguc.ReleaseSlotHold(ctx, tx, b.SlotID, b.HoldToken); err != nil {
			return out, err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return out, err
		}

		po := payout.Schedule(b, s.deps.Policy.EscrowReleaseDelay)
		if err := tx.CreatePayout(ctx, po); err != nil {
			return out, err
		}
		out.Payout = po

		out.Messages = append(out.Messages,
			cagnotteMessage(events.RKCagnotteComplete, c),
			bookinguc.BookingMessage(events.RKBookingConfirmed, b),
		)
	}

	return out, tx.UpdateCagnotte(ctx, c)
}

// ContributionFailed só mexe em contribuições ainda pendentes.
func (s *Settler) ContributionFailed(
	ctx context.Context,
	tx bookingdomain.Repository,
	contributionID uint,
) error {
	contrib, err := tx.LockContribution(ctx, contributionID)
	if err != nil {
		return bookinguc.NotFound(err, "contribution_not_found")
	}
	if contrib.Status != domain.ContributionPending {
		return nil
	}
	contrib.Status = domain.ContributionFailed
	return tx.UpdateContribution(ctx, contrib)
}

// hold devolve false quando o slot já foi tomado.
func (s *Settler) hold(
	ctx context.Context,
	tx bookingdomain.Repository,
	c *models.Cagnotte,
	now time.Time,
) (bool, error) {

	slot, err := tx.LockSlot(ctx, c.SlotID)
	if err != nil {
		return false, bookinguc.NotFound(err, "slot_not_found")
	}
	token := domain.HoldToken(c)
	if err := bookingdomain.CanHold(slot, token, now); err != nil {
		return false, nil
	}
	busy, err := tx.HasActiveOverlap(ctx, slot.FieldID, slot.StartsAt, slot.EndsAt, 0)
	if err != nil {
		return false, err
	}
	if busy {
		return false, nil
	}

	field, err := tx.GetField(ctx, c.FieldID)
	if err != nil {
		return false, err
	}

	deadline := c.Deadline
	b := &models.Booking{
		UserID:        c.OrganizerID,
		FieldID:       c.FieldID,
		SlotID:        slot.ID,
		OwnerID:       field.OwnerID,
		BookingDate:   slot.Date,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		StartsAt:      slot.StartsAt,
		EndsAt:        slot.EndsAt,
		Status:        string(bookingdomain.StatusProvisional),
		PaymentStatus: string(bookingdomain.PaymentInitiated),
		PaymentMode:   string(bookingdomain.ModeFull),
		Currency:      c.Currency,
		CagnotteID:    &c.ID,
		HoldToken:     token,
		ExpiresAt:     &deadline,
	}
	applyCagnotteAmounts(b, c)

	if err := tx.CreateBooking(ctx, b); err != nil {
		return false, err
	}

	bookingdomain.Hold(slot, token, c.OrganizerID, deadline)
	if err := tx.UpdateSlot(ctx, slot); err != nil {
		return false, err
	}

	c.BookingID = &b.ID
	return true, nil
}

// applyCagnotteAmounts: tudo é pago online, a comissão é a diferença entre meta e net.
func applyCagnotteAmounts(b *models.Booking, c *models.Cagnotte) {
	b.NetAmount = c.NetAmount
	b.TotalAmount = c.TargetAmount
	b.CommissionAmount = c.TargetAmount - c.NetAmount
	b.AmountDueOnline = c.TargetAmount
	b.AmountDueOnSite = 0
	b.OwnerAmount = c.NetAmount
}

func cagnotteMessage(key string, c *models.Cagnotte) events.Message {
	return events.Message{Key: key, Payload: events.NewCagnotteEvent(c, nil)}
}
