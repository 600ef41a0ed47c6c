package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/field-booking/internal/events"
)

// Directory resolve o telefone de um usuário.
type Directory interface {
	PhoneOf(ctx context.Context, userID uint) (string, error)
}

type Handler struct {
	sms SMSSender
	dir Directory
	loc *time.Location
	log *zap.Logger
}

func NewHandler(sms SMSSender, dir Directory, loc *time.Location, log *zap.Logger) *Handler {
	return &Handler{sms: sms, dir: dir, loc: loc, log: log}
}

func (h *Handler) when(t time.Time) string {
	return t.In(h.loc).Format("02/01 à 15h04")
}

// Handle é o events.HandlerFunc do worker.
func (h *Handler) Handle(ctx context.Context, key string, body []byte) error {
	switch key {
	case events.RKBookingCreated, events.RKBookingApproved, events.RKBookingConfirmed,
		events.RKBookingCancelled, events.RKBookingExpired, events.RKBookingRefunded:
		ev, err := events.Unmarshal[events.BookingEvent](body)
		if err != nil {
			return err
		}
		return h.booking(ctx, key, ev)

	case events.RKPaymentFailed:
		ev, err := events.Unmarshal[events.PaymentEvent](body)
		if err != nil {
			return err
		}
		return h.notify(ctx, ev.PayerID, fmt.Sprintf(
			"Votre paiement de %d FCFA a échoué. Vous pouvez réessayer depuis l'application.", ev.Amount))

	case events.RKCagnotteHolding, events.RKCagnotteComplete, events.RKCagnotteClosed:
		ev, err := events.Unmarshal[events.CagnotteEvent](body)
		if err != nil {
			return err
		}
		return h.cagnotte(ctx, key, ev)

	case events.RKPayoutPaid:
		ev, err := events.Unmarshal[events.PayoutEvent](body)
		if err != nil {
			return err
		}
		return h.notify(ctx, ev.OwnerID, fmt.Sprintf(
			"Versement de %d FCFA effectué pour la réservation #%d.", ev.Amount, ev.BookingID))

	default:
		h.log.Debug("skip unknown event", zap.String("key", key))
	}
	return nil
}

func (h *Handler) booking(ctx context.Context, key string, ev events.BookingEvent) error {
	when := h.when(ev.StartsAt)

	switch key {
	case events.RKBookingCreated:
		return h.notify(ctx, ev.OwnerID, fmt.Sprintf("Nouvelle réservation #%d pour le %s.", ev.BookingID, when))
	case events.RKBookingApproved:
		return h.notify(ctx, ev.UserID, fmt.Sprintf(
			"Votre réservation #%d du %s est acceptée. Payez %d FCFA pour la confirmer.", ev.BookingID, when, ev.Amount))
	case events.RKBookingConfirmed:
		if err := h.notify(ctx, ev.UserID, fmt.Sprintf("Réservation #%d confirmée pour le %s. Bon match !", ev.BookingID, when)); err != nil {
			return err
		}
		return h.notify(ctx, ev.OwnerID, fmt.Sprintf("Réservation #%d payée pour le %s.", ev.BookingID, when))
	case events.RKBookingCancelled:
		if err := h.notify(ctx, ev.UserID, fmt.Sprintf("Réservation #%d du %s annulée.", ev.BookingID, when)); err != nil {
			return err
		}
		return h.notify(ctx, ev.OwnerID, fmt.Sprintf("Réservation #%d du %s annulée.", ev.BookingID, when))
	case events.RKBookingExpired:
		return h.notify(ctx, ev.UserID, fmt.Sprintf("Votre réservation #%d du %s a expiré.", ev.BookingID, when))
	case events.RKBookingRefunded:
		return h.notify(ctx, ev.UserID, fmt.Sprintf("Réservation #%d annulée, vous serez remboursé.", ev.BookingID))
	}
	return nil
}

func (h *Handler) cagnotte(ctx context.Context, key string, ev events.CagnotteEvent) error {
	var text string
	switch key {
	case events.RKCagnotteHolding:
		text = fmt.Sprintf("Cagnotte #%d : le créneau est bloqué (%d/%d FCFA). Complétez avant la date limite.", ev.CagnotteID, ev.Collected, ev.Target)
	case events.RKCagnotteComplete:
		text = fmt.Sprintf("Cagnotte #%d complète, la réservation est confirmée !", ev.CagnotteID)
	default:
		text = fmt.Sprintf("Cagnotte #%d clôturée sans être complète, vous serez remboursé.", ev.CagnotteID)
	}

	recipients := append([]uint{ev.OrganizerID}, ev.ContributorIDs...)
	seen := map[uint]bool{}
	for _, id := range recipients {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := h.notify(ctx, id, text); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) notify(ctx context.Context, userID uint, text string) error {
	to, err := h.dir.PhoneOf(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup phone of %d: %w", userID, err)
	}
	if to == "" {
		h.log.Debug("user without phone, sms skipped", zap.Uint("user_id", userID))
		return nil
	}
	return h.sms.Send(ctx, to, text)
}
