// Package cagnotte contém as regras da vaquinha de um slot.
package cagnotte

import (
	"strconv"
	"time"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type Status string

const (
	StatusCollecting Status = "collecting"
	StatusHolding    Status = "holding"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
	StatusCancelled  Status = "cancelled"
)

const (
	ContributionPending = "pending"
	ContributionPaid    = "paid"
	ContributionFailed  = "failed"
)

const (
	RefundNone    = "none"
	RefundPending = "pending"
	RefundDone    = "refunded"
	RefundFailed  = "failed"
)

// LeadTime: a cagnotte fecha no máximo uma hora antes do jogo.
const LeadTime = time.Hour

func (s Status) IsOpen() bool {
	return s == StatusCollecting || s == StatusHolding
}

// Deadline = min(now + ttl, início do slot − 1h).
func Deadline(now, slotStart time.Time, ttl time.Duration) time.Time {
	d := now.Add(ttl)
	latest := slotStart.Add(-LeadTime)
	if latest.Before(d) {
		return latest
	}
	return d
}

// Threshold: valor que, uma vez pago, reserva o slot.
func Threshold(c *models.Cagnotte) int64 {
	return (c.TargetAmount*int64(c.HoldPercent) + 99) / 100
}

func Remaining(c *models.Cagnotte) int64 {
	return c.TargetAmount - c.CollectedAmount
}

// New valida e monta a cagnotte.
func New(slot *models.FieldAvailability, organizerID uint, target int64, holdPercent int, now time.Time, ttl time.Duration) (*models.Cagnotte, error) {
	if target <= 0 {
		return nil, httperr.ErrBusiness("invalid_price")
	}
	if holdPercent <= 0 || holdPercent > 100 {
		holdPercent = 100
	}

	deadline := Deadline(now, slot.StartsAt, ttl)
	if !deadline.After(now) {
		return nil, httperr.ErrBusiness("too_late")
	}

	return &models.Cagnotte{
		SlotID:       slot.ID,
		FieldID:      slot.FieldID,
		OrganizerID:  organizerID,
		TargetAmount: target,
		HoldPercent:  holdPercent,
		Status:       string(StatusCollecting),
		Deadline:     deadline,
	}, nil
}

// CanContribute: committed é a soma das contribuições pagas + pendentes ainda válidas.
func CanContribute(c *models.Cagnotte, amount, committed int64, now time.Time) error {
	if !Status(c.Status).IsOpen() || !now.Before(c.Deadline) {
		return httperr.ErrBusiness("cagnotte_closed")
	}
	if amount <= 0 {
		return httperr.ErrBusiness("invalid_amount")
	}
	if amount > c.TargetAmount-committed {
		return httperr.ErrBusiness("exceeds_target")
	}
	return nil
}

type Progress struct {
	ReachedThreshold bool
	Completed        bool
}

// ApplyPaid soma uma contribuição confirmada e diz que marcos foram cruzados agora.
func ApplyPaid(c *models.Cagnotte, amount int64, now time.Time) (Progress, error) {
	var p Progress
	if !Status(c.Status).IsOpen() {
		return p, httperr.ErrBusiness("cagnotte_closed")
	}
	if amount <= 0 || c.CollectedAmount+amount > c.TargetAmount {
		return p, httperr.ErrBusiness("exceeds_target")
	}

	c.CollectedAmount += amount

	if Status(c.Status) == StatusCollecting && c.CollectedAmount >= Threshold(c) {
		c.Status = string(StatusHolding)
		p.ReachedThreshold = true
	}
	if c.CollectedAmount == c.TargetAmount {
		c.Status = string(StatusCompleted)
		c.CompletedAt = &now
		p.Completed = true
	}
	return p, nil
}

// Close encerra (expired ou cancelled) uma cagnotte ainda aberta.
func Close(c *models.Cagnotte, to Status, now time.Time) error {
	if to != StatusExpired && to != StatusCancelled {
		return httperr.ErrBusiness("invalid_state")
	}
	if !Status(c.Status).IsOpen() {
		return httperr.ErrBusiness("invalid_state")
	}
	if to == StatusExpired && now.Before(c.Deadline) {
		return httperr.ErrBusiness("invalid_state")
	}
	c.Status = string(to)
	c.ClosedAt = &now
	return nil
}

// HoldToken identifica o hold do slot feito pela cagnotte.
func HoldToken(c *models.Cagnotte) string {
	return "cagnotte-" + strconv.FormatUint(uint64(c.ID), 10)
}
