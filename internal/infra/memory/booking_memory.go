// Package memory implementa os repositórios em memória (testes e execução local sem banco).
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/cagnotte"
	"github.com/BruksfildServices01/field-booking/internal/domain/payout"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type state struct {
	seq           uint
	users         map[uint]models.User
	fields        map[uint]models.Field
	slots         map[uint]models.FieldAvailability
	bookings      map[uint]models.Booking
	payments      map[uint]models.Payment
	webhooks      map[string]models.WebhookEvent
	promos        map[uint]models.PromoCode
	redemptions   map[uint]models.PromoRedemption
	cagnottes     map[uint]models.Cagnotte
	contributions map[uint]models.CagnotteContribution
	payouts       map[uint]models.Payout
	schedules     map[uint]models.FieldSchedule
}

func (s *state) clone() *state {
	return &state{
		seq:           s.seq,
		users:         maps.Clone(s.users),
		fields:        maps.Clone(s.fields),
		slots:         maps.Clone(s.slots),
		bookings:      maps.Clone(s.bookings),
		payments:      maps.Clone(s.payments),
		webhooks:      maps.Clone(s.webhooks),
		promos:        maps.Clone(s.promos),
		redemptions:   maps.Clone(s.redemptions),
		cagnottes:     maps.Clone(s.cagnottes),
		contributions: maps.Clone(s.contributions),
		payouts:       maps.Clone(s.payouts),
		schedules:     maps.Clone(s.schedules),
	}
}

// BookingRepository guarda cópias dos modelos; Transaction desfaz tudo em caso de erro.
type BookingRepository struct {
	mu  sync.Mutex
	st  *state
	Now func() time.Time
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		st: &state{
			users:         map[uint]models.User{},
			fields:        map[uint]models.Field{},
			slots:         map[uint]models.FieldAvailability{},
			bookings:      map[uint]models.Booking{},
			payments:      map[uint]models.Payment{},
			webhooks:      map[string]models.WebhookEvent{},
			promos:        map[uint]models.PromoCode{},
			redemptions:   map[uint]models.PromoRedemption{},
			cagnottes:     map[uint]models.Cagnotte{},
			contributions: map[uint]models.CagnotteContribution{},
			payouts:       map[uint]models.Payout{},
			schedules:     map[uint]models.FieldSchedule{},
		},
		Now: time.Now,
	}
}

func (r *BookingRepository) nextID() uint {
	r.st.seq++
	return r.st.seq
}

func (r *BookingRepository) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	r.mu.Lock()
	snap := r.st.clone()
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.st = snap
		r.mu.Unlock()
		return err
	}
	return nil
}

// -------- seeds --------

func (r *BookingRepository) AddUser(u models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.nextID()
	}
	r.st.users[u.ID] = u
	return &u
}

func (r *BookingRepository) AddField(f models.Field) *models.Field {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == 0 {
		f.ID = r.nextID()
	}
	r.st.fields[f.ID] = f
	return &f
}

func (r *BookingRepository) AddSlot(s models.FieldAvailability) *models.FieldAvailability {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == 0 {
		s.ID = r.nextID()
	}
	r.st.slots[s.ID] = s
	return &s
}

func (r *BookingRepository) AddPromo(p models.PromoCode) *models.PromoCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID()
	}
	r.st.promos[p.ID] = p
	return &p
}

// -------- User / Field --------

func (r *BookingRepository) GetUser(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *BookingRepository) GetField(_ context.Context, id uint) (*models.Field, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.st.fields[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &f, nil
}

// -------- Slot --------

func (r *BookingRepository) GetSlot(_ context.Context, id uint) (*models.FieldAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.st.slots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *BookingRepository) LockSlot(ctx context.Context, id uint) (*models.FieldAvailability, error) {
	return r.GetSlot(ctx, id)
}

func (r *BookingRepository) UpdateSlot(_ context.Context, s *models.FieldAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.slots[s.ID] = *s
	return nil
}

func (r *BookingRepository) HasActiveOverlap(_ context.Context, fieldID uint, start, end time.Time, exclude uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.st.bookings {
		if b.FieldID != fieldID || b.ID == exclude || !domain.Status(b.Status).IsActive() {
			continue
		}
		if b.StartsAt.Before(end) && b.EndsAt.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) ReleaseExpiredHolds(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.st.slots {
		if s.OnHoldUntil != nil && !s.OnHoldUntil.After(now) {
			s.OnHoldUntil, s.HoldToken, s.HeldBy = nil, "", nil
			r.st.slots[id] = s
			n++
		}
	}
	return n, nil
}

// -------- Booking --------

func (r *BookingRepository) CreateBooking(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = r.nextID()
	b.CreatedAt = r.Now()
	r.st.bookings[b.ID] = *b
	return nil
}

func (r *BookingRepository) GetBooking(_ context.Context, id uint) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.st.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (r *BookingRepository) LockBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return r.GetBooking(ctx, id)
}

func (r *BookingRepository) UpdateBooking(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.bookings[b.ID] = *b
	return nil
}

func (r *BookingRepository) sortedBookings(keep func(models.Booking) bool) []models.Booking {
	var out []models.Booking
	for _, b := range r.st.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func limitTo[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

func (r *BookingRepository) ListBookingsToExpire(_ context.Context, now time.Time, limit int) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sortedBookings(func(b models.Booking) bool {
		st := domain.Status(b.Status)
		return (st == domain.StatusPending || st == domain.StatusApproved) &&
			b.ExpiresAt != nil && !b.ExpiresAt.After(now)
	})
	return limitTo(out, limit), nil
}

func (r *BookingRepository) ListBookingsToComplete(_ context.Context, now time.Time, limit int) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sortedBookings(func(b models.Booking) bool {
		return domain.Status(b.Status).IsPaid() && !b.EndsAt.After(now)
	})
	return limitTo(out, limit), nil
}

func (r *BookingRepository) ListBookings(_ context.Context, f domain.Filter) ([]models.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sortedBookings(func(b models.Booking) bool {
		switch {
		case f.UserID != 0 && b.UserID != f.UserID,
			f.OwnerID != 0 && b.OwnerID != f.OwnerID,
			f.FieldID != 0 && b.FieldID != f.FieldID,
			f.Status != "" && b.Status != f.Status,
			f.From != nil && b.StartsAt.Before(*f.From),
			f.To != nil && !b.StartsAt.Before(*f.To):
			return false
		}
		return true
	})
	return out, int64(len(out)), nil
}

func (r *BookingRepository) OwnerStats(_ context.Context, ownerID uint, from, to time.Time) (*domain.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := &domain.Stats{ByStatus: map[string]int64{}}
	now := r.Now()
	for _, b := range r.st.bookings {
		if b.OwnerID != ownerID {
			continue
		}
		s := domain.Status(b.Status)
		if s.IsActive() && b.StartsAt.After(now) {
			st.Upcoming++
		}
		if b.StartsAt.Before(from) || !b.StartsAt.Before(to) {
			continue
		}
		st.ByStatus[b.Status]++
		if s.IsPaid() || s == domain.StatusCompleted {
			st.GrossAmount += b.TotalAmount - b.DiscountAmount
			st.OwnerAmount += b.OwnerAmount
			st.CommissionTotal += b.CommissionAmount
		}
	}
	for _, p := range r.st.payouts {
		if p.OwnerID != ownerID {
			continue
		}
		switch payout.Status(p.Status) {
		case payout.StatusPaid:
			st.PaidPayouts += p.Amount
		case payout.StatusScheduled, payout.StatusProcessing, payout.StatusFailed:
			st.PendingPayouts += p.Amount
		}
	}
	return st, nil
}

// -------- Payment --------

func (r *BookingRepository) CreatePayment(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.st.payments {
		if other.Reference == p.Reference {
			return gorm.ErrDuplicatedKey
		}
	}
	p.ID = r.nextID()
	p.CreatedAt = r.Now()
	r.st.payments[p.ID] = *p
	return nil
}

func (r *BookingRepository) GetPaymentByReference(_ context.Context, ref string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.st.payments {
		if p.Reference == ref {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *BookingRepository) LockPaymentByReference(ctx context.Context, ref string) (*models.Payment, error) {
	return r.GetPaymentByReference(ctx, ref)
}

func (r *BookingRepository) GetPaidPaymentForBooking(_ context.Context, bookingID uint) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.st.payments {
		if p.BookingID != nil && *p.BookingID == bookingID && p.Status == models.PaymentStatusPaid {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *BookingRepository) UpdatePayment(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.payments[p.ID] = *p
	return nil
}

func (r *BookingRepository) RecordWebhookEvent(_ context.Context, ev *models.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ev.Provider + "|" + ev.EventID
	if _, ok := r.st.webhooks[key]; ok {
		return false, nil
	}
	ev.ID = r.nextID()
	r.st.webhooks[key] = *ev
	return true, nil
}

// Payments devolve os pagamentos (inspeção em testes).
func (r *BookingRepository) Payments() []models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Collect(maps.Values(r.st.payments))
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// -------- Promo --------

func (r *BookingRepository) GetPromoByCode(_ context.Context, code string) (*models.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.st.promos {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *BookingRepository) CountPromoRedemptions(_ context.Context, promoID, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, red := range r.st.redemptions {
		if red.PromoCodeID == promoID && red.UserID == userID && !red.Released {
			n++
		}
	}
	return n, nil
}

func (r *BookingRepository) ReservePromoUse(_ context.Context, promoID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.st.promos[promoID]
	if !ok || !p.Active || (p.MaxUses > 0 && p.UsedCount >= p.MaxUses) {
		return false, nil
	}
	p.UsedCount++
	r.st.promos[promoID] = p
	return true, nil
}

func (r *BookingRepository) CreatePromoRedemption(_ context.Context, red *models.PromoRedemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	red.ID = r.nextID()
	r.st.redemptions[red.ID] = *red
	return nil
}

func (r *BookingRepository) ReleasePromoRedemption(_ context.Context, bookingID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, red := range r.st.redemptions {
		if red.BookingID != bookingID || red.Released {
			continue
		}
		red.Released = true
		r.st.redemptions[id] = red
		if p, ok := r.st.promos[red.PromoCodeID]; ok && p.UsedCount > 0 {
			p.UsedCount--
			r.st.promos[p.ID] = p
		}
	}
	return nil
}

// Promo devolve o estado atual do código.
func (r *BookingRepository) Promo(id uint) models.PromoCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.promos[id]
}

// -------- Cagnotte --------

func (r *BookingRepository) CreateCagnotte(_ context.Context, c *models.Cagnotte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID()
	r.st.cagnottes[c.ID] = *c
	return nil
}

func (r *BookingRepository) GetCagnotte(_ context.Context, id uint) (*models.Cagnotte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.st.cagnottes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *BookingRepository) LockCagnotte(ctx context.Context, id uint) (*models.Cagnotte, error) {
	return r.GetCagnotte(ctx, id)
}

func (r *BookingRepository) UpdateCagnotte(_ context.Context, c *models.Cagnotte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.cagnottes[c.ID] = *c
	return nil
}

func (r *BookingRepository) HasOpenCagnotte(_ context.Context, slotID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.st.cagnottes {
		if c.SlotID == slotID && cagnotte.Status(c.Status).IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) ListCagnottesToExpire(_ context.Context, now time.Time, limit int) ([]models.Cagnotte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Cagnotte
	for _, c := range r.st.cagnottes {
		if cagnotte.Status(c.Status).IsOpen() && !c.Deadline.After(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return limitTo(out, limit), nil
}

func (r *BookingRepository) CreateContribution(_ context.Context, c *models.CagnotteContribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID()
	c.CreatedAt = r.Now()
	c.UpdatedAt = c.CreatedAt
	r.st.contributions[c.ID] = *c
	return nil
}

func (r *BookingRepository) LockContribution(_ context.Context, id uint) (*models.CagnotteContribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.st.contributions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *BookingRepository) UpdateContribution(_ context.Context, c *models.CagnotteContribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.UpdatedAt = r.Now()
	r.st.contributions[c.ID] = *c
	return nil
}

func (r *BookingRepository) ListContributions(_ context.Context, cagnotteID uint) ([]models.CagnotteContribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CagnotteContribution
	for _, c := range r.st.contributions {
		if c.CagnotteID == cagnotteID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *BookingRepository) SumCommittedContributions(_ context.Context, cagnotteID uint, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, c := range r.st.contributions {
		if c.CagnotteID != cagnotteID {
			continue
		}
		if c.Status == cagnotte.ContributionPaid ||
			(c.Status == cagnotte.ContributionPending && c.CreatedAt.After(since)) {
			sum += c.Amount
		}
	}
	return sum, nil
}

func (r *BookingRepository) ListContributionsAwaitingRefund(_ context.Context, before time.Time, limit int) ([]models.CagnotteContribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CagnotteContribution
	for _, c := range r.st.contributions {
		if c.Status == cagnotte.ContributionPaid &&
			(c.RefundStatus == cagnotte.RefundPending || c.RefundStatus == cagnotte.RefundFailed) &&
			c.UpdatedAt.Before(before) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return limitTo(out, limit), nil
}

// -------- Payout --------

func (r *BookingRepository) CreatePayout(_ context.Context, p *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.st.payouts {
		if other.BookingID == p.BookingID {
			*p = other
			return nil
		}
	}
	p.ID = r.nextID()
	r.st.payouts[p.ID] = *p
	return nil
}

func (r *BookingRepository) GetPayoutByBooking(_ context.Context, bookingID uint) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.st.payouts {
		if p.BookingID == bookingID {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *BookingRepository) LockPayout(_ context.Context, id uint) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.st.payouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *BookingRepository) UpdatePayout(_ context.Context, p *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.payouts[p.ID] = *p
	return nil
}

func (r *BookingRepository) ListDuePayouts(_ context.Context, now time.Time, maxAttempts, limit int) ([]models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payout
	for _, p := range r.st.payouts {
		if payout.IsDue(&p, now, maxAttempts) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return limitTo(out, limit), nil
}

var _ domain.Repository = (*BookingRepository)(nil)
