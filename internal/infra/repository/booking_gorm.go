package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/cagnotte"
	"github.com/BruksfildServices01/field-booking/internal/domain/payout"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

func (r *BookingGormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BookingGormRepository{db: tx})
	})
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// --------------------------------------------------
// User / Field
// --------------------------------------------------

func (r *BookingGormRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *BookingGormRepository) GetField(ctx context.Context, id uint) (*models.Field, error) {
	var f models.Field
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// --------------------------------------------------
// Slot
// --------------------------------------------------

func (r *BookingGormRepository) GetSlot(ctx context.Context, id uint) (*models.FieldAvailability, error) {
	var s models.FieldAvailability
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *BookingGormRepository) LockSlot(ctx context.Context, id uint) (*models.FieldAvailability, error) {
	var s models.FieldAvailability
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *BookingGormRepository) UpdateSlot(ctx context.Context, slot *models.FieldAvailability) error {
	return r.db.WithContext(ctx).Save(slot).Error
}

func (r *BookingGormRepository) HasActiveOverlap(
	ctx context.Context,
	fieldID uint,
	start time.Time,
	end time.Time,
	excludeBookingID uint,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where(
			"field_id = ? AND status IN ? AND starts_at < ? AND ends_at > ? AND id <> ?",
			fieldID,
			domain.ActiveStatuses(),
			end,
			start,
			excludeBookingID,
		).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *BookingGormRepository) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FieldAvailability{}).
		Where("on_hold_until IS NOT NULL AND on_hold_until <= ?", now).
		Updates(map[string]any{
			"on_hold_until": nil,
			"hold_token":    "",
			"held_by":       nil,
		})
	return res.RowsAffected, res.Error
}

// --------------------------------------------------
// Booking
// --------------------------------------------------

func (r *BookingGormRepository) CreateBooking(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingGormRepository) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Field").
		First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingGormRepository) LockBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingGormRepository) UpdateBooking(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error
}

// Provisórias expiram junto com a cagnotte.
func (r *BookingGormRepository) ListBookingsToExpire(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at <= ?",
			[]string{string(domain.StatusPending), string(domain.StatusApproved)}, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *BookingGormRepository) ListBookingsToComplete(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("status IN ? AND ends_at <= ?",
			[]string{string(domain.StatusConfirmed), string(domain.StatusOwnerConfirmed)}, now).
		Order("ends_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *BookingGormRepository) ListBookings(ctx context.Context, f domain.Filter) ([]models.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})

	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.FieldID != 0 {
		q = q.Where("field_id = ?", f.FieldID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("starts_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("starts_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var out []models.Booking
	err := q.
		Preload("Field").
		Preload("User").
		Order("starts_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

func (r *BookingGormRepository) OwnerStats(ctx context.Context, ownerID uint, from, to time.Time) (*domain.Stats, error) {
	stats := &domain.Stats{ByStatus: map[string]int64{}}
	db := r.db.WithContext(ctx)

	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ? AND starts_at >= ? AND starts_at < ?", ownerID, from, to).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
	}

	paid := []string{
		string(domain.StatusConfirmed),
		string(domain.StatusOwnerConfirmed),
		string(domain.StatusCompleted),
	}

	var sums struct {
		Gross      int64
		Owner      int64
		Commission int64
	}
	if err := db.Model(&models.Booking{}).
		Select("COALESCE(SUM(total_amount - discount_amount),0) AS gross, COALESCE(SUM(owner_amount),0) AS owner, COALESCE(SUM(commission_amount),0) AS commission").
		Where("owner_id = ? AND status IN ? AND starts_at >= ? AND starts_at < ?", ownerID, paid, from, to).
		Scan(&sums).Error; err != nil {
		return nil, err
	}
	stats.GrossAmount = sums.Gross
	stats.OwnerAmount = sums.Owner
	stats.CommissionTotal = sums.Commission

	if err := db.Model(&models.Booking{}).
		Where("owner_id = ? AND status IN ? AND starts_at > ?", ownerID, domain.ActiveStatuses(), time.Now()).
		Count(&stats.Upcoming).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Payout{}).
		Select("COALESCE(SUM(amount),0)").
		Where("owner_id = ? AND status IN ?", ownerID, []string{
			string(payout.StatusScheduled), string(payout.StatusProcessing), string(payout.StatusFailed),
		}).
		Scan(&stats.PendingPayouts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Payout{}).
		Select("COALESCE(SUM(amount),0)").
		Where("owner_id = ? AND status = ?", ownerID, string(payout.StatusPaid)).
		Scan(&stats.PaidPayouts).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// --------------------------------------------------
// Payment
// --------------------------------------------------

func (r *BookingGormRepository) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *BookingGormRepository) GetPaymentByReference(ctx context.Context, ref string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).
		Where("reference = ?", ref).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BookingGormRepository) LockPaymentByReference(ctx context.Context, ref string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("reference = ?", ref).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BookingGormRepository) GetPaidPaymentForBooking(ctx context.Context, bookingID uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, models.PaymentStatusPaid).
		Order("paid_at DESC").
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BookingGormRepository) UpdatePayment(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *BookingGormRepository) RecordWebhookEvent(ctx context.Context, ev *models.WebhookEvent) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ev)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// --------------------------------------------------
// Promo
// --------------------------------------------------

func (r *BookingGormRepository) GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var pc models.PromoCode
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&pc).Error; err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *BookingGormRepository) CountPromoRedemptions(ctx context.Context, promoID, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PromoRedemption{}).
		Where("promo_code_id = ? AND user_id = ? AND released = ?", promoID, userID, false).
		Count(&count).Error
	return count, err
}

func (r *BookingGormRepository) ReservePromoUse(ctx context.Context, promoID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ? AND active = ? AND (max_uses = 0 OR used_count < max_uses)", promoID, true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *BookingGormRepository) CreatePromoRedemption(ctx context.Context, pr *models.PromoRedemption) error {
	return r.db.WithContext(ctx).Create(pr).Error
}

func (r *BookingGormRepository) ReleasePromoRedemption(ctx context.Context, bookingID uint) error {
	var red models.PromoRedemption
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("booking_id = ? AND released = ?", bookingID, false).
		First(&red).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).
		Model(&red).
		Update("released", true).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ? AND used_count > 0", red.PromoCodeID).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}

// --------------------------------------------------
// Cagnotte
// --------------------------------------------------

func (r *BookingGormRepository) CreateCagnotte(ctx context.Context, c *models.Cagnotte) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *BookingGormRepository) GetCagnotte(ctx context.Context, id uint) (*models.Cagnotte, error) {
	var c models.Cagnotte
	if err := r.db.WithContext(ctx).
		Preload("Contributions", "status = ?", cagnotte.ContributionPaid).
		First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *BookingGormRepository) LockCagnotte(ctx context.Context, id uint) (*models.Cagnotte, error) {
	var c models.Cagnotte
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *BookingGormRepository) UpdateCagnotte(ctx context.Context, c *models.Cagnotte) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (r *BookingGormRepository) HasOpenCagnotte(ctx context.Context, slotID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Cagnotte{}).
		Where("slot_id = ? AND status IN ?", slotID, []string{
			string(cagnotte.StatusCollecting), string(cagnotte.StatusHolding),
		}).
		Count(&count).Error
	return count > 0, err
}

func (r *BookingGormRepository) ListCagnottesToExpire(ctx context.Context, now time.Time, limit int) ([]models.Cagnotte, error) {
	var out []models.Cagnotte
	err := r.db.WithContext(ctx).
		Where("status IN ? AND deadline <= ?", []string{
			string(cagnotte.StatusCollecting), string(cagnotte.StatusHolding),
		}, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *BookingGormRepository) CreateContribution(ctx context.Context, c *models.CagnotteContribution) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *BookingGormRepository) LockContribution(ctx context.Context, id uint) (*models.CagnotteContribution, error) {
	var c models.CagnotteContribution
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *BookingGormRepository) UpdateContribution(ctx context.Context, c *models.CagnotteContribution) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *BookingGormRepository) ListContributions(ctx context.Context, cagnotteID uint) ([]models.CagnotteContribution, error) {
	var out []models.CagnotteContribution
	err := r.db.WithContext(ctx).
		Where("cagnotte_id = ?", cagnotteID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *BookingGormRepository) SumCommittedContributions(ctx context.Context, cagnotteID uint, pendingSince time.Time) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&models.CagnotteContribution{}).
		Select("COALESCE(SUM(amount),0)").
		Where("cagnotte_id = ? AND (status = ? OR (status = ? AND created_at > ?))",
			cagnotteID, cagnotte.ContributionPaid, cagnotte.ContributionPending, pendingSince).
		Scan(&sum).Error
	return sum, err
}

func (r *BookingGormRepository) ListContributionsAwaitingRefund(ctx context.Context, before time.Time, limit int) ([]models.CagnotteContribution, error) {
	var out []models.CagnotteContribution
	err := r.db.WithContext(ctx).
		Where("status = ? AND refund_status IN ? AND updated_at < ?",
			cagnotte.ContributionPaid,
			[]string{cagnotte.RefundPending, cagnotte.RefundFailed},
			before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// --------------------------------------------------
// Payout
// --------------------------------------------------

func (r *BookingGormRepository) CreatePayout(ctx context.Context, p *models.Payout) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "booking_id"}}, DoNothing: true}).
		Create(p).Error
}

func (r *BookingGormRepository) GetPayoutByBooking(ctx context.Context, bookingID uint) (*models.Payout, error) {
	var p models.Payout
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BookingGormRepository) LockPayout(ctx context.Context, id uint) (*models.Payout, error) {
	var p models.Payout
	if err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BookingGormRepository) UpdatePayout(ctx context.Context, p *models.Payout) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *BookingGormRepository) ListDuePayouts(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.Payout, error) {
	var out []models.Payout
	err := r.db.WithContext(ctx).
		Where("(status IN ? AND attempts < ? AND release_at <= ?) OR (status = ? AND processing_since <= ?)",
			[]string{string(payout.StatusScheduled), string(payout.StatusFailed)}, maxAttempts, now,
			string(payout.StatusProcessing), now.Add(-payout.ProcessingLease),
		).
		Order("release_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Compile-time check
var _ domain.Repository = (*BookingGormRepository)(nil)
