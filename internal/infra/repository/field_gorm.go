package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/cagnotte"
	domain "github.com/BruksfildServices01/field-booking/internal/domain/field"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type FieldGormRepository struct {
	db *gorm.DB
}

func NewFieldGormRepository(db *gorm.DB) *FieldGormRepository {
	return &FieldGormRepository{db: db}
}

var _ domain.Repository = (*FieldGormRepository)(nil)

func (r *FieldGormRepository) GetField(ctx context.Context, id uint) (*models.Field, error) {
	var f models.Field
	if err := r.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FieldGormRepository) ListSchedules(ctx context.Context, fieldID uint) ([]models.FieldSchedule, error) {
	var out []models.FieldSchedule
	err := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Order("weekday ASC").
		Find(&out).Error
	return out, err
}

func (r *FieldGormRepository) UpsertSlots(ctx context.Context, slots []models.FieldAvailability) (int64, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "field_id"}, {Name: "starts_at"}},
			DoNothing: true,
		}).
		CreateInBatches(&slots, 200)
	return res.RowsAffected, res.Error
}

func (r *FieldGormRepository) SearchFields(ctx context.Context, f domain.SearchFilter) ([]models.Field, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Field{}).
		Where("active = ? AND approved = ?", true, true)

	if f.City != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(strings.TrimSpace(f.City)))
	}
	if f.Sport != "" {
		q = q.Where("LOWER(sport) = ?", strings.ToLower(strings.TrimSpace(f.Sport)))
	}
	if f.MaxPrice > 0 {
		q = q.Where("public_price <= ?", f.MaxPrice)
	}
	if f.Lat != nil && f.Lng != nil {
		minLat, maxLat, minLng, maxLng := domain.BoundingBox(*f.Lat, *f.Lng, f.RadiusKm)
		q = q.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?", minLat, maxLat, minLng, maxLng)
	}

	var out []models.Field
	err := q.
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("public_price ASC, id ASC").
		Limit(f.Limit).
		Find(&out).Error
	return out, err
}

func (r *FieldGormRepository) ListSlots(
	ctx context.Context,
	fieldIDs []uint,
	from time.Time,
	to time.Time,
) ([]models.FieldAvailability, error) {

	var out []models.FieldAvailability
	err := r.db.WithContext(ctx).
		Where("field_id IN ? AND starts_at >= ? AND starts_at < ?", fieldIDs, from, to).
		Order("starts_at ASC").
		Find(&out).Error
	return out, err
}

func (r *FieldGormRepository) ListActiveBookings(
	ctx context.Context,
	fieldIDs []uint,
	from time.Time,
	to time.Time,
) ([]models.Booking, error) {

	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where(
			"field_id IN ? AND status IN ? AND starts_at < ? AND ends_at > ?",
			fieldIDs,
			booking.ActiveStatuses(),
			to,
			from,
		).
		Find(&out).Error
	return out, err
}

func (r *FieldGormRepository) OpenCagnotteSlots(ctx context.Context, slotIDs []uint) ([]uint, error) {
	var out []uint
	err := r.db.WithContext(ctx).
		Model(&models.Cagnotte{}).
		Where("slot_id IN ? AND status IN ?", slotIDs, []string{
			string(cagnotte.StatusCollecting), string(cagnotte.StatusHolding),
		}).
		Distinct().
		Pluck("slot_id", &out).Error
	return out, err
}
