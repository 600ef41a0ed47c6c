package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/audit"
	"github.com/BruksfildServices01/field-booking/internal/domain/promo"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/httpresp"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/models"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
	promouc "github.com/BruksfildServices01/field-booking/internal/usecase/promo"
)

type PromoHandler struct {
	db       *gorm.DB
	validate *promouc.ValidatePromo
	audit    audit.Recorder
}

func NewPromoHandler(db *gorm.DB, deps bookinguc.Deps) *PromoHandler {
	return &PromoHandler{
		db:       db,
		validate: promouc.NewValidatePromo(deps),
		audit:    deps.Audit,
	}
}

type PromoRequest struct {
	Code           string     `json:"code" binding:"required"`
	Description    string     `json:"description"`
	DiscountType   string     `json:"discount_type" binding:"required"`
	DiscountValue  int64      `json:"discount_value" binding:"required"`
	MinAmount      int64      `json:"min_amount"`
	MaxDiscount    int64      `json:"max_discount"`
	FieldIDs       []uint     `json:"field_ids"`
	Weekdays       []int      `json:"weekdays"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time"`
	ValidFrom      *time.Time `json:"valid_from"`
	ValidUntil     *time.Time `json:"valid_until"`
	MaxUses        int        `json:"max_uses"`
	MaxUsesPerUser int        `json:"max_uses_per_user"`
	Active         *bool      `json:"active"`
}

type ValidatePromoRequest struct {
	Code        string `json:"code" binding:"required"`
	SlotID      uint   `json:"slot_id" binding:"required"`
	PaymentMode string `json:"payment_mode"`
}

// apply copia o request; o código fica normalizado em maiúsculas.
func (r PromoRequest) apply(pc *models.PromoCode) {
	pc.Code = promo.NormalizeCode(r.Code)
	pc.Description = r.Description
	pc.DiscountType = r.DiscountType
	pc.DiscountValue = r.DiscountValue
	pc.MinAmount = r.MinAmount
	pc.MaxDiscount = r.MaxDiscount
	pc.FieldIDs = r.FieldIDs
	pc.Weekdays = r.Weekdays
	pc.StartTime = r.StartTime
	pc.EndTime = r.EndTime
	pc.ValidFrom = r.ValidFrom
	pc.ValidUntil = r.ValidUntil
	pc.MaxUses = r.MaxUses
	pc.MaxUsesPerUser = r.MaxUsesPerUser
	if r.Active != nil {
		pc.Active = *r.Active
	}
}

// os terrenos citados precisam ser do dono
func (h *PromoHandler) ownsFields(ownerID uint, ids []uint) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var n int64
	err := h.db.Model(&models.Field{}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Count(&n).Error
	return n == int64(len(ids)), err
}

func (h *PromoHandler) save(c *gin.Context, pc *models.PromoCode, req PromoRequest) bool {
	req.apply(pc)

	if err := promo.ValidateDefinition(pc); err != nil {
		httperr.FromError(c, err)
		return false
	}
	ok, err := h.ownsFields(pc.OwnerID, req.FieldIDs)
	if err != nil {
		httperr.FromError(c, err)
		return false
	}
	if !ok {
		httperr.FromError(c, httperr.ErrBusiness("field_not_found"))
		return false
	}

	if err := h.db.Save(pc).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.FromError(c, httperr.ErrBusiness("already_exists"))
			return false
		}
		httperr.FromError(c, err)
		return false
	}
	return true
}

func (h *PromoHandler) owned(c *gin.Context) (*models.PromoCode, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	var pc models.PromoCode
	err := h.db.Where("id = ? AND owner_id = ?", id, middleware.UserID(c)).First(&pc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.FromError(c, httperr.ErrBusiness("promo_not_found"))
		return nil, false
	}
	if err != nil {
		httperr.FromError(c, err)
		return nil, false
	}
	return &pc, true
}

func (h *PromoHandler) List(c *gin.Context) {
	var out []models.PromoCode
	if err := h.db.
		Where("owner_id = ?", middleware.UserID(c)).
		Order("created_at DESC").
		Find(&out).Error; err != nil {

		httperr.FromError(c, err)
		return
	}
	httpresp.List(c, out)
}

func (h *PromoHandler) Create(c *gin.Context) {
	var req PromoRequest
	if !bindJSON(c, &req) {
		return
	}

	pc := &models.PromoCode{OwnerID: middleware.UserID(c), Active: true}
	if !h.save(c, pc, req) {
		return
	}

	writeAudit(h.audit, c, "promo_created", "promo_code", pc.ID, gin.H{"code": pc.Code})
	httpresp.Created(c, pc)
}

func (h *PromoHandler) Update(c *gin.Context) {
	pc, ok := h.owned(c)
	if !ok {
		return
	}

	var req PromoRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.save(c, pc, req) {
		return
	}

	writeAudit(h.audit, c, "promo_updated", "promo_code", pc.ID, gin.H{"code": pc.Code})
	httpresp.OK(c, pc)
}

// Deactivate não apaga: resgates antigos continuam apontando para o código.
func (h *PromoHandler) Deactivate(c *gin.Context) {
	pc, ok := h.owned(c)
	if !ok {
		return
	}

	pc.Active = false
	if err := h.db.Model(pc).Update("active", false).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "promo_deactivated", "promo_code", pc.ID, nil)
	httpresp.OK(c, pc)
}

func (h *PromoHandler) Validate(c *gin.Context) {
	var req ValidatePromoRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.validate.Execute(c.Request.Context(), promouc.ValidatePromoInput{
		Code:        req.Code,
		SlotID:      req.SlotID,
		UserID:      middleware.UserID(c),
		PaymentMode: req.PaymentMode,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, out)
}
