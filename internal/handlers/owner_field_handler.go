package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/audit"
	"github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/field"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/httpresp"
	"github.com/BruksfildServices01/field-booking/internal/imaging"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/storage"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
	fielduc "github.com/BruksfildServices01/field-booking/internal/usecase/field"
)

const maxPhotosPerField = 10

// OwnerFieldHandler: cadastro de terrenos, grade semanal, slots e fotos do dono.
type OwnerFieldHandler struct {
	db       *gorm.DB
	rate     float64
	generate *fielduc.GenerateSlots
	store    storage.Storage
	audit    audit.Recorder
	log      *zap.Logger
}

func NewOwnerFieldHandler(
	db *gorm.DB,
	commissionRate float64,
	generate *fielduc.GenerateSlots,
	store storage.Storage,
	rec audit.Recorder,
	log *zap.Logger,
) *OwnerFieldHandler {
	return &OwnerFieldHandler{
		db:       db,
		rate:     commissionRate,
		generate: generate,
		store:    store,
		audit:    rec,
		log:      log,
	}
}

// --------- Requests ---------

type CreateFieldRequest struct {
	Name             string  `json:"name" binding:"required,max=120"`
	Description      string  `json:"description"`
	Sport            string  `json:"sport" binding:"required,max=40"`
	City             string  `json:"city" binding:"required,max=80"`
	Address          string  `json:"address"`
	Latitude         float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude        float64 `json:"longitude" binding:"min=-180,max=180"`
	Timezone         string  `json:"timezone"`
	NetPrice         int64   `json:"net_price" binding:"required,min=1"`
	DepositPercent   int     `json:"deposit_percent" binding:"min=0,max=100"`
	RequiresApproval bool    `json:"requires_approval"`
}

type UpdateFieldRequest struct {
	Name             *string  `json:"name,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Sport            *string  `json:"sport,omitempty"`
	City             *string  `json:"city,omitempty"`
	Address          *string  `json:"address,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	NetPrice         *int64   `json:"net_price,omitempty"`
	DepositPercent   *int     `json:"deposit_percent,omitempty"`
	RequiresApproval *bool    `json:"requires_approval,omitempty"`
	Active           *bool    `json:"active,omitempty"`
}

type ScheduleDay struct {
	Weekday     int    `json:"weekday" binding:"min=0,max=6"`
	Active      bool   `json:"active"`
	OpenTime    string `json:"open_time"`
	CloseTime   string `json:"close_time"`
	SlotMinutes int    `json:"slot_minutes"`
}

type ScheduleUpdateRequest struct {
	Days []ScheduleDay `json:"days" binding:"required,dive"`
}

type GenerateSlotsRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type UpdateSlotRequest struct {
	IsAvailable   *bool  `json:"is_available,omitempty"`
	PriceOverride *int64 `json:"price_override,omitempty"`
	ClearPrice    bool   `json:"clear_price"`
}

// --------- helpers ---------

func (h *OwnerFieldHandler) ownedField(c *gin.Context) (*models.Field, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	var f models.Field
	if err := h.db.
		Where("id = ? AND owner_id = ?", id, middleware.UserID(c)).
		First(&f).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.FromError(c, httperr.ErrBusiness("field_not_found"))
			return nil, false
		}
		httperr.FromError(c, err)
		return nil, false
	}
	return &f, true
}

// --------- Fields ---------

func (h *OwnerFieldHandler) List(c *gin.Context) {
	var fields []models.Field
	if err := h.db.
		Preload("Photos").
		Where("owner_id = ?", middleware.UserID(c)).
		Order("id ASC").
		Find(&fields).Error; err != nil {

		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, fields)
}

func (h *OwnerFieldHandler) Create(c *gin.Context) {
	var req CreateFieldRequest
	if !bindJSON(c, &req) {
		return
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = timezone.DefaultTimezone
	}
	if !timezone.IsValid(tz) {
		httperr.BadRequest(c, "invalid_request", httperr.MessageFor("invalid_request"))
		return
	}

	f := models.Field{
		OwnerID:          middleware.UserID(c),
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Sport:            strings.ToLower(strings.TrimSpace(req.Sport)),
		City:             strings.TrimSpace(req.City),
		Address:          req.Address,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Timezone:         tz,
		NetPrice:         req.NetPrice,
		PublicPrice:      booking.PublicPrice(req.NetPrice, h.rate),
		DepositPercent:   req.DepositPercent,
		RequiresApproval: req.RequiresApproval,
		Active:           true,
	}

	if err := h.db.Create(&f).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "field_created", "field", f.ID, gin.H{"name": f.Name})
	httpresp.Created(c, f)
}

func (h *OwnerFieldHandler) Update(c *gin.Context) {
	f, ok := h.ownedField(c)
	if !ok {
		return
	}

	var req UpdateFieldRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Name != nil {
		f.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		f.Description = *req.Description
	}
	if req.Sport != nil {
		f.Sport = strings.ToLower(strings.TrimSpace(*req.Sport))
	}
	if req.City != nil {
		f.City = strings.TrimSpace(*req.City)
	}
	if req.Address != nil {
		f.Address = *req.Address
	}
	if req.Latitude != nil {
		f.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		f.Longitude = *req.Longitude
	}
	if req.NetPrice != nil {
		if *req.NetPrice <= 0 {
			httperr.FromError(c, httperr.ErrBusiness("invalid_price"))
			return
		}
		f.NetPrice = *req.NetPrice
		f.PublicPrice = booking.PublicPrice(f.NetPrice, h.rate)
	}
	if req.DepositPercent != nil {
		if *req.DepositPercent < 0 || *req.DepositPercent > 100 {
			httperr.BadRequest(c, "invalid_request", httperr.MessageFor("invalid_request"))
			return
		}
		f.DepositPercent = *req.DepositPercent
	}
	if req.RequiresApproval != nil {
		f.RequiresApproval = *req.RequiresApproval
	}
	if req.Active != nil {
		f.Active = *req.Active
	}

	if f.Name == "" || f.City == "" || f.Latitude < -90 || f.Latitude > 90 || f.Longitude < -180 || f.Longitude > 180 {
		httperr.BadRequest(c, "invalid_request", httperr.MessageFor("invalid_request"))
		return
	}

	if err := h.db.Save(f).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "field_updated", "field", f.ID, req)
	httpresp.OK(c, f)
}

// --------- Schedules ---------

func (h *OwnerFieldHandler) GetSchedule(c *gin.Context) {
	f, ok := h.ownedField(c)
	if !ok {
		return
	}

	var days []models.FieldSchedule
	if err := h.db.
		Where("field_id = ?", f.ID).
		Order("weekday ASC").
		Find(&days).Error; err != nil {

		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, days)
}

// UpdateSchedule troca a grade inteira.
func (h *OwnerFieldHandler) UpdateSchedule(c *gin.Context) {
	f, ok := h.ownedField(c)
	if !ok {
		return
	}

	var req ScheduleUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	seen := map[int]bool{}
	toCreate := make([]models.FieldSchedule, 0, len(req.Days))
	for _, d := range req.Days {
		if seen[d.Weekday] {
			httperr.BadRequest(c, "invalid_request", httperr.MessageFor("invalid_request"))
			return
		}
		seen[d.Weekday] = true

		s := models.FieldSchedule{
			FieldID:     f.ID,
			Weekday:     d.Weekday,
			OpenTime:    d.OpenTime,
			CloseTime:   d.CloseTime,
			SlotMinutes: d.SlotMinutes,
			Active:      d.Active,
		}
		if s.SlotMinutes == 0 {
			s.SlotMinutes = 60
		}
		if s.Active {
			if err := field.ValidateSchedule(s); err != nil {
				httperr.FromError(c, err)
				return
			}
		}
		toCreate = append(toCreate, s)
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("field_id = ?", f.ID).Delete(&models.FieldSchedule{}).Error; err != nil {
			return err
		}
		if len(toCreate) == 0 {
			return nil
		}
		return tx.Create(&toCreate).Error
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "field_schedule_updated", "field", f.ID, req.Days)
	httpresp.List(c, toCreate)
}

// --------- Slots ---------

func (h *OwnerFieldHandler) GenerateSlots(c *gin.Context) {
	f, ok := h.ownedField(c)
	if !ok {
		return
	}

	var req GenerateSlotsRequest
	if !bindJSON(c, &req) {
		return
	}

	loc := locationFromField(f)
	from, err := timezone.ParseDate(req.From, loc)
	if err != nil {
		httperr.FromError(c, httperr.ErrBusiness("invalid_date"))
		return
	}
	to, err := timezone.ParseDate(req.To, loc)
	if err != nil {
		httperr.FromError(c, httperr.ErrBusiness("invalid_date"))
		return
	}

	created, err := h.generate.Execute(c.Request.Context(), f.OwnerID, f.ID, from, to)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "slots_generated", "field", f.ID, gin.H{"from": req.From, "to": req.To, "created": created})
	httpresp.OK(c, gin.H{"created": created})
}

func (h *OwnerFieldHandler) ListSlots(c *gin.Context) {
	f, ok := h.ownedField(c)
	if !ok {
		return
	}

	from, to, ok := parseRange(locationFromField(f), c.Query("from"), c.Query("to"))
	if !ok {
		httperr.FromError(c, httperr.ErrBusiness("invalid_date_range"))
		return
	}

	var slots []models.FieldAvailability
	if err := h.db.
		Where("field_id = ? AND starts_at >= ? AND starts_at < ?", f.ID, from, to).
		Order("starts_at ASC").
		Find(&slots).Error; err != nil {

		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, slots)
}

// UpdateSlot bloqueia/libera o slot ou muda o preço só daquele horário.
func (h *OwnerFieldHandler) UpdateSlot(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var slot models.FieldAvailability
	if err := h.db.
		Joins("JOIN fields ON fields.id = field_availability.field_id").
		Where("field_availability.id = ? AND fields.owner_id = ?", id, middleware.UserID(c)).
		First(&slot).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.FromError(c, httperr.ErrBusiness("slot_not_found"))
			return
		}
		httperr.FromError(c, err)
		return
	}

	var req UpdateSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.IsAvailable != nil {
		slot.IsAvailable = *req.IsAvailable
	}
	switch {
	case req.ClearPrice:
		slot.PriceOverride = nil
	case req.PriceOverride != nil:
		if *req.PriceOverride <= 0 {
			httperr.FromError(c, httperr.ErrBusiness("invalid_price"))
			return
		}
		slot.PriceOverride = req.PriceOverride
	}

	if err := h.db.Save(&slot).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "slot_updated", "slot", slot.ID, req)
	httpresp.OK(c, slot)
}

// --------- Photos ---------

func (h *OwnerFieldHandler) UploadPhoto(c *gin.Context) {
	f, ok := h.ownedField(c)
	if !ok {
		return
	}
	if h.store == nil {
		httperr.FromError(c, httperr.ErrBusiness("storage_unavailable"))
		return
	}

	var count int64
	if err := h.db.Model(&models.FieldPhoto{}).Where("field_id = ?", f.ID).Count(&count).Error; err != nil {
		httperr.FromError(c, err)
		return
	}
	if count >= maxPhotosPerField {
		httperr.BadRequest(c, "invalid_request", "Nombre maximum de photos atteint.")
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		httperr.FromError(c, httperr.ErrBusiness("invalid_image"))
		return
	}
	src, err := file.Open()
	if err != nil {
		httperr.FromError(c, httperr.ErrBusiness("invalid_image"))
		return
	}
	defer src.Close()

	raw, err := io.ReadAll(io.LimitReader(src, imaging.MaxUploadSize+1))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	img, err := imaging.ToWebP(raw)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	key := storage.PhotoKey(f.ID, uuid.NewString())
	url, err := h.store.Put(c.Request.Context(), key, "image/webp", img.Data)
	if err != nil {
		h.log.Error("photo upload failed", zap.Uint("field_id", f.ID), zap.Error(err))
		httperr.FromError(c, httperr.ErrBusiness("storage_unavailable"))
		return
	}

	photo := models.FieldPhoto{
		FieldID:   f.ID,
		ObjectKey: key,
		URL:       url,
		Width:     img.Width,
		Height:    img.Height,
		Position:  int(count),
	}
	if err := h.db.Create(&photo).Error; err != nil {
		_ = h.store.Delete(c.Request.Context(), key)
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "field_photo_added", "field", f.ID, gin.H{"photo_id": photo.ID})
	httpresp.Created(c, photo)
}

func (h *OwnerFieldHandler) DeletePhoto(c *gin.Context) {
	f, ok := h.ownedField(c)
	if !ok {
		return
	}
	photoID, ok := idParam(c, "photoId")
	if !ok {
		return
	}

	var photo models.FieldPhoto
	if err := h.db.Where("id = ? AND field_id = ?", photoID, f.ID).First(&photo).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	if err := h.db.Delete(&photo).Error; err != nil {
		httperr.FromError(c, err)
		return
	}
	if h.store != nil {
		if err := h.store.Delete(c.Request.Context(), photo.ObjectKey); err != nil {
			// a linha já foi removida; o objeto órfão só ocupa espaço
			h.log.Warn("photo object delete failed", zap.String("key", photo.ObjectKey), zap.Error(err))
		}
	}

	writeAudit(h.audit, c, "field_photo_removed", "field", f.ID, gin.H{"photo_id": photo.ID})
	c.Status(http.StatusNoContent)
}
