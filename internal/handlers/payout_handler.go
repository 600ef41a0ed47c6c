package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/httpresp"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type PayoutHandler struct {
	db *gorm.DB
}

func NewPayoutHandler(db *gorm.DB) *PayoutHandler {
	return &PayoutHandler{db: db}
}

// List mostra os repasses do dono, mais recentes primeiro.
func (h *PayoutHandler) List(c *gin.Context) {
	page, limit, offset := pagination(c, 20, 100)

	q := h.db.Model(&models.Payout{}).Where("owner_id = ?", middleware.UserID(c))
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	var out []models.Payout
	if err := q.
		Order("release_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {

		httperr.FromError(c, err)
		return
	}

	httpresp.Page(c, out, page, limit, total)
}
