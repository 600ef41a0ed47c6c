package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/phone"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

type UpdateMeRequest struct {
	Name          *string `json:"name,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	PayoutChannel *string `json:"payout_channel,omitempty"`
	PayoutPhone   *string `json:"payout_phone,omitempty"`
}

func (h *MeHandler) GetMe(c *gin.Context) {
	var user models.User
	if err := h.db.Preload("Roles").First(&user, middleware.UserID(c)).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"roles": user.RoleNames(),
	})
}

func (h *MeHandler) UpdateMe(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, middleware.UserID(c)).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	var req UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httperr.BadRequest(c, "invalid_request", httperr.MessageFor("invalid_request"))
			return
		}
		user.Name = name
	}
	if req.Phone != nil {
		tel, err := phone.Normalize(*req.Phone)
		if err != nil {
			httperr.FromError(c, httperr.ErrBusiness("invalid_phone"))
			return
		}
		user.Phone = tel
	}
	if req.PayoutChannel != nil {
		switch *req.PayoutChannel {
		case models.PayoutChannelMobileMoney, models.PayoutChannelStripe:
			user.PayoutChannel = *req.PayoutChannel
		default:
			httperr.BadRequest(c, "invalid_request", httperr.MessageFor("invalid_request"))
			return
		}
	}
	if req.PayoutPhone != nil {
		// repasse mobile money só para números móveis
		if !phone.IsMobile(*req.PayoutPhone) {
			httperr.FromError(c, httperr.ErrBusiness("invalid_phone"))
			return
		}
		tel, _ := phone.Normalize(*req.PayoutPhone)
		user.PayoutPhone = tel
	}

	if err := h.db.Save(&user).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
