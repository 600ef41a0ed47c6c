package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/config"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/phone"
	"github.com/BruksfildServices01/field-booking/internal/validators"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config

	// checkEmail confere o domínio do e-mail (DNS); trocado nos testes.
	checkEmail func(string) bool
	now        func() time.Time
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:         db,
		config:     cfg,
		checkEmail: validators.IsEmailDomainValid,
		now:        time.Now,
	}
}

// --------- Requests ---------

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone" binding:"required"`
	// "user" (padrão) ou "owner"
	Role string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser, models.RoleOwner:
	default:
		httperr.FromError(c, httperr.ErrBusiness("invalid_role"))
		return
	}

	email := validators.NormalizeEmail(req.Email)
	if !h.checkEmail(email) {
		httperr.BadRequest(c, "invalid_request", "Le domaine de cette adresse email ne semble pas valide.")
		return
	}

	tel, err := phone.Normalize(req.Phone)
	if err != nil {
		httperr.FromError(c, httperr.ErrBusiness("invalid_phone"))
		return
	}

	var count int64
	if err := h.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		httperr.FromError(c, err)
		return
	}
	if count > 0 {
		httperr.FromError(c, httperr.ErrBusiness("email_taken"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        tel,
		Role:         role,
	}
	if role == models.RoleOwner {
		// repasse por mobile money no próprio número até o dono mudar
		user.PayoutChannel = models.PayoutChannelMobileMoney
		user.PayoutPhone = tel
	}

	if err := h.db.Create(&user).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.FromError(c, httperr.ErrBusiness("email_taken"))
			return
		}
		httperr.FromError(c, err)
		return
	}

	token, err := middleware.NewToken(h.config.JWTSecret, &user, h.config.JWTTTL, h.now())
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	email := validators.NormalizeEmail(req.Email)

	var user models.User
	if err := h.db.Preload("Roles").
		Where("email = ?", email).
		First(&user).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Unauthorized(c, "invalid_credentials", httperr.MessageFor("invalid_credentials"))
			return
		}
		httperr.FromError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, "invalid_credentials", httperr.MessageFor("invalid_credentials"))
		return
	}

	token, err := middleware.NewToken(h.config.JWTSecret, &user, h.config.JWTTTL, h.now())
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}
