package middleware

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/config"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

const (
	ContextUserID    = "userID"
	ContextUserRoles = "userRoles"
)

type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// NewToken assina o JWT de sessão (HS256).
func NewToken(secret string, user *models.User, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Roles: user.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid_token")
	}
	return &claims, nil
}

func bearer(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setIdentity(c *gin.Context, claims *Claims) bool {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return false
	}
	c.Set(ContextUserID, uint(id))
	c.Set(ContextUserRoles, claims.Roles)
	return true
}

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			httperr.Unauthorized(c, "unauthorized", httperr.MessageFor("unauthorized"))
			return
		}

		claims, err := parseToken(cfg.JWTSecret, raw)
		if err != nil || !setIdentity(c, claims) {
			httperr.Unauthorized(c, "unauthorized", httperr.MessageFor("unauthorized"))
			return
		}

		c.Next()
	}
}

// OptionalAuth identifica o usuário quando há token válido; sem token segue anônimo.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearer(c); ok {
			if claims, err := parseToken(cfg.JWTSecret, raw); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole deixa passar quem tiver qualquer um dos papéis. super_admin passa sempre.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, r := range Roles(c) {
			if r == models.RoleSuperAdmin || slices.Contains(roles, r) {
				c.Next()
				return
			}
		}
		httperr.Forbidden(c, "forbidden", httperr.MessageFor("forbidden"))
	}
}

// RefreshRoles troca os papéis do token pelos do banco, para que uma revogação
// valha já na requisição seguinte. Vem depois de AuthMiddleware e antes de RequireRole.
func RefreshRoles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		err := db.WithContext(c.Request.Context()).
			Preload("Roles").
			First(&user, UserID(c)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Unauthorized(c, "unauthorized", httperr.MessageFor("unauthorized"))
			return
		}
		if err != nil {
			httperr.Internal(c, "internal_error", httperr.MessageFor("internal_error"))
			return
		}

		c.Set(ContextUserRoles, user.RoleNames())
		c.Next()
	}
}

// UserID devolve 0 para requisições anônimas.
func UserID(c *gin.Context) uint {
	v, _ := c.Get(ContextUserID)
	id, _ := v.(uint)
	return id
}

func Roles(c *gin.Context) []string {
	v, _ := c.Get(ContextUserRoles)
	roles, _ := v.([]string)
	return roles
}

func HasRole(c *gin.Context, role string) bool {
	return slices.Contains(Roles(c), role)
}
