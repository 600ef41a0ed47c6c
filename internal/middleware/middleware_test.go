package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/field-booking/internal/config"
	"github.com/BruksfildServices01/field-booking/internal/db/dbtest"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCfg = &config.Config{JWTSecret: "test-secret"}

func token(t *testing.T, u *models.User, ttl time.Duration) string {
	t.Helper()
	tok, err := NewToken(testCfg.JWTSecret, u, ttl, time.Now())
	require.NoError(t, err)
	return tok
}

func router(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "roles": Roles(c)})
	})
	return r
}

func do(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := router(AuthMiddleware(testCfg))
	owner := &models.User{ID: 7, Role: models.RoleOwner, Roles: []models.UserRole{{Role: models.RoleAdmin}}}

	w := do(r, "Bearer "+token(t, owner, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"roles":["owner","admin"]}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+token(t, owner, -time.Minute)).Code)

	forged, err := NewToken("other-secret", owner, time.Hour, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+forged).Code)
}

func TestOptionalAuth(t *testing.T) {
	r := router(OptionalAuth(testCfg))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"roles":null}`, w.Body.String())

	w = do(r, "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, "Bearer "+token(t, &models.User{ID: 3, Role: models.RoleUser}, time.Hour))
	assert.JSONEq(t, `{"user_id":3,"roles":["user"]}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	r := router(AuthMiddleware(testCfg), RequireRole(models.RoleAdmin))

	user := &models.User{ID: 1, Role: models.RoleUser}
	admin := &models.User{ID: 2, Role: models.RoleUser, Roles: []models.UserRole{{Role: models.RoleAdmin}}}
	root := &models.User{ID: 3, Role: models.RoleSuperAdmin}

	assert.Equal(t, http.StatusForbidden, do(r, "Bearer "+token(t, user, time.Hour)).Code)
	assert.Equal(t, http.StatusOK, do(r, "Bearer "+token(t, admin, time.Hour)).Code)
	assert.Equal(t, http.StatusOK, do(r, "Bearer "+token(t, root, time.Hour)).Code)
}

func TestRefreshRolesSeesRevocation(t *testing.T) {
	db := dbtest.Open(t)
	r := router(AuthMiddleware(testCfg), RefreshRoles(db), RequireRole(models.RoleAdmin))

	admin := &models.User{Name: "Awa", Email: "awa@terrain.ci", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(admin).Error)
	grant := models.UserRole{UserID: admin.ID, Role: models.RoleAdmin}
	require.NoError(t, db.Create(&grant).Error)
	admin.Roles = []models.UserRole{grant}

	tok := "Bearer " + token(t, admin, 24*time.Hour)
	w := do(r, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":`+strconv.Itoa(int(admin.ID))+`,"roles":["user","admin"]}`, w.Body.String())

	require.NoError(t, db.Delete(&grant).Error)

	// mesmo token, ainda válido por 24h
	w = do(r, tok)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefreshRolesUnknownUser(t *testing.T) {
	db := dbtest.Open(t)
	r := router(AuthMiddleware(testCfg), RefreshRoles(db), RequireRole(models.RoleAdmin))

	ghost := &models.User{ID: 99, Role: models.RoleSuperAdmin}
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+token(t, ghost, time.Hour)).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(20, zap.NewNop())
	r := router(rl.Middleware())

	// burst mínimo de 5
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, "").Code, "request %d", i)
	}
	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "too_many_requests")
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()), Recovery(zap.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestCORSAllowList(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.terrain.ci/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.terrain.ci")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.terrain.ci", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
