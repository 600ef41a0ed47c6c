package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func respond(t *testing.T, err error) (int, HTTPError) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	FromError(c, err)

	var body HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestFromErrorMapsBusinessCodes(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{"booking_not_found", http.StatusNotFound},
		{"slot_unavailable", http.StatusConflict},
		{"promo_exhausted", http.StatusConflict},
		{"forbidden", http.StatusForbidden},
		{"invalid_transition", http.StatusUnprocessableEntity},
		{"promo_expired", http.StatusBadRequest},
		{"gateway_error", http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			status, body := respond(t, fmt.Errorf("wrapped: %w", ErrBusiness(tc.code)))
			assert.Equal(t, tc.status, status)
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestFromErrorInfrastructure(t *testing.T) {
	status, body := respond(t, gorm.ErrRecordNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body.Code)

	status, body = respond(t, &pgconn.PgError{Code: "23505"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_exists", body.Code)

	status, body = respond(t, fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"}))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "slot_unavailable", body.Code)

	status, body = respond(t, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", body.Code)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "slot_busy", CodeOf(fmt.Errorf("x: %w", ErrBusiness("slot_busy"))))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.True(t, IsBusiness(ErrBusiness("forbidden"), "forbidden"))
}
