package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/field-booking/internal/domain/field"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/httpresp"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	fielduc "github.com/BruksfildServices01/field-booking/internal/usecase/field"
)

// FieldHandler atende a busca pública de terrenos.
type FieldHandler struct {
	repo   field.Repository
	search *fielduc.SearchFields
	slots  *fielduc.ListFieldSlots
}

func NewFieldHandler(
	repo field.Repository,
	search *fielduc.SearchFields,
	slots *fielduc.ListFieldSlots,
) *FieldHandler {
	return &FieldHandler{repo: repo, search: search, slots: slots}
}

func optionalFloat(c *gin.Context, key string) (*float64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// GET /api/fields?city=&sport=&date=&max_price=&lat=&lng=&radius_km=&limit=
func (h *FieldHandler) Search(c *gin.Context) {
	lat, ok1 := optionalFloat(c, "lat")
	lng, ok2 := optionalFloat(c, "lng")
	radius, ok3 := optionalFloat(c, "radius_km")
	if !ok1 || !ok2 || !ok3 {
		httperr.BadRequest(c, "invalid_request", httperr.MessageFor("invalid_request"))
		return
	}

	f := field.SearchFilter{
		City:  c.Query("city"),
		Sport: c.Query("sport"),
		Lat:   lat,
		Lng:   lng,
	}
	if radius != nil {
		f.RadiusKm = *radius
	}
	if v := c.Query("max_price"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_request", httperr.MessageFor("invalid_request"))
			return
		}
		f.MaxPrice = p
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))

	res, err := h.search.Execute(c.Request.Context(), fielduc.SearchInput{
		Filter:   f,
		Date:     c.Query("date"),
		ViewerID: middleware.UserID(c),
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, res)
}

func (h *FieldHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	f, err := h.repo.GetField(c.Request.Context(), id)
	if err != nil || !f.IsBookable() {
		httperr.FromError(c, httperr.ErrBusiness("field_not_found"))
		return
	}

	schedules, err := h.repo.ListSchedules(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	f.Schedules = schedules

	c.JSON(http.StatusOK, f)
}

// GET /api/fields/:id/slots?date=YYYY-MM-DD
func (h *FieldHandler) Slots(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.FromError(c, httperr.ErrBusiness("invalid_date"))
		return
	}

	slots, err := h.slots.Execute(c.Request.Context(), id, date, middleware.UserID(c))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, slots)
}
