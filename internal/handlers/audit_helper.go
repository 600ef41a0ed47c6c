package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/field-booking/internal/audit"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
)

func writeAudit(
	rec audit.Recorder,
	c *gin.Context,
	action string,
	entity string,
	entityID uint,
	meta any,
) {

	if rec == nil {
		return
	}

	var actor *uint
	if id := middleware.UserID(c); id != 0 {
		actor = &id
	}

	rec.Dispatch(audit.Event{
		ActorID:  actor,
		Action:   action,
		Entity:   entity,
		EntityID: &entityID,
		Metadata: meta,
	})
}
