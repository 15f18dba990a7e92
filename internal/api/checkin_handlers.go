package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/schedule"
	"github.com/meenakshiar/looplist/internal/service"
	"github.com/meenakshiar/looplist/internal/storage"
)

type CheckInRequest struct {
	// Optional; defaults to the current UTC day.
	Date string `json:"date,omitempty"`
}

func PostCheckIn(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		// An empty body is fine; a present but unparseable one is not.
		var req CheckInRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid JSON")
				return
			}
		}

		now := time.Now()
		day := schedule.Normalize(now)
		if req.Date != "" {
			parsed, err := schedule.ParseDay(req.Date)
			if err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid date")
				return
			}
			day = parsed
		}

		result, err := service.RecordCompletion(c.Request.Context(), app.LoopRepo(), app.CheckInRepo(), user, c.Param("id"), day, now)
		if err != nil {
			if errors.Is(err, storage.ErrLoopNotFound) {
				HandleError(c, app.Logger(), err, 404, "Loop not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to check in")
			return
		}

		HandleSuccess(c, app.Logger(), result, nil)
	}
}

func GetCheckIns(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		checkIns, err := service.ListCheckIns(c.Request.Context(), app.LoopRepo(), app.CheckInRepo(), user, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrLoopNotFound) {
				HandleError(c, app.Logger(), err, 404, "Loop not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to fetch check-ins")
			return
		}

		HandleSuccess(c, app.Logger(), checkIns, nil)
	}
}

func DeleteCheckIn(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		day, err := schedule.ParseDay(c.Param("date"))
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid date")
			return
		}

		result, err := service.RetractCompletion(c.Request.Context(), app.LoopRepo(), app.CheckInRepo(), user, c.Param("id"), day, time.Now())
		if err != nil {
			if errors.Is(err, storage.ErrLoopNotFound) {
				HandleError(c, app.Logger(), err, 404, "Loop not found")
				return
			}
			if errors.Is(err, storage.ErrCheckInNotFound) {
				HandleError(c, app.Logger(), err, 404, "No check-in for that date")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to delete check-in")
			return
		}

		HandleSuccess(c, app.Logger(), result, nil)
	}
}

func GetLoopStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		stats, err := service.GetLoopStats(c.Request.Context(), app.LoopRepo(), app.CheckInRepo(), user, c.Param("id"), time.Now())
		if err != nil {
			if errors.Is(err, storage.ErrLoopNotFound) {
				HandleError(c, app.Logger(), err, 404, "Loop not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to get loop statistics")
			return
		}

		HandleSuccess(c, app.Logger(), stats, nil)
	}
}
