package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/service"
	"github.com/meenakshiar/looplist/internal/storage"
)

func PostLoop(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req service.LoopRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid request: title, frequency and start_date required")
			return
		}

		if err := service.ValidateLoopRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Loop validation failed")
			return
		}

		loop, err := service.CreateLoop(c.Request.Context(), app.LoopRepo(), user, &req)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicateTitle) {
				HandleError(c, app.Logger(), err, 409, "A loop with this title already exists")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to create loop")
			return
		}

		HandleCreated(c, app.Logger(), loop, nil)
	}
}

func GetLoops(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		loops, err := service.ListLoops(c.Request.Context(), app.LoopRepo(), user)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch loops")
			return
		}

		HandleSuccess(c, app.Logger(), loops, nil)
	}
}

func GetLoop(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		loop, err := service.GetLoop(c.Request.Context(), app.LoopRepo(), user, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrLoopNotFound) {
				HandleError(c, app.Logger(), err, 404, "Loop not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to fetch loop")
			return
		}

		HandleSuccess(c, app.Logger(), loop, nil)
	}
}

func DeleteLoop(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		err := service.DeleteLoop(c.Request.Context(), app.LoopRepo(), app.CheckInRepo(), user, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrLoopNotFound) {
				HandleError(c, app.Logger(), err, 404, "Loop not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to delete loop")
			return
		}

		HandleSuccess(c, app.Logger(), nil, map[string]any{"deleted": true})
	}
}
