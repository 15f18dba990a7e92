package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meenakshiar/looplist/internal/service"
)

// SweepAuthMiddleware guards the cron endpoint with a shared key passed
// as X-API-Key. An empty key leaves the endpoint open, for development.
func SweepAuthMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader("X-API-Key")), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// PostSweep triggers the missed-day backfill. Exposed for external cron
// schedulers; the server also runs the same job on an internal ticker.
func PostSweep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := service.SweepMissed(c.Request.Context(), app.LoopRepo(), app.CheckInRepo(), app.Logger(), time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Sweep failed")
			return
		}
		HandleSuccess(c, app.Logger(), report, nil)
	}
}
