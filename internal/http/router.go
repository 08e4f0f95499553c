// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"charter/internal/http/handlers"
	"charter/internal/http/middleware"
	"charter/internal/modules/booking"
)

func NewRouter(
	bookingService *booking.Service,
	snapshots booking.SnapshotSource,
	apiKey string,
	log *zap.Logger,
) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(log), middleware.Recovery(log))

	sessionHandler := handlers.NewSessionHandler(bookingService)
	quoteHandler := handlers.NewQuoteHandler(snapshots)

	api := r.Group("/api")
	api.Use(middleware.Auth(apiKey))
	api.POST("/sessions", sessionHandler.Create)
	api.GET("/sessions/:id", sessionHandler.Get)
	api.PATCH("/sessions/:id", sessionHandler.Update)
	api.POST("/sessions/:id/stops", sessionHandler.AddStop)
	api.DELETE("/sessions/:id/stops/:leg/:index", sessionHandler.RemoveStop)
	api.POST("/sessions/:id/save", sessionHandler.Save)
	api.DELETE("/sessions/:id", sessionHandler.Cancel)

	api.GET("/quote", quoteHandler.Quote)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
