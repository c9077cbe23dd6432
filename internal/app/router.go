// internal/app/router.go
package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	healthHandler "crmsync-service/internal/handlers/health"
	sfHandler "crmsync-service/internal/handlers/salesforce"
	wsHandler "crmsync-service/internal/handlers/websocket"
	"crmsync-service/internal/middleware"
)

type Handlers struct {
	HealthHandler     *healthHandler.HealthHandler
	SalesforceHandler *sfHandler.SalesforceHandler
	WSHandler         *wsHandler.WebSocketHandler
	AuthMiddleware    *middleware.AuthMiddleware
	Metrics           http.Handler
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health & Metrics ====================
	api.GET("/health", h.HealthHandler.Health)
	r.GET("/metrics", gin.WrapH(h.Metrics))

	// ==================== WebSocket ====================
	r.GET("/ws/sync", h.WSHandler.HandleConnection)

	// ==================== Salesforce Sync ====================
	sync := api.Group("/salesforce")
	sync.Use(h.AuthMiddleware.SyncOperator()...)
	{
		sync.POST("/contacts/:customer_id/upsert", h.SalesforceHandler.UpsertContact)
		sync.POST("/orders/:order_id/sync", h.SalesforceHandler.SyncOrder)
		sync.GET("/token/status", h.SalesforceHandler.TokenStatus)
		sync.GET("/sync-log", h.SalesforceHandler.ListSyncLog)
		sync.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
