package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/fpl-recommender/internal/services"
)

type HealthHandler struct {
	refresher *services.RefresherService
	hub       *services.Hub
}

func NewHealthHandler(refresher *services.RefresherService, hub *services.Hub) *HealthHandler {
	return &HealthHandler{
		refresher: refresher,
		hub:       hub,
	}
}

// GetHealth reports liveness plus refresher and websocket state.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	payload := gin.H{
		"status":  "ok",
		"service": "fpl-recommender",
		"time":    time.Now().UTC(),
	}
	if h.refresher != nil {
		payload["refresher"] = h.refresher.Status()
	}
	if h.hub != nil {
		payload["ws_clients"] = h.hub.ClientCount()
	}
	c.JSON(http.StatusOK, payload)
}
