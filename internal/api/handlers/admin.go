package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
	"github.com/jstittsworth/fpl-recommender/internal/services"
	"github.com/jstittsworth/fpl-recommender/pkg/utils"
)

type AdminHandler struct {
	refresher *services.RefresherService
}

func NewAdminHandler(refresher *services.RefresherService) *AdminHandler {
	return &AdminHandler{refresher: refresher}
}

// TriggerRefresh runs the full pipeline immediately and returns the result.
func (h *AdminHandler) TriggerRefresh(c *gin.Context) {
	result, err := h.refresher.RunNow(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, fpl.ErrMalformedTeamReference):
			utils.SendError(c, http.StatusBadRequest,
				utils.NewAppError(utils.ErrCodeMalformedTeam, "Configured team could not be loaded", err.Error()))
		case errors.Is(err, fpl.ErrNoPlayerPool):
			utils.SendError(c, http.StatusBadGateway,
				utils.NewAppError(utils.ErrCodeNoPlayerPool, "Official player pool is unavailable", err.Error()))
		default:
			utils.SendInternalError(c, "Refresh failed")
		}
		return
	}
	utils.SendSuccess(c, result)
}
