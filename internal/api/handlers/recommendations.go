package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jstittsworth/fpl-recommender/internal/services"
	"github.com/jstittsworth/fpl-recommender/pkg/utils"
)

type RecommendationHandler struct {
	recommender *services.RecommenderService
	teamID      int
}

func NewRecommendationHandler(recommender *services.RecommenderService, teamID int) *RecommendationHandler {
	return &RecommendationHandler{
		recommender: recommender,
		teamID:      teamID,
	}
}

// GetTransfers returns the transfer suggestions from the latest run.
func (h *RecommendationHandler) GetTransfers(c *gin.Context) {
	result := h.recommender.LatestResult()
	if result == nil {
		h.sendNoRun(c)
		return
	}

	utils.SendSuccess(c, gin.H{
		"run_id":       result.RunID,
		"gameweek":     result.Gameweek,
		"transfers":    result.Transfers,
		"sources":      result.Sources,
		"generated_at": result.GeneratedAt,
	})
}

// GetCaptains returns the ranked armband candidates from the latest run.
func (h *RecommendationHandler) GetCaptains(c *gin.Context) {
	result := h.recommender.LatestResult()
	if result == nil {
		h.sendNoRun(c)
		return
	}

	utils.SendSuccess(c, gin.H{
		"run_id":          result.RunID,
		"gameweek":        result.Gameweek,
		"captains":        result.Captains,
		"vice":            result.Vice,
		"sources":         result.Sources,
		"scout_formation": result.ScoutFormation,
		"generated_at":    result.GeneratedAt,
	})
}

// ListRuns returns persisted run history, newest first.
func (h *RecommendationHandler) ListRuns(c *gin.Context) {
	teamID := h.teamID
	if v := c.Query("team_id"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			utils.SendValidationError(c, "Invalid team_id", err.Error())
			return
		}
		teamID = parsed
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.recommender.History(teamID, limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to load run history")
		return
	}
	utils.SendSuccess(c, runs)
}

// GetRun returns one persisted run by id.
func (h *RecommendationHandler) GetRun(c *gin.Context) {
	run, err := h.recommender.GetRun(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "Run not found")
			return
		}
		utils.SendInternalError(c, "Failed to load run")
		return
	}
	if run == nil {
		utils.SendNotFound(c, "Run history is not enabled")
		return
	}
	utils.SendSuccess(c, run)
}

func (h *RecommendationHandler) sendNoRun(c *gin.Context) {
	utils.SendError(c, http.StatusServiceUnavailable,
		utils.NewAppError(utils.ErrCodeNoPlayerPool, "No recommendation run has completed yet"))
}
