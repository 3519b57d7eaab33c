package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
	"github.com/jstittsworth/fpl-recommender/internal/providers"
	"github.com/jstittsworth/fpl-recommender/internal/services"
	"github.com/jstittsworth/fpl-recommender/pkg/utils"
)

type SquadHandler struct {
	fplClient   *providers.FPLClient
	recommender *services.RecommenderService
}

func NewSquadHandler(fplClient *providers.FPLClient, recommender *services.RecommenderService) *SquadHandler {
	return &SquadHandler{
		fplClient:   fplClient,
		recommender: recommender,
	}
}

// GetSquad fetches the current 15-man squad for any public team id,
// enriching each pick with scored player data when a snapshot exists.
func (h *SquadHandler) GetSquad(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("teamID"))
	if err != nil || teamID <= 0 {
		utils.SendValidationError(c, "Invalid team ID", "team ID must be a positive integer")
		return
	}

	ctx := c.Request.Context()

	bootstrap, err := h.fplClient.GetBootstrap(ctx)
	if err != nil {
		utils.SendError(c, http.StatusBadGateway,
			utils.NewAppError(utils.ErrCodeSourceDown, "Official API is unavailable"))
		return
	}
	current, _ := bootstrap.CurrentGameweek()

	entry, err := h.fplClient.GetEntry(ctx, teamID)
	if err != nil {
		if errors.Is(err, fpl.ErrMalformedTeamReference) {
			utils.SendNotFound(c, "Team not found")
			return
		}
		utils.SendInternalError(c, "Failed to fetch team")
		return
	}

	picks, err := h.fplClient.GetPicks(ctx, teamID, current)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch squad picks")
		return
	}

	squad, err := h.fplClient.BuildSquad(entry, picks)
	if err != nil {
		utils.SendInternalError(c, "Failed to assemble squad")
		return
	}

	payload := gin.H{"squad": squad}
	if snapshot, _ := h.recommender.LatestSnapshot(); snapshot != nil {
		players := make([]*fpl.Player, 0, len(squad.PlayerIDs))
		for _, id := range squad.PlayerIDs {
			if p, ok := snapshot.Players[id]; ok {
				players = append(players, p)
			}
		}
		payload["players"] = players
	}

	utils.SendSuccess(c, payload)
}
