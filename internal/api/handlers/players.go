package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
	"github.com/jstittsworth/fpl-recommender/internal/services"
	"github.com/jstittsworth/fpl-recommender/pkg/utils"
)

type PlayerHandler struct {
	recommender *services.RecommenderService
}

func NewPlayerHandler(recommender *services.RecommenderService) *PlayerHandler {
	return &PlayerHandler{recommender: recommender}
}

// GetPlayers returns the scored pool from the latest snapshot with optional
// position, team, price and name filters.
func (h *PlayerHandler) GetPlayers(c *gin.Context) {
	snapshot, _ := h.recommender.LatestSnapshot()
	if snapshot == nil {
		h.sendNoSnapshot(c)
		return
	}

	position := strings.ToUpper(c.Query("position"))
	team := strings.ToUpper(c.Query("team"))
	search := strings.ToLower(c.Query("search"))
	minPrice, _ := strconv.ParseFloat(c.DefaultQuery("minPrice", "0"), 64)
	maxPrice, _ := strconv.ParseFloat(c.DefaultQuery("maxPrice", "999"), 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 1000 {
		limit = 50
	}

	players := make([]*fpl.Player, 0, len(snapshot.Players))
	for _, id := range snapshot.SortedPlayerIDs() {
		p := snapshot.Players[id]
		if position != "" && string(p.Position) != position {
			continue
		}
		if team != "" && !strings.EqualFold(p.Team, team) {
			continue
		}
		if p.Price < minPrice || p.Price > maxPrice {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.WebName), search) {
			continue
		}
		players = append(players, p)
	}

	sort.Slice(players, func(i, j int) bool {
		if players[i].CompositeScore != players[j].CompositeScore {
			return players[i].CompositeScore > players[j].CompositeScore
		}
		return players[i].ID < players[j].ID
	})
	if len(players) > limit {
		players = players[:limit]
	}

	utils.SendSuccessWithMeta(c, players, &utils.Meta{
		Total: int64(len(players)),
	})
}

// GetPlayer returns one scored player by element id.
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	snapshot, _ := h.recommender.LatestSnapshot()
	if snapshot == nil {
		h.sendNoSnapshot(c)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid player ID", err.Error())
		return
	}

	player, ok := snapshot.Players[id]
	if !ok {
		utils.SendNotFound(c, "Player not found")
		return
	}
	utils.SendSuccess(c, player)
}

// GetFixtureRankings returns teams ordered by upcoming fixture ease for one
// position, easiest first.
func (h *PlayerHandler) GetFixtureRankings(c *gin.Context) {
	position := fpl.Position(strings.ToUpper(c.DefaultQuery("position", string(fpl.PositionMID))))
	switch position {
	case fpl.PositionGK, fpl.PositionDEF, fpl.PositionMID, fpl.PositionFWD:
	default:
		utils.SendValidationError(c, "Invalid position", "position must be one of GK, DEF, MID, FWD")
		return
	}

	rankings, ok := h.recommender.FixtureRankings(position)
	if !ok {
		h.sendNoSnapshot(c)
		return
	}

	utils.SendSuccess(c, gin.H{
		"position": position,
		"rankings": rankings,
	})
}

func (h *PlayerHandler) sendNoSnapshot(c *gin.Context) {
	utils.SendError(c, http.StatusServiceUnavailable,
		utils.NewAppError(utils.ErrCodeNoPlayerPool, "No data snapshot is available yet"))
}
