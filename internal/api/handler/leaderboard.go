package handler

import (
	"net/http"
	"strconv"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/response"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/leaderboard"
)

// MaxPageSize bounds the per_page query parameter
const MaxPageSize = 100

// LeaderboardHandler handles the leaderboard endpoint
type LeaderboardHandler struct {
	leaderboard     *leaderboard.Service
	defaultPageSize int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service *leaderboard.Service, defaultPageSize int) *LeaderboardHandler {
	if defaultPageSize < 1 {
		defaultPageSize = 10
	}
	return &LeaderboardHandler{
		leaderboard:     service,
		defaultPageSize: min(defaultPageSize, MaxPageSize),
	}
}

// Get handles GET /api/v1/leaderboard
//
// Unknown sort keys and directions, and non-numeric or out-of-range paging
// values, fall back to defaults instead of failing.
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sort, ok := model.ParseSortKey(q.Get("sort"))
	if !ok {
		sort = model.SortByExperiencePoints
	}
	dir, ok := model.ParseSortDirection(q.Get("dir"))
	if !ok {
		dir = model.SortDesc
	}

	page := intParam(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	perPage := intParam(q.Get("per_page"), h.defaultPageSize)
	perPage = max(1, min(perPage, MaxPageSize))

	result, err := h.leaderboard.Rank(r.Context(), leaderboard.Query{
		Page:     page,
		PageSize: perPage,
		Search:   q.Get("search"),
		Sort:     sort,
		Dir:      dir,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromPage(result))
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
