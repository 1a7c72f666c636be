package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/commhub/reputation/config"
	"github.com/commhub/reputation/reputation"
	"github.com/commhub/reputation/utils"
)

// ReputationController exposes the engine's read surface: dashboards,
// leaderboard, badge progress, and badge statistics.
type ReputationController struct {
	gamify *reputation.Orchestrator
}

// NewReputationController creates a new controller instance.
func NewReputationController(gamify *reputation.Orchestrator) *ReputationController {
	return &ReputationController{gamify: gamify}
}

// Dashboard returns the authenticated user's reputation overview.
func (r *ReputationController) Dashboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	dashboard, err := r.gamify.BuildDashboard(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to build dashboard")
		return
	}
	utils.Success(ctx, gin.H{"dashboard": dashboard})
}

// Leaderboard returns the top users by total points. Responses are cached in
// Redis for a short TTL and invalidated when awards land.
func (r *ReputationController) Leaderboard(ctx *gin.Context) {
	cfg := config.Get()
	limit := cfg.LeaderboardDefaultTop
	if raw := ctx.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	cacheKey := fmt.Sprintf("cache:reputation:leaderboard:top=%d", limit)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	entries, err := r.gamify.TopUsers(limit)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load leaderboard")
		return
	}

	body := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"leaderboard": entries}}
	ctx.JSON(200, body)
	utils.CacheSetJSON(cacheKey, body, time.Duration(cfg.LeaderboardCacheSecs)*time.Second)
}

// BadgeProgress lists the authenticated user's closest unearned badges.
func (r *ReputationController) BadgeProgress(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	limit := 5
	if raw := ctx.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	progress, err := r.gamify.BadgeProgressFor(userID, limit)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to compute badge progress")
		return
	}
	utils.Success(ctx, gin.H{"progress": progress})
}

// BadgeStatistics summarizes badge awarding across the whole community.
func (r *ReputationController) BadgeStatistics(ctx *gin.Context) {
	cacheKey := "cache:reputation:badges:stats"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	stats, err := r.gamify.BadgeStats()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load badge statistics")
		return
	}

	body := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"statistics": stats}}
	ctx.JSON(200, body)
	utils.CacheSetJSON(cacheKey, body, time.Minute)
}

// UserReputation returns a public reputation snapshot for any user.
func (r *ReputationController) UserReputation(ctx *gin.Context) {
	userID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || userID <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid user id")
		return
	}

	rep, position, err := r.gamify.SnapshotOf(uint(userID))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to load reputation")
		return
	}
	if rep == nil {
		utils.Error(ctx, http.StatusNotFound, 40440, "no reputation recorded for user")
		return
	}
	utils.Success(ctx, gin.H{
		"reputation":    rep,
		"position":      position,
		"rank_progress": reputation.NextRankProgress(rep.TotalPoints),
	})
}
