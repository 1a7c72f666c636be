package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/commhub/reputation/reputation"
	"github.com/commhub/reputation/utils"
)

// AdminController hosts the maintenance surface of the gamification engine.
// Unlike the trigger paths these endpoints surface errors: they are explicit
// administrative actions with no primary action to protect.
type AdminController struct {
	gamify *reputation.Orchestrator
}

// NewAdminController creates a new controller instance.
func NewAdminController(gamify *reputation.Orchestrator) *AdminController {
	return &AdminController{gamify: gamify}
}

// Recalculate rebuilds one user's reputation from raw forum activity,
// repairing any drift between the aggregate and the event history.
func (a *AdminController) Recalculate(ctx *gin.Context) {
	userID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || userID <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}

	rep, err := a.gamify.Recalculate(uint(userID))
	if err != nil {
		utils.Sugar.Errorw("recalculation failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50050, "recalculation failed")
		return
	}

	utils.InvalidateByPrefix("cache:reputation:")
	utils.Success(ctx, gin.H{"reputation": rep})
}

// SeedBadges installs the default badge definitions; already-present slugs
// are left untouched.
func (a *AdminController) SeedBadges(ctx *gin.Context) {
	if err := a.gamify.SeedDefaultBadges(); err != nil {
		utils.Sugar.Errorw("badge seeding failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "badge seeding failed")
		return
	}
	utils.Success(ctx, gin.H{"message": "default badges seeded"})
}
