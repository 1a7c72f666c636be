package main

import (
	"github.com/commhub/reputation/config"
	"github.com/commhub/reputation/models"
	"github.com/commhub/reputation/reputation"
	"github.com/commhub/reputation/routes"
	"github.com/commhub/reputation/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Thread{},
		&models.Post{},
		&models.PostVote{},
		&models.UserReputation{},
		&models.ReputationEvent{},
		&models.BadgeDefinition{},
		&models.UserBadgeAward{},
	)

	gamify := reputation.NewOrchestrator(db, reputation.PointValues{
		PostCreated:    cfg.PointsPostCreated,
		ThreadCreated:  cfg.PointsThreadCreated,
		VoteReceived:   cfg.PointsVoteReceived,
		SolutionMarked: cfg.PointsSolutionMarked,
		DailyActivity:  cfg.PointsDailyActivity,
	}, utils.Sugar)

	if err := gamify.SeedDefaultBadges(); err != nil {
		utils.Sugar.Warnf("default badge seeding failed: %v", err)
	}

	r := routes.SetupRouter(db, gamify)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
