package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/commhub/reputation/config"
	"github.com/commhub/reputation/controllers"
	"github.com/commhub/reputation/middleware"
	"github.com/commhub/reputation/reputation"
	"github.com/commhub/reputation/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, gamify *reputation.Orchestrator) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.AccessLog())
	r.Use(middleware.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	forumController := controllers.NewForumController(db, gamify)
	reputationController := controllers.NewReputationController(gamify)
	adminController := controllers.NewAdminController(gamify)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public read surface
	api.GET("/reputation/leaderboard", reputationController.Leaderboard)
	api.GET("/reputation/badges/stats", reputationController.BadgeStatistics)
	api.GET("/reputation/users/:id", reputationController.UserReputation)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/threads", forumController.CreateThread)
	protected.POST("/threads/:id/posts", forumController.CreatePost)
	protected.POST("/posts/:id/vote", forumController.VotePost)
	protected.POST("/posts/:id/solution", forumController.MarkSolution)
	protected.POST("/activity/daily", forumController.DailyActivity)
	protected.GET("/reputation/me/dashboard", reputationController.Dashboard)
	protected.GET("/reputation/me/badges/progress", reputationController.BadgeProgress)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.POST("/reputation/:id/recalculate", adminController.Recalculate)
	admin.POST("/badges/seed", adminController.SeedBadges)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
