package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/commhub/reputation/models"
	"github.com/commhub/reputation/reputation"
	"github.com/commhub/reputation/utils"
)

// ForumController owns the thread/post/vote/solution write paths. Each write
// commits on its own and then hands the trigger to the gamification
// orchestrator: a gamification failure never fails the forum action.
type ForumController struct {
	db     *gorm.DB
	gamify *reputation.Orchestrator
}

// NewForumController creates a new controller instance.
func NewForumController(db *gorm.DB, gamify *reputation.Orchestrator) *ForumController {
	return &ForumController{db: db, gamify: gamify}
}

// CreateThread opens a new discussion thread.
func (f *ForumController) CreateThread(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,min=1"`
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	thread := models.Thread{
		UserID:  userID,
		Title:   title,
		Content: utils.Sanitize(req.Content),
	}
	if err := f.db.Create(&thread).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create thread")
		return
	}

	result := f.gamify.OnThreadCreated(userID, thread.ID)
	f.invalidateReputationCaches(userID)

	utils.Success(ctx, gin.H{"thread": thread, "gamification": result})
}

// CreatePost adds a reply to a thread.
func (f *ForumController) CreatePost(ctx *gin.Context) {
	threadID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || threadID <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid thread id")
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var thread models.Thread
	if err := f.db.First(&thread, threadID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "thread not found")
		return
	}

	post := models.Post{
		ThreadID: thread.ID,
		UserID:   userID,
		Content:  utils.Sanitize(req.Content),
	}
	if err := f.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create post")
		return
	}

	result := f.gamify.OnPostCreated(userID, post.ID)
	f.invalidateReputationCaches(userID)

	utils.Success(ctx, gin.H{"post": post, "gamification": result})
}

// VotePost records an up/down vote on a post. Only upvotes award points, and
// voting on one's own post never does.
func (f *ForumController) VotePost(ctx *gin.Context) {
	postID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || postID <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid post id")
		return
	}

	var req struct {
		Up *bool `json:"up" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	voterID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var post models.Post
	if err := f.db.First(&post, postID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40421, "post not found")
		return
	}
	if post.UserID == voterID {
		utils.Error(ctx, http.StatusBadRequest, 40024, "cannot vote on your own post")
		return
	}

	vote := models.PostVote{PostID: post.ID, VoterID: voterID, IsUpvote: *req.Up}
	if err := f.db.Create(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40920, "already voted on this post")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to record vote")
		return
	}

	result := f.gamify.OnVoteReceived(post.UserID, voterID, *req.Up)
	f.invalidateReputationCaches(post.UserID)

	utils.Success(ctx, gin.H{"vote": vote, "gamification": result})
}

// MarkSolution lets the thread author accept a post as the solution. A thread
// has at most one solution; re-marking is rejected.
func (f *ForumController) MarkSolution(ctx *gin.Context) {
	postID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || postID <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid post id")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var post models.Post
	if err := f.db.First(&post, postID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40421, "post not found")
		return
	}
	var thread models.Thread
	if err := f.db.First(&thread, post.ThreadID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "thread not found")
		return
	}
	if thread.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40320, "only the thread author can accept a solution")
		return
	}
	if thread.SolutionPostID != nil {
		utils.Error(ctx, http.StatusConflict, 40921, "thread already has a solution")
		return
	}

	if err := f.db.Model(&thread).Update("solution_post_id", post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to mark solution")
		return
	}

	result := f.gamify.OnSolutionMarked(post.UserID, post.ID)
	f.invalidateReputationCaches(post.UserID)

	utils.Success(ctx, gin.H{"thread_id": thread.ID, "solution_post_id": post.ID, "gamification": result})
}

// DailyActivity records the authenticated user's daily sign-in.
func (f *ForumController) DailyActivity(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	result := f.gamify.OnDailyActivity(userID)
	if !result.Skipped && !result.Failed {
		f.invalidateReputationCaches(userID)
	}
	utils.Success(ctx, gin.H{"gamification": result})
}

func (f *ForumController) invalidateReputationCaches(userID uint) {
	utils.InvalidateByPrefix("cache:reputation:leaderboard:")
	utils.InvalidateByPrefix("cache:reputation:badges:stats")
	utils.InvalidateByPrefix("cache:reputation:user:" + strconv.Itoa(int(userID)) + ":")
}
