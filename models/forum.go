package models

import "time"

// Thread is a discussion topic. SolutionPostID marks the accepted answer, if any.
type Thread struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	User           User      `json:"user,omitempty"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Content        string    `gorm:"type:text" json:"content"`
	SolutionPostID *uint     `gorm:"index" json:"solution_post_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Post is a reply inside a thread.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"index;not null" json:"thread_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      User      `json:"user,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostVote records a single user's vote on a post. The composite unique index
// keeps one vote per voter per post; a second vote on the same post is
// rejected, not updated.
type PostVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"uniqueIndex:idx_post_voter;not null" json:"post_id"`
	VoterID   uint      `gorm:"uniqueIndex:idx_post_voter;not null" json:"voter_id"`
	IsUpvote  bool      `json:"is_upvote"`
	CreatedAt time.Time `json:"created_at"`
}
