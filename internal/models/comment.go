package models

// CommentModel is a reader comment attached to a post.
type CommentModel struct {
	Base
	PostID  string `json:"postId"  gorm:"type:char(36);not null;index"`
	UserID  string `json:"userId"  gorm:"not null;index"`
	Content string `json:"content" gorm:"type:text;not null"`
}

func (CommentModel) TableName() string { return "comments" }
