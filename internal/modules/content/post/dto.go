package post

import "github.com/mx-space/engagement/internal/models"

// CreatePostDTO is the request body for creating a post. Required fields are
// checked by the service so the error kind stays ValidationFailed.
type CreatePostDTO struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// UpdatePostDTO is the request body for updating a post (all fields optional).
type UpdatePostDTO struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	Image    *string `json:"image"`
}

// ListQuery holds the getposts filters besides pagination.
type ListQuery struct {
	UserID     string `form:"userId"`
	Category   string `form:"category"`
	Slug       string `form:"slug"`
	PostID     string `form:"postId"`
	SearchTerm string `form:"searchTerm"`
	Sort       string `form:"sort"`
}

// listResponse is the getposts payload.
type listResponse struct {
	Posts               []models.PostModel `json:"posts"`
	TotalPosts          int64              `json:"totalPosts"`
	LastMonthPosts      int64              `json:"lastMonthPosts"`
	TotalLikes          int64              `json:"totalLikes"`
	TotalLikesLastMonth int64              `json:"totalLikesLastMonth"`
}
