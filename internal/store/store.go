// Package store defines the storage collaborator shared by the engagement
// tracker, the statistics aggregator and the content services.
package store

import (
	"context"
	"time"

	"github.com/mx-space/engagement/internal/models"
)

// SortDirection orders post listings by last update.
type SortDirection int

const (
	SortDesc SortDirection = -1
	SortAsc  SortDirection = 1
)

// PostFilter selects posts for listing. Zero values mean "no constraint".
type PostFilter struct {
	UserID     string
	Category   string
	Slug       string
	PostID     string
	SearchTerm string
	StartIndex int
	Limit      int
	Sort       SortDirection
}

// PostUpdate carries the editable post fields; nil means unchanged.
type PostUpdate struct {
	Title    *string
	Content  *string
	Category *string
	Image    *string
	Slug     *string
}

// Posts is the post half of the storage collaborator.
type Posts interface {
	CreatePost(ctx context.Context, post *models.PostModel) error
	GetPost(ctx context.Context, id string) (*models.PostModel, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.PostModel, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]models.PostModel, error)
	// UpdatePost persists post only if the stored version still equals
	// post.Version, then bumps post.Version. A stale version yields
	// apperr.ErrConflict, a missing post apperr.ErrNotFound.
	UpdatePost(ctx context.Context, post *models.PostModel) error
	// DeletePost removes the post and every comment attached to it.
	DeletePost(ctx context.Context, id string) error
}

// Comments is the comment half of the storage collaborator.
type Comments interface {
	// CreateComment inserts the comment and appends its id to the post's
	// comment references.
	CreateComment(ctx context.Context, comment *models.CommentModel) error
	GetComment(ctx context.Context, id string) (*models.CommentModel, error)
	// DeleteComment removes the comment and its reference on the post.
	DeleteComment(ctx context.Context, id string) error
}

// Counters answers the aggregate questions of the dashboard. since == nil
// means "all time".
type Counters interface {
	CountPosts(ctx context.Context, since *time.Time) (int64, error)
	SumLikes(ctx context.Context, since *time.Time) (int64, error)
	CountComments(ctx context.Context, since *time.Time) (int64, error)
	// PostSamples returns one sample per post with from <= createdAt <= to.
	PostSamples(ctx context.Context, from, to time.Time) ([]models.PostSample, error)
}

// Store is the full collaborator a backend provides.
type Store interface {
	Posts
	Comments
	Counters
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
