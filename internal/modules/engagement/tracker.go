// Package engagement owns the view-dedup, like-toggle and visibility state
// transitions on a single post.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/store"
	"go.uber.org/zap"
)

const defaultMaxAttempts = 8

// LikeState is the outcome of a like toggle.
type LikeState struct {
	LikeCount int  `json:"likeCount"`
	Liked     bool `json:"likedByCaller"`
}

// Tracker applies engagement mutations as optimistic read-modify-write
// cycles against the post store.
type Tracker struct {
	posts       store.Posts
	log         *zap.Logger
	maxAttempts int
	now         func() time.Time
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithMaxAttempts bounds how often a mutation is replayed after losing a
// version race.
func WithMaxAttempts(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxAttempts = n
		}
	}
}

// WithClock overrides the time source used for updatedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTracker(posts store.Posts, log *zap.Logger, opts ...Option) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{
		posts:       posts,
		log:         log.Named("EngagementTracker"),
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordView counts identity as a viewer of the post with the given slug,
// at most once per identity. An unknown slug yields an empty result.
func (t *Tracker) RecordView(ctx context.Context, slug, identity string) ([]models.PostModel, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, apperr.Validation("client identity is required")
	}
	if slug == "" {
		return []models.PostModel{}, nil
	}

	var result *models.PostModel
	err := t.mutate(ctx, func(ctx context.Context) (*models.PostModel, error) {
		return t.posts.GetPostBySlug(ctx, slug)
	}, func(p *models.PostModel) bool {
		if p.Viewers.Has(identity) {
			result = p
			return false
		}
		p.Viewers.Add(identity)
		p.ViewCount++
		result = p
		return true
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return []models.PostModel{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []models.PostModel{*result}, nil
}

// ToggleLike adds userID to the likers of the post or removes it, keeping
// the like count equal to the number of likers.
func (t *Tracker) ToggleLike(ctx context.Context, postID, userID string) (LikeState, error) {
	if userID == "" {
		return LikeState{}, apperr.Validation("user id is required")
	}

	var state LikeState
	err := t.mutate(ctx, t.byID(postID), func(p *models.PostModel) bool {
		if p.LikedBy.Has(userID) {
			p.LikedBy.Remove(userID)
		} else {
			p.LikedBy.Add(userID)
		}
		p.LikeCount = p.LikedBy.Len()
		state = LikeState{LikeCount: p.LikeCount, Liked: p.LikedBy.Has(userID)}
		return true
	})
	if err != nil {
		return LikeState{}, err
	}
	return state, nil
}

// LikeStatus reports whether userID currently likes the post.
func (t *Tracker) LikeStatus(ctx context.Context, postID, userID string) (bool, error) {
	if userID == "" {
		return false, apperr.Validation("user id is required")
	}
	p, err := t.posts.GetPost(ctx, postID)
	if err != nil {
		return false, apperr.Storage(err)
	}
	return p.LikedBy.Has(userID), nil
}

// ToggleVisibility flips the hidden flag. Callers enforce the admin gate.
func (t *Tracker) ToggleVisibility(ctx context.Context, postID string) (bool, error) {
	var hidden bool
	err := t.mutate(ctx, t.byID(postID), func(p *models.PostModel) bool {
		p.Hidden = !p.Hidden
		hidden = p.Hidden
		return true
	})
	if err != nil {
		return false, err
	}
	return hidden, nil
}

func (t *Tracker) byID(id string) func(context.Context) (*models.PostModel, error) {
	return func(ctx context.Context) (*models.PostModel, error) {
		return t.posts.GetPost(ctx, id)
	}
}

// mutate loads a post, applies fn to a copy and persists it conditionally on
// the version that was read. fn returns false when nothing needs writing.
// Lost races are replayed on a fresh read.
func (t *Tracker) mutate(
	ctx context.Context,
	load func(context.Context) (*models.PostModel, error),
	fn func(*models.PostModel) bool,
) error {
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return apperr.Storage(err)
		}

		current, err := load(ctx)
		if err != nil {
			return apperr.Storage(err)
		}

		next := current.Clone()
		if !fn(next) {
			return nil
		}
		next.Touch(t.now())

		err = t.posts.UpdatePost(ctx, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return apperr.Storage(err)
		}
		t.log.Debug("post version conflict, retrying",
			zap.String("post", current.ID),
			zap.Int("attempt", attempt),
		)
	}
	return apperr.Unavailable(fmt.Sprintf("post update lost %d consecutive version races", t.maxAttempts))
}
