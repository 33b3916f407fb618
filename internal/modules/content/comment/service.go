package comment

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/modules/stats/aggregate"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/store"
)

type commentStore interface {
	store.Comments
	CountComments(ctx context.Context, since *time.Time) (int64, error)
}

// Service handles comment lifecycle logic.
type Service struct {
	store commentStore
	loc   *time.Location
	now   func() time.Time
}

// NewService builds the service; loc is the timezone the trailing-month
// window is computed in and defaults to UTC.
func NewService(s commentStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: s, loc: loc, now: time.Now}
}

// Create attaches a new comment by userID to the referenced post.
func (s *Service) Create(ctx context.Context, userID string, dto CreateCommentDTO) (*models.CommentModel, error) {
	content := strings.TrimSpace(dto.Content)
	switch {
	case userID == "":
		return nil, apperr.Validation("user id is required")
	case dto.PostID == "":
		return nil, apperr.Validation("postId is required")
	case content == "":
		return nil, apperr.Validation("content is required")
	case utf8.RuneCountInString(content) > maxCommentLength:
		return nil, apperr.Validation(fmt.Sprintf("content must be at most %d characters", maxCommentLength))
	}

	now := s.now()
	cm := &models.CommentModel{
		PostID:  dto.PostID,
		UserID:  userID,
		Content: content,
	}
	cm.CreatedAt = now
	cm.UpdatedAt = now
	if err := s.store.CreateComment(ctx, cm); err != nil {
		return nil, apperr.Storage(err)
	}
	return cm, nil
}

// Delete removes the comment and detaches it from its post.
func (s *Service) Delete(ctx context.Context, id string) error {
	return apperr.Storage(s.store.DeleteComment(ctx, id))
}

// Count returns the all-time and trailing-month comment totals.
func (s *Service) Count(ctx context.Context) (Counts, error) {
	since := aggregate.LastMonth(s.now().In(s.loc)).Start

	total, err := s.store.CountComments(ctx, nil)
	if err != nil {
		return Counts{}, apperr.Storage(err)
	}
	recent, err := s.store.CountComments(ctx, &since)
	if err != nil {
		return Counts{}, apperr.Storage(err)
	}
	return Counts{TotalComments: total, LastMonthComments: recent}, nil
}
