package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"gorm.io/gorm"
)

// maxRefAttempts bounds the retries of the comment reference update when a
// concurrent writer bumps the post version in between.
const maxRefAttempts = 5

func (s *Store) CreateComment(ctx context.Context, comment *models.CommentModel) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	comment.EnsureID()
	comment.CreatedAt = comment.CreatedAt.UTC()
	comment.UpdatedAt = comment.UpdatedAt.UTC()
	return s.withPostRetry(ctx, func(tx *gorm.DB) error {
		var post models.PostModel
		if err := tx.Where("id = ?", comment.PostID).First(&post).Error; err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		post.Comments = append(post.Comments, comment.ID)
		post.Touch(time.Now())
		return s.updatePost(tx, &post)
	})
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.CommentModel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var comment models.CommentModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, translate(err, "comment")
	}
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var comment models.CommentModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return translate(err, "comment")
	}

	return s.withPostRetry(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.CommentModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("comment")
		}

		var post models.PostModel
		err := tx.Where("id = ?", comment.PostID).First(&post).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		kept := post.Comments[:0]
		for _, ref := range post.Comments {
			if ref != id {
				kept = append(kept, ref)
			}
		}
		post.Comments = kept
		post.Touch(time.Now())
		return s.updatePost(tx, &post)
	})
}

func (s *Store) CountComments(ctx context.Context, since *time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	tx := s.db.WithContext(ctx).Model(&models.CommentModel{})
	if since != nil {
		tx = tx.Where("created_at >= ?", since.UTC())
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, apperr.Storage(err)
	}
	return count, nil
}

// withPostRetry runs fn in a transaction and replays it when the post
// reference update lost a version race.
func (s *Store) withPostRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxRefAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, apperr.ErrConflict) {
			break
		}
		s.log.Debug("comment reference update conflicted, retrying")
	}
	if errors.Is(err, apperr.ErrConflict) {
		return apperr.Unavailable("comment reference update kept conflicting")
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("post")
	case apperr.IsKnown(err):
		return err
	default:
		return translate(err, "comment")
	}
}
