package gormstore

import (
	"context"
	"strings"
	"time"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/store"
	"gorm.io/gorm"
)

const likeEscape = "!"

func (s *Store) CreatePost(ctx context.Context, post *models.PostModel) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	post.EnsureID()
	post.Version = 0
	if post.Viewers == nil {
		post.Viewers = models.StringSet{}
	}
	if post.LikedBy == nil {
		post.LikedBy = models.StringSet{}
	}
	if post.Comments == nil {
		post.Comments = models.StringSlice{}
	}
	if !post.CreatedAt.IsZero() {
		post.CreatedAt = post.CreatedAt.UTC()
	}
	if !post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.UpdatedAt.UTC()
	}
	return translate(s.db.WithContext(ctx).Create(post).Error, "post")
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.PostModel, error) {
	return s.firstPost(ctx, "id = ?", id)
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*models.PostModel, error) {
	return s.firstPost(ctx, "slug = ?", slug)
}

func (s *Store) firstPost(ctx context.Context, query string, arg string) (*models.PostModel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var post models.PostModel
	if err := s.db.WithContext(ctx).Where(query, arg).First(&post).Error; err != nil {
		return nil, translate(err, "post")
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, f store.PostFilter) ([]models.PostModel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx := s.db.WithContext(ctx).Model(&models.PostModel{})
	if f.UserID != "" {
		tx = tx.Where("user_id = ?", f.UserID)
	}
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if f.Slug != "" {
		tx = tx.Where("slug = ?", f.Slug)
	}
	if f.PostID != "" {
		tx = tx.Where("id = ?", f.PostID)
	}
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		tx = tx.Where("LOWER(title) LIKE ? ESCAPE '"+likeEscape+"' OR LOWER(content) LIKE ? ESCAPE '"+likeEscape+"'", pattern, pattern)
	}

	order := "updated_at DESC"
	if f.Sort == store.SortAsc {
		order = "updated_at ASC"
	}
	tx = tx.Order(order).Offset(f.StartIndex)
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}

	var posts []models.PostModel
	if err := tx.Find(&posts).Error; err != nil {
		return nil, translate(err, "post")
	}
	return posts, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.PostModel) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.updatePost(s.db.WithContext(ctx), post)
}

func (s *Store) updatePost(tx *gorm.DB, post *models.PostModel) error {
	next := post.Version + 1
	res := tx.Model(&models.PostModel{}).
		Where("id = ? AND version = ?", post.ID, post.Version).
		UpdateColumns(map[string]interface{}{
			"title":       post.Title,
			"content":     post.Content,
			"image":       post.Image,
			"category":    post.Category,
			"slug":        post.Slug,
			"view_count":  post.ViewCount,
			"viewers":     post.Viewers,
			"like_count":  post.LikeCount,
			"liked_by":    post.LikedBy,
			"comment_ids": post.Comments,
			"hidden":      post.Hidden,
			"version":     next,
			"updated_at":  post.UpdatedAt.UTC(),
		})
	if res.Error != nil {
		return translate(res.Error, "post")
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.PostModel{}).Where("id = ?", post.ID).Count(&count).Error; err != nil {
			return translate(err, "post")
		}
		if count == 0 {
			return apperr.NotFound("post")
		}
		return apperr.ErrConflict
	}
	post.Version = next
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.CommentModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.PostModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}), "post")
}

func (s *Store) CountPosts(ctx context.Context, since *time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int64
	tx := s.db.WithContext(ctx).Model(&models.PostModel{})
	if since != nil {
		tx = tx.Where("created_at >= ?", since.UTC())
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, apperr.Storage(err)
	}
	return count, nil
}

func (s *Store) SumLikes(ctx context.Context, since *time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var total struct {
		Likes int64 `gorm:"column:like_total"`
	}
	tx := s.db.WithContext(ctx).Model(&models.PostModel{})
	if since != nil {
		tx = tx.Where("created_at >= ?", since.UTC())
	}
	if err := tx.Select("COALESCE(SUM(like_count), 0) AS like_total").Scan(&total).Error; err != nil {
		return 0, apperr.Storage(err)
	}
	return total.Likes, nil
}

func (s *Store) PostSamples(ctx context.Context, from, to time.Time) ([]models.PostSample, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []models.PostModel
	err := s.db.WithContext(ctx).
		Select("id", "created_at", "like_count", "comment_ids").
		Where("created_at >= ? AND created_at <= ?", from.UTC(), to.UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Storage(err)
	}

	out := make([]models.PostSample, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.PostSample{
			CreatedAt:    row.CreatedAt,
			LikeCount:    int64(row.LikeCount),
			CommentCount: int64(len(row.Comments)),
		})
	}
	return out, nil
}

func escapeLike(raw string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(raw)
}
