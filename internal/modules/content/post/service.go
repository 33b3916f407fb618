package post

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/pkg/pagination"
	"github.com/mx-space/engagement/internal/store"
)

const maxUpdateAttempts = 5

// Service handles post lifecycle logic.
type Service struct {
	posts store.Posts
	now   func() time.Time
}

func NewService(posts store.Posts) *Service {
	return &Service{posts: posts, now: time.Now}
}

// Create validates dto and stores a new post owned by userID.
func (s *Service) Create(ctx context.Context, userID string, dto CreatePostDTO) (*models.PostModel, error) {
	title := strings.TrimSpace(dto.Title)
	content := strings.TrimSpace(dto.Content)
	if title == "" || content == "" {
		return nil, apperr.Validation("please provide all required fields")
	}
	slug := Slugify(title)
	if slug == "" {
		return nil, apperr.Validation("title must contain at least one letter or digit")
	}

	image := strings.TrimSpace(dto.Image)
	if image == "" {
		image = models.DefaultPostImage
	}

	now := s.now()
	post := &models.PostModel{
		UserID:   userID,
		Title:    title,
		Content:  dto.Content,
		Image:    image,
		Category: strings.TrimSpace(dto.Category),
		Slug:     slug,
		Viewers:  models.StringSet{},
		LikedBy:  models.StringSet{},
		Comments: models.StringSlice{},
	}
	post.CreatedAt = now
	post.UpdatedAt = now
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, apperr.Storage(err)
	}
	return post, nil
}

// Update applies the editable fields of dto. The slug is fixed at creation.
func (s *Service) Update(ctx context.Context, id string, dto UpdatePostDTO) (*models.PostModel, error) {
	if dto.Title != nil && strings.TrimSpace(*dto.Title) == "" {
		return nil, apperr.Validation("title cannot be empty")
	}
	if dto.Content != nil && strings.TrimSpace(*dto.Content) == "" {
		return nil, apperr.Validation("content cannot be empty")
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := s.posts.GetPost(ctx, id)
		if err != nil {
			return nil, apperr.Storage(err)
		}

		next := current.Clone()
		if dto.Title != nil {
			next.Title = strings.TrimSpace(*dto.Title)
		}
		if dto.Content != nil {
			next.Content = *dto.Content
		}
		if dto.Category != nil {
			next.Category = strings.TrimSpace(*dto.Category)
		}
		if dto.Image != nil {
			next.Image = strings.TrimSpace(*dto.Image)
			if next.Image == "" {
				next.Image = models.DefaultPostImage
			}
		}
		next.Touch(s.now())

		err = s.posts.UpdatePost(ctx, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Storage(err)
		}
	}
	return nil, apperr.Unavailable("post update kept conflicting with concurrent writes")
}

// Delete removes the post and its comments.
func (s *Service) Delete(ctx context.Context, id string) error {
	return apperr.Storage(s.posts.DeletePost(ctx, id))
}

// List returns one page of posts matching lq, newest update first unless
// sort=asc.
func (s *Service) List(ctx context.Context, q pagination.Query, lq ListQuery) ([]models.PostModel, error) {
	sort := store.SortDesc
	if strings.EqualFold(lq.Sort, "asc") {
		sort = store.SortAsc
	}
	posts, err := s.posts.ListPosts(ctx, store.PostFilter{
		UserID:     lq.UserID,
		Category:   lq.Category,
		Slug:       lq.Slug,
		PostID:     lq.PostID,
		SearchTerm: lq.SearchTerm,
		StartIndex: q.StartIndex,
		Limit:      q.Limit,
		Sort:       sort,
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if posts == nil {
		posts = []models.PostModel{}
	}
	return posts, nil
}
