package gormstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/store"
	"github.com/mx-space/engagement/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPost(title, slug string) *models.PostModel {
	return &models.PostModel{
		UserID:  "author",
		Title:   title,
		Content: "body of " + title,
		Slug:    slug,
		Image:   models.DefaultPostImage,
	}
}

func TestCreateAndGetPost(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	p := newPost("Hello World", "hello-world")
	require.NoError(t, s.CreatePost(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Title)
	assert.Equal(t, int64(0), got.Version)
	assert.Equal(t, 0, got.Viewers.Len())
	assert.Empty(t, got.Comments)

	bySlug, err := s.GetPostBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)

	_, err = s.GetPostBySlug(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreatePostDuplicateSlug(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePost(ctx, newPost("One", "same")))
	err := s.CreatePost(ctx, newPost("Two", "same"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdatePostVersioning(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	p := newPost("Versioned", "versioned")
	require.NoError(t, s.CreatePost(ctx, p))

	first, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	stale, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)

	first.ViewCount = 1
	first.Viewers.Add("1.2.3.4")
	require.NoError(t, s.UpdatePost(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	stale.LikeCount = 1
	stale.LikedBy.Add("u1")
	err = s.UpdatePost(ctx, stale)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)
	assert.True(t, got.Viewers.Has("1.2.3.4"))
	assert.Equal(t, 0, got.LikeCount)

	missing := newPost("Ghost", "ghost")
	missing.ID = "does-not-exist"
	assert.ErrorIs(t, s.UpdatePost(ctx, missing), apperr.ErrNotFound)
}

func TestListPostsFilters(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	titles := []string{"Go Tips", "Rust Notes", "go_routines 100%"}
	for i, title := range titles {
		p := newPost(title, "slug-"+string(rune('a'+i)))
		p.Category = "lang"
		p.UpdatedAt = base.Add(time.Duration(i) * time.Hour)
		p.CreatedAt = p.UpdatedAt
		require.NoError(t, s.CreatePost(ctx, p))
	}

	all, err := s.ListPosts(ctx, store.PostFilter{Category: "lang", Sort: store.SortDesc})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "go_routines 100%", all[0].Title)

	asc, err := s.ListPosts(ctx, store.PostFilter{Sort: store.SortAsc, StartIndex: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, asc, 1)
	assert.Equal(t, "Rust Notes", asc[0].Title)

	found, err := s.ListPosts(ctx, store.PostFilter{SearchTerm: "GO"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	literal, err := s.ListPosts(ctx, store.PostFilter{SearchTerm: "100%"})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "go_routines 100%", literal[0].Title)

	underscore, err := s.ListPosts(ctx, store.PostFilter{SearchTerm: "o_r"})
	require.NoError(t, err)
	assert.Len(t, underscore, 1)
}

func TestCommentLifecycle(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	p := newPost("Commented", "commented")
	require.NoError(t, s.CreatePost(ctx, p))

	c1 := &models.CommentModel{PostID: p.ID, UserID: "u1", Content: "first"}
	c2 := &models.CommentModel{PostID: p.ID, UserID: "u2", Content: "second"}
	require.NoError(t, s.CreateComment(ctx, c1))
	require.NoError(t, s.CreateComment(ctx, c2))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StringSlice{c1.ID, c2.ID}, got.Comments)
	assert.Equal(t, int64(2), got.Version)

	n, err := s.CountComments(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.DeleteComment(ctx, c1.ID))
	got, err = s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StringSlice{c2.ID}, got.Comments)

	assert.ErrorIs(t, s.DeleteComment(ctx, c1.ID), apperr.ErrNotFound)

	orphan := &models.CommentModel{PostID: "nope", UserID: "u1", Content: "x"}
	assert.ErrorIs(t, s.CreateComment(ctx, orphan), apperr.ErrNotFound)
}

func TestDeletePostCascades(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	p := newPost("Doomed", "doomed")
	require.NoError(t, s.CreatePost(ctx, p))
	c := &models.CommentModel{PostID: p.ID, UserID: "u1", Content: "bye"}
	require.NoError(t, s.CreateComment(ctx, c))

	require.NoError(t, s.DeletePost(ctx, p.ID))

	_, err := s.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.GetComment(ctx, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, s.DeletePost(ctx, p.ID), apperr.ErrNotFound)
}

func TestCountersAndSamples(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()

	old := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	p1 := newPost("Old", "old")
	p1.CreatedAt, p1.UpdatedAt, p1.LikeCount = old, old, 3
	p2 := newPost("Recent", "recent")
	p2.CreatedAt, p2.UpdatedAt, p2.LikeCount = recent, recent, 2
	p2.Comments = models.StringSlice{"c1", "c2"}
	require.NoError(t, s.CreatePost(ctx, p1))
	require.NoError(t, s.CreatePost(ctx, p2))

	total, err := s.CountPosts(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n, err := s.CountPosts(ctx, &since)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	likes, err := s.SumLikes(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), likes)

	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	none, err := s.SumLikes(ctx, &future)
	require.NoError(t, err)
	assert.Equal(t, int64(0), none)

	samples, err := s.PostSamples(ctx, since, future)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, int64(2), samples[0].LikeCount)
	assert.Equal(t, int64(2), samples[0].CommentCount)
	assert.True(t, samples[0].CreatedAt.Equal(recent))

	// Window bounds are inclusive.
	edge, err := s.PostSamples(ctx, recent, recent)
	require.NoError(t, err)
	assert.Len(t, edge, 1)
}
