package post

import (
	"context"
	"testing"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/pkg/pagination"
	"github.com/mx-space/engagement/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":            "hello-world",
		"Go 1.22: What's New?":   "go-122-whats-new",
		"  leading and trailing": "--leading-and-trailing",
		"Ünïcode Títle":          "ncode-ttle",
		"already-slugged":        "already-slugged",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCreateValidatesBeforeWriting(t *testing.T) {
	s := storetest.NewSQLite(t)
	svc := NewService(s)
	ctx := context.Background()

	_, err := svc.Create(ctx, "admin", CreatePostDTO{Title: "", Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, "admin", CreatePostDTO{Title: "x", Content: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, "admin", CreatePostDTO{Title: "???", Content: "body"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	n, err := s.CountPosts(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateDerivesSlugAndDefaults(t *testing.T) {
	s := storetest.NewSQLite(t)
	svc := NewService(s)
	ctx := context.Background()

	p, err := svc.Create(ctx, "admin", CreatePostDTO{Title: "My First Post", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "my-first-post", p.Slug)
	assert.Equal(t, models.DefaultPostImage, p.Image)
	assert.Equal(t, "admin", p.UserID)
	assert.False(t, p.Hidden)

	_, err = svc.Create(ctx, "admin", CreatePostDTO{Title: "My First Post", Content: "again"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateKeepsSlug(t *testing.T) {
	s := storetest.NewSQLite(t)
	svc := NewService(s)
	ctx := context.Background()

	p, err := svc.Create(ctx, "admin", CreatePostDTO{Title: "Original", Content: "body"})
	require.NoError(t, err)

	title := "Renamed"
	category := "news"
	updated, err := svc.Update(ctx, p.ID, UpdatePostDTO{Title: &title, Category: &category})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "news", updated.Category)
	assert.Equal(t, "original", updated.Slug)
	assert.False(t, updated.UpdatedAt.Before(p.UpdatedAt))

	empty := ""
	_, err = svc.Update(ctx, p.ID, UpdatePostDTO{Title: &empty})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(ctx, "missing", UpdatePostDTO{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	s := storetest.NewSQLite(t)
	svc := NewService(s)
	ctx := context.Background()

	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := svc.Create(ctx, "admin", CreatePostDTO{Title: title, Content: "body " + title, Category: "c"})
		require.NoError(t, err)
	}

	posts, err := svc.List(ctx, pagination.Query{Limit: 2}, ListQuery{Category: "c"})
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	none, err := svc.List(ctx, pagination.Query{Limit: 9}, ListQuery{Category: "other"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	require.NoError(t, svc.Delete(ctx, posts[0].ID))
	assert.ErrorIs(t, svc.Delete(ctx, posts[0].ID), apperr.ErrNotFound)
}
