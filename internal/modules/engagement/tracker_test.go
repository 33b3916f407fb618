package engagement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/store"
	"github.com/mx-space/engagement/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPost(t *testing.T, s store.Posts, mutate func(*models.PostModel)) *models.PostModel {
	t.Helper()
	p := &models.PostModel{
		UserID:  "admin",
		Title:   "Tracked " + t.Name(),
		Content: "content",
		Slug:    "tracked",
		Image:   models.DefaultPostImage,
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, s.CreatePost(context.Background(), p))
	return p
}

func TestRecordViewDedup(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	p := seedPost(t, s, func(p *models.PostModel) {
		p.ViewCount = 5
		p.Viewers = models.NewStringSet("1.2.3.4")
	})
	tr := NewTracker(s, nil)

	got, err := tr.RecordView(ctx, "tracked", "1.2.3.4")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].ViewCount)

	stored, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.Version, "a repeat view must not write")

	got, err = tr.RecordView(ctx, "tracked", "9.9.9.9")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 6, got[0].ViewCount)

	stored, err = s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.ViewCount)
	assert.Equal(t, []string{"1.2.3.4", "9.9.9.9"}, stored.Viewers.Sorted())
}

func TestRecordViewIdempotentForRepeatedIdentity(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	p := seedPost(t, s, nil)
	tr := NewTracker(s, nil)

	for i := 0; i < 7; i++ {
		_, err := tr.RecordView(ctx, "tracked", "10.0.0.1")
		require.NoError(t, err)
	}

	stored, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ViewCount)
	assert.Equal(t, 1, stored.Viewers.Len())
	assert.Equal(t, int64(1), stored.Version)
}

func TestRecordViewConcurrentSameIdentity(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	p := seedPost(t, s, nil)
	tr := NewTracker(s, nil, WithMaxAttempts(50))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.RecordView(ctx, "tracked", "7.7.7.7")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ViewCount)
}

func TestRecordViewUnknownSlug(t *testing.T) {
	s := storetest.NewSQLite(t)
	tr := NewTracker(s, nil)

	got, err := tr.RecordView(context.Background(), "nope", "1.1.1.1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = tr.RecordView(context.Background(), "nope", " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	p := seedPost(t, s, nil)
	tr := NewTracker(s, nil)

	state, err := tr.ToggleLike(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, LikeState{LikeCount: 1, Liked: true}, state)

	liked, err := tr.LikeStatus(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.True(t, liked)

	state, err = tr.ToggleLike(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, LikeState{LikeCount: 0, Liked: false}, state)

	stored, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LikeCount)
	assert.Equal(t, 0, stored.LikedBy.Len())
}

func TestToggleLikeConcurrentUsersKeepCountConsistent(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	p := seedPost(t, s, nil)
	const users = 12
	tr := NewTracker(s, nil, WithMaxAttempts(users*2))

	var wg sync.WaitGroup
	errs := make(chan error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := tr.ToggleLike(ctx, p.ID, uid)
			errs <- err
		}(fmt.Sprintf("user-%d", i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, users, stored.LikeCount)
	assert.Equal(t, stored.LikeCount, stored.LikedBy.Len())
}

func TestToggleLikeNotFound(t *testing.T) {
	s := storetest.NewSQLite(t)
	tr := NewTracker(s, nil)

	_, err := tr.ToggleLike(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = tr.LikeStatus(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = tr.ToggleLike(context.Background(), "missing", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestToggleVisibilityRoundTrip(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	p := seedPost(t, s, nil)
	tr := NewTracker(s, nil)

	hidden, err := tr.ToggleVisibility(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, hidden)

	hidden, err = tr.ToggleVisibility(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, hidden)

	stored, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.Hidden)
	assert.Equal(t, int64(2), stored.Version)
}

func TestMutationAdvancesUpdatedAt(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := seedPost(t, s, func(p *models.PostModel) {
		p.CreatedAt, p.UpdatedAt = created, created
	})

	later := created.Add(48 * time.Hour)
	tr := NewTracker(s, nil, WithClock(func() time.Time { return later }))
	_, err := tr.ToggleLike(ctx, p.ID, "u1")
	require.NoError(t, err)

	stored, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.Equal(later))

	earlier := NewTracker(s, nil, WithClock(func() time.Time { return created.Add(-time.Hour) }))
	_, err = earlier.ToggleLike(ctx, p.ID, "u1")
	require.NoError(t, err)

	stored, err = s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.Equal(later), "updatedAt never moves backwards")
}

// failingPosts wraps a real store and fails or conflicts on every update.
type failingPosts struct {
	store.Posts
	updateErr error
	updates   int
}

func (f *failingPosts) UpdatePost(context.Context, *models.PostModel) error {
	f.updates++
	return f.updateErr
}

func TestToggleLikeStorageFailureLeavesStateUntouched(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	p := seedPost(t, s, nil)
	tr := NewTracker(&failingPosts{Posts: s, updateErr: errors.New("connection reset")}, nil)

	_, err := tr.ToggleLike(ctx, p.ID, "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)

	stored, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LikeCount)
	assert.False(t, stored.LikedBy.Has("u1"))
}

func TestMutationGivesUpAfterRepeatedConflicts(t *testing.T) {
	s := storetest.NewSQLite(t)
	ctx := context.Background()
	p := seedPost(t, s, nil)
	fp := &failingPosts{Posts: s, updateErr: apperr.ErrConflict}
	tr := NewTracker(fp, nil, WithMaxAttempts(3))

	_, err := tr.ToggleVisibility(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 3, fp.updates)
}
