package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var _ store.Store = (*Store)(nil)

func TestPostDocumentUsesLegacyFieldNames(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("CST", 8*3600))
	p := &models.PostModel{
		UserID:    "admin",
		Title:     "Hello",
		Slug:      "hello",
		ViewCount: 2,
		Viewers:   models.NewStringSet("1.1.1.1", "2.2.2.2"),
		LikeCount: 1,
		LikedBy:   models.NewStringSet("u1"),
		Version:   3,
	}
	p.ID = "p1"
	p.CreatedAt = created
	p.UpdatedAt = created

	raw, err := bson.Marshal(fromPost(p))
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	for _, key := range []string{"_id", "views", "viewers", "likes", "likedBy", "comments", "__v", "createdAt"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, bson.A{}, fields["comments"])

	var doc postDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	back := doc.model()
	assert.Equal(t, "hello", back.Slug)
	assert.True(t, back.Viewers.Has("2.2.2.2"))
	assert.True(t, back.LikedBy.Has("u1"))
	assert.Equal(t, int64(3), back.Version)
	assert.True(t, created.Equal(back.CreatedAt))
	assert.Equal(t, models.StringSlice{}, back.Comments)
}

func TestLegacyObjectIDsRoundTrip(t *testing.T) {
	postID := primitive.NewObjectID()
	legacyComment := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: postID},
		{Key: "title", Value: "Legacy"},
		{Key: "slug", Value: "legacy"},
		{Key: "comments", Value: bson.A{legacyComment, "c-uuid"}},
		{Key: "__v", Value: int64(4)},
	})
	require.NoError(t, err)

	var doc postDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	p := doc.model()
	assert.Equal(t, postID.Hex(), p.ID)
	assert.Equal(t, models.StringSlice{legacyComment.Hex(), "c-uuid"}, p.Comments)

	// Writing the post back keeps the stored id types.
	out, err := bson.Marshal(fromPost(&p))
	require.NoError(t, err)
	var back bson.M
	require.NoError(t, bson.Unmarshal(out, &back))
	assert.Equal(t, postID, back["_id"])
	assert.Equal(t, bson.A{legacyComment, "c-uuid"}, back["comments"])

	// The by-id filter built from the decoded id matches the ObjectId.
	filter, err := bson.Marshal(bson.M{"_id": idValue(p.ID), "__v": p.Version})
	require.NoError(t, err)
	in, err := bson.Raw(filter).LookupErr("_id", "$in")
	require.NoError(t, err)
	values, err := in.Array().Values()
	require.NoError(t, err)
	var matched bool
	for _, v := range values {
		if v.Type == bsontype.ObjectID && v.ObjectID() == postID {
			matched = true
		}
	}
	assert.True(t, matched, "filter must carry the stored ObjectId")
}

func TestLegacyCommentDocument(t *testing.T) {
	id, postID := primitive.NewObjectID(), primitive.NewObjectID()
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: id},
		{Key: "postId", Value: postID},
		{Key: "content", Value: "hi"},
	})
	require.NoError(t, err)

	var doc commentDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	c := doc.model()
	assert.Equal(t, id.Hex(), c.ID)
	assert.Equal(t, postID.Hex(), c.PostID)
	assert.Equal(t, bson.M{"_id": bson.M{"$in": bson.A{id.Hex(), id}}}, byID(c.ID))
}

func TestByIDKeepsUUIDsAsStrings(t *testing.T) {
	assert.Equal(t, bson.M{"_id": "5f0c1d2e-aaaa-4bbb-8ccc-123456789abc"}, byID("5f0c1d2e-aaaa-4bbb-8ccc-123456789abc"))

	raw, err := bson.Marshal(bson.M{"v": objectRef("p1")})
	require.NoError(t, err)
	assert.Equal(t, bsontype.String, bson.Raw(raw).Lookup("v").Type)
}

func TestCascadeDeleteDropsCommentsFirst(t *testing.T) {
	ctx := context.Background()
	postExists := true
	commentsLeft := 2
	var calls []string
	failComments := true

	exists := func(context.Context) (bool, error) {
		calls = append(calls, "exists")
		return postExists, nil
	}
	children := func(context.Context) error {
		calls = append(calls, "comments")
		if failComments {
			return apperr.Storage(errors.New("i/o timeout"))
		}
		commentsLeft = 0
		return nil
	}
	parent := func(context.Context) error {
		calls = append(calls, "post")
		postExists = false
		return nil
	}

	err := cascadeDelete(ctx, exists, children, parent)
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
	assert.True(t, postExists, "post must survive a failed comment delete")
	assert.Equal(t, []string{"exists", "comments"}, calls)

	failComments = false
	calls = nil
	require.NoError(t, cascadeDelete(ctx, exists, children, parent))
	assert.Equal(t, []string{"exists", "comments", "post"}, calls)
	assert.Zero(t, commentsLeft)
	assert.False(t, postExists)

	assert.ErrorIs(t, cascadeDelete(ctx, exists, children, parent), apperr.ErrNotFound)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "post"))
	assert.ErrorIs(t, translate(mongo.ErrNoDocuments, "post"), apperr.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translate(dup, "post"), apperr.ErrValidation)

	assert.ErrorIs(t, translate(errors.New("socket closed"), "post"), apperr.ErrStorageUnavailable)
}

// TestLiveRoundTrip runs against a real server when ENGAGEMENT_MONGO_URI is set.
func TestLiveRoundTrip(t *testing.T) {
	uri := os.Getenv("ENGAGEMENT_MONGO_URI")
	if uri == "" {
		t.Skip("ENGAGEMENT_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Options{URI: uri, Database: "engagement_test_" + time.Now().Format("150405")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.posts.Database().Drop(ctx)
		_ = s.Close(ctx)
	})

	p := &models.PostModel{UserID: "admin", Title: "Live", Content: "body", Slug: "live"}
	require.NoError(t, s.CreatePost(ctx, p))

	stale := p.Clone()
	p.LikedBy.Add("u1")
	p.LikeCount = 1
	require.NoError(t, s.UpdatePost(ctx, p))
	assert.ErrorIs(t, s.UpdatePost(ctx, stale), apperr.ErrConflict)

	cm := &models.CommentModel{PostID: p.ID, UserID: "u1", Content: "hi"}
	require.NoError(t, s.CreateComment(ctx, cm))
	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StringSlice{cm.ID}, got.Comments)

	likes, err := s.SumLikes(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), likes)

	require.NoError(t, s.DeletePost(ctx, p.ID))
	_, err = s.GetComment(ctx, cm.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
