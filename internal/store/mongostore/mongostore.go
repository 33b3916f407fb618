// Package mongostore implements the storage collaborator on MongoDB using
// the legacy "posts" and "comments" collection layout.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mx-space/engagement/internal/models"
	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	postsCollection    = "posts"
	commentsCollection = "comments"
)

// Options configures Open.
type Options struct {
	URI       string
	Database  string
	OpTimeout time.Duration
}

// Store is the MongoDB-backed storage collaborator.
type Store struct {
	client    *mongo.Client
	posts     *mongo.Collection
	comments  *mongo.Collection
	log       *zap.Logger
	opTimeout time.Duration
}

// Open connects, pings and ensures the indexes the queries rely on.
func Open(ctx context.Context, opts Options, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(opts.URI) == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if strings.TrimSpace(opts.Database) == "" {
		return nil, fmt.Errorf("mongo database is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	db := client.Database(opts.Database)
	s := &Store{
		client:    client,
		posts:     db.Collection(postsCollection),
		comments:  db.Collection(commentsCollection),
		log:       log.Named("MongoStore"),
		opTimeout: opts.OpTimeout,
	}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "postId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return translate(s.client.Ping(ctx, nil), "database")
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) CreatePost(ctx context.Context, post *models.PostModel) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	post.EnsureID()
	post.Version = 0
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}
	_, err := s.posts.InsertOne(ctx, fromPost(post))
	return translate(err, "post")
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.PostModel, error) {
	return s.findPost(ctx, byID(id))
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*models.PostModel, error) {
	return s.findPost(ctx, bson.M{"slug": slug})
}

func (s *Store) findPost(ctx context.Context, filter bson.M) (*models.PostModel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc postDocument
	if err := s.posts.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "post")
	}
	post := doc.model()
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, f store.PostFilter) ([]models.PostModel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Slug != "" {
		filter["slug"] = f.Slug
	}
	if f.PostID != "" {
		filter["_id"] = idValue(f.PostID)
	}
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
		}
	}

	direction := -1
	if f.Sort == store.SortAsc {
		direction = 1
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: direction}}).
		SetSkip(int64(f.StartIndex))
	if f.Limit > 0 {
		findOpts.SetLimit(int64(f.Limit))
	}

	cur, err := s.posts.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, translate(err, "post")
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "post")
	}

	out := make([]models.PostModel, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.model())
	}
	return out, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.PostModel) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doc := fromPost(post)
	next := post.Version + 1
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": idValue(post.ID), "__v": post.Version},
		bson.M{"$set": bson.M{
			"title":     doc.Title,
			"content":   doc.Content,
			"image":     doc.Image,
			"category":  doc.Category,
			"slug":      doc.Slug,
			"views":     doc.Views,
			"viewers":   doc.Viewers,
			"likes":     doc.Likes,
			"likedBy":   doc.LikedBy,
			"comments":  doc.Comments,
			"hidden":    doc.Hidden,
			"__v":       next,
			"updatedAt": doc.UpdatedAt,
		}},
	)
	if err != nil {
		return translate(err, "post")
	}
	if res.MatchedCount == 0 {
		count, err := s.posts.CountDocuments(ctx, byID(post.ID))
		if err != nil {
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

	return cascadeDelete(ctx,
		func(ctx context.Context) (bool, error) {
			n, err := s.posts.CountDocuments(ctx, byID(id))
			return n > 0, translate(err, "post")
		},
		func(ctx context.Context) error {
			_, err := s.comments.DeleteMany(ctx, bson.M{"postId": idValue(id)})
			return translate(err, "comment")
		},
		func(ctx context.Context) error {
			res, err := s.posts.DeleteOne(ctx, byID(id))
			if err != nil {
				return translate(err, "post")
			}
			if res.DeletedCount == 0 {
				return apperr.NotFound("post")
			}
			return nil
		},
	)
}

// cascadeDelete drops the children before the parent. A failure in between
// leaves the parent in place, so retrying the delete finishes the cascade.
func cascadeDelete(ctx context.Context, exists func(context.Context) (bool, error), children, parent func(context.Context) error) error {
	found, err := exists(ctx)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("post")
	}
	if err := children(ctx); err != nil {
		return err
	}
	return parent(ctx)
}

func (s *Store) CreateComment(ctx context.Context, comment *models.CommentModel) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	count, err := s.posts.CountDocuments(ctx, byID(comment.PostID))
	if err != nil {
		return translate(err, "post")
	}
	if count == 0 {
		return apperr.NotFound("post")
	}

	now := time.Now().UTC()
	comment.EnsureID()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	if comment.UpdatedAt.IsZero() {
		comment.UpdatedAt = comment.CreatedAt
	}
	if _, err := s.comments.InsertOne(ctx, fromComment(comment)); err != nil {
		return translate(err, "comment")
	}

	// $push and $inc apply atomically, so no version precondition is needed.
	res, err := s.posts.UpdateOne(ctx,
		byID(comment.PostID),
		bson.M{
			"$push": bson.M{"comments": objectRef(comment.ID)},
			"$inc":  bson.M{"__v": 1},
			"$max":  bson.M{"updatedAt": now},
		},
	)
	if err != nil {
		return translate(err, "post")
	}
	if res.MatchedCount == 0 {
		// The post vanished between the check and the push.
		if _, err := s.comments.DeleteOne(ctx, byID(comment.ID)); err != nil {
			s.log.Warn("orphan comment cleanup failed", zap.String("comment", comment.ID), zap.Error(err))
		}
		return apperr.NotFound("post")
	}
	return nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.CommentModel, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc commentDocument
	if err := s.comments.FindOne(ctx, byID(id)).Decode(&doc); err != nil {
		return nil, translate(err, "comment")
	}
	comment := doc.model()
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc commentDocument
	if err := s.comments.FindOneAndDelete(ctx, byID(id)).Decode(&doc); err != nil {
		return translate(err, "comment")
	}
	_, err := s.posts.UpdateOne(ctx,
		byID(string(doc.PostID)),
		bson.M{
			"$pull": bson.M{"comments": idValue(id)},
			"$inc":  bson.M{"__v": 1},
			"$max":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	return translate(err, "post")
}

func (s *Store) CountPosts(ctx context.Context, since *time.Time) (int64, error) {
	return s.count(ctx, s.posts, since)
}

func (s *Store) CountComments(ctx context.Context, since *time.Time) (int64, error) {
	return s.count(ctx, s.comments, since)
}

func (s *Store) count(ctx context.Context, coll *mongo.Collection, since *time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := coll.CountDocuments(ctx, sinceFilter(since))
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return n, nil
}

func (s *Store) SumLikes(ctx context.Context, since *time.Time) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: sinceFilter(since)}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$likes"}}}},
	}
	cur, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, apperr.Storage(err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (s *Store) PostSamples(ctx context.Context, from, to time.Time) ([]models.PostSample, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": from.UTC(), "$lte": to.UTC()}}}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"createdAt":    1,
			"likes":        bson.M{"$ifNull": bson.A{"$likes", 0}},
			"commentCount": bson.M{"$size": bson.M{"$ifNull": bson.A{"$comments", bson.A{}}}},
		}}},
	}
	cur, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	var docs []sampleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Storage(err)
	}

	out := make([]models.PostSample, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.PostSample{
			CreatedAt:    d.CreatedAt,
			LikeCount:    d.Likes,
			CommentCount: d.CommentCount,
		})
	}
	return out, nil
}

func sinceFilter(since *time.Time) bson.M {
	if since == nil {
		return bson.M{}
	}
	return bson.M{"createdAt": bson.M{"$gte": since.UTC()}}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound(entity)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Validation(entity + " with the same title or slug already exists")
	default:
		return apperr.Storage(err)
	}
}
