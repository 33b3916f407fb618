package mongostore

import (
	"time"

	"github.com/mx-space/engagement/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// objectRef is a document id or reference. Legacy documents store these as
// ObjectIds: they decode to their hex form and are written back as ObjectIds,
// while UUID ids stay plain strings.
type objectRef string

func (r objectRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if oid, err := primitive.ObjectIDFromHex(string(r)); err == nil {
		return bson.MarshalValue(oid)
	}
	return bson.MarshalValue(string(r))
}

// idValue matches id whichever way it was stored.
func idValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$in": bson.A{id, oid}}
	}
	return id
}

func byID(id string) bson.M {
	return bson.M{"_id": idValue(id)}
}

// postDocument keeps the field names of the legacy "posts" collection so an
// existing database can be served without migration.
type postDocument struct {
	ID        objectRef   `bson:"_id"`
	UserID    string      `bson:"userId"`
	Title     string      `bson:"title"`
	Content   string      `bson:"content"`
	Image     string      `bson:"image"`
	Category  string      `bson:"category"`
	Slug      string      `bson:"slug"`
	Views     int         `bson:"views"`
	Viewers   []string    `bson:"viewers"`
	Likes     int         `bson:"likes"`
	LikedBy   []string    `bson:"likedBy"`
	Comments  []objectRef `bson:"comments"`
	Hidden    bool        `bson:"hidden"`
	Version   int64       `bson:"__v"`
	CreatedAt time.Time   `bson:"createdAt"`
	UpdatedAt time.Time   `bson:"updatedAt"`
}

type commentDocument struct {
	ID        objectRef `bson:"_id"`
	PostID    objectRef `bson:"postId"`
	UserID    string    `bson:"userId"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type sampleDocument struct {
	CreatedAt    time.Time `bson:"createdAt"`
	Likes        int64     `bson:"likes"`
	CommentCount int64     `bson:"commentCount"`
}

func fromPost(p *models.PostModel) postDocument {
	return postDocument{
		ID:        objectRef(p.ID),
		UserID:    p.UserID,
		Title:     p.Title,
		Content:   p.Content,
		Image:     p.Image,
		Category:  p.Category,
		Slug:      p.Slug,
		Views:     p.ViewCount,
		Viewers:   p.Viewers.Sorted(),
		Likes:     p.LikeCount,
		LikedBy:   p.LikedBy.Sorted(),
		Comments:  toRefs(p.Comments),
		Hidden:    p.Hidden,
		Version:   p.Version,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (d postDocument) model() models.PostModel {
	var p models.PostModel
	p.ID = string(d.ID)
	p.CreatedAt = d.CreatedAt
	p.UpdatedAt = d.UpdatedAt
	p.UserID = d.UserID
	p.Title = d.Title
	p.Content = d.Content
	p.Image = d.Image
	p.Category = d.Category
	p.Slug = d.Slug
	p.ViewCount = d.Views
	p.Viewers = models.NewStringSet(d.Viewers...)
	p.LikeCount = d.Likes
	p.LikedBy = models.NewStringSet(d.LikedBy...)
	p.Comments = models.StringSlice(fromRefs(d.Comments))
	p.Hidden = d.Hidden
	p.Version = d.Version
	return p
}

func fromComment(c *models.CommentModel) commentDocument {
	return commentDocument{
		ID:        objectRef(c.ID),
		PostID:    objectRef(c.PostID),
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func (d commentDocument) model() models.CommentModel {
	var c models.CommentModel
	c.ID = string(d.ID)
	c.CreatedAt = d.CreatedAt
	c.UpdatedAt = d.UpdatedAt
	c.PostID = string(d.PostID)
	c.UserID = d.UserID
	c.Content = d.Content
	return c
}

func toRefs(ids []string) []objectRef {
	out := make([]objectRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, objectRef(id))
	}
	return out
}

func fromRefs(refs []objectRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, string(r))
	}
	return out
}
