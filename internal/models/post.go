package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultPostImage is used when a post is created without a cover image.
const DefaultPostImage = "https://www.hostinger.com/tutorials/wp-content/uploads/sites/2/2021/09/how-to-write-a-blog-post.png"

// StringSlice is an ordered []string that serializes as JSON.
type StringSlice []string

func (a StringSlice) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *StringSlice) Scan(value interface{}) error {
	if a == nil {
		return fmt.Errorf("models.StringSlice: Scan on nil pointer")
	}
	var raw string
	switch v := value.(type) {
	case nil:
		*a = StringSlice{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("models.StringSlice: unsupported Scan type %T", value)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*a = StringSlice{}
		return nil
	}
	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		return fmt.Errorf("models.StringSlice: %w", err)
	}
	*a = arr
	return nil
}

// PostModel is a blog article together with its engagement state.
type PostModel struct {
	Base
	UserID   string `json:"userId"   gorm:"index;not null"`
	Title    string `json:"title"    gorm:"type:varchar(191);uniqueIndex;not null"`
	Content  string `json:"content"  gorm:"type:longtext;not null"`
	Image    string `json:"image"`
	Category string `json:"category" gorm:"index;default:''"`
	Slug     string `json:"slug"     gorm:"type:varchar(191);uniqueIndex;not null"`

	ViewCount int       `json:"views"   gorm:"column:view_count;default:0"`
	Viewers   StringSet `json:"-"       gorm:"column:viewers;type:longtext"`
	LikeCount int       `json:"likes"   gorm:"column:like_count;default:0"`
	LikedBy   StringSet `json:"-"       gorm:"column:liked_by;type:longtext"`

	Comments StringSlice `json:"comments" gorm:"column:comment_ids;type:longtext"`
	Hidden   bool        `json:"hidden"   gorm:"default:false;index"`

	// Version is bumped by every committed write; updates are conditional on it.
	Version int64 `json:"-" gorm:"not null;default:0"`
}

func (PostModel) TableName() string { return "posts" }

// Clone returns a deep copy so a failed write never leaks a half-applied mutation.
func (p *PostModel) Clone() *PostModel {
	out := *p
	out.Viewers = p.Viewers.Clone()
	out.LikedBy = p.LikedBy.Clone()
	if p.Comments != nil {
		out.Comments = append(StringSlice(nil), p.Comments...)
	}
	return &out
}

// PostSample is the projection the statistics aggregator reads.
type PostSample struct {
	CreatedAt    time.Time
	LikeCount    int64
	CommentCount int64
}
