package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/mx-space/engagement/internal/models"
)

// Target is the closed set of quantities a series can accumulate.
type Target int

const (
	TargetPostCount Target = iota + 1
	TargetLikeSum
	TargetCommentCount
)

func (t Target) String() string {
	switch t {
	case TargetPostCount:
		return "postCount"
	case TargetLikeSum:
		return "likeSum"
	case TargetCommentCount:
		return "commentCount"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// weight returns what one post contributes and whether it opens a bucket
// at all. Likes are the post's current total keyed by its creation time;
// comments are the references attached to the post, so a post without any
// contributes no bucket.
func (t Target) weight(s models.PostSample) (int64, bool) {
	switch t {
	case TargetPostCount:
		return 1, true
	case TargetLikeSum:
		return s.LikeCount, true
	case TargetCommentCount:
		return s.CommentCount, s.CommentCount > 0
	default:
		return 0, false
	}
}

// Aggregate groups the samples created inside w by bucket key in loc and
// accumulates target. The result is ordered by key and never nil.
func Aggregate(samples []models.PostSample, target Target, g Granularity, w Window, loc *time.Location) []BucketCount {
	if loc == nil {
		loc = time.UTC
	}

	totals := make(map[string]int64)
	for _, s := range samples {
		if !w.Contains(s.CreatedAt) {
			continue
		}
		v, ok := target.weight(s)
		if !ok {
			continue
		}
		totals[BucketKey(g, s.CreatedAt.In(loc))] += v
	}

	out := make([]BucketCount, 0, len(totals))
	for key, count := range totals {
		out = append(out, BucketCount{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
