package aggregate

import (
	"fmt"
	"time"
)

const redisKeyGraphData = "engagement:stats:graph"

// Granularity is the calendar period a bucket spans.
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// Granularities lists every granularity in dashboard order.
var Granularities = []Granularity{Daily, Monthly, Yearly}

// Stream names one of the counted entity streams.
type Stream string

const (
	StreamPosts    Stream = "posts"
	StreamLikes    Stream = "likes"
	StreamComments Stream = "comments"
)

// Streams lists every stream in dashboard order.
var Streams = []Stream{StreamPosts, StreamLikes, StreamComments}

// Target returns the accumulation target backing s.
func (s Stream) Target() (Target, error) {
	switch s {
	case StreamPosts:
		return TargetPostCount, nil
	case StreamLikes:
		return TargetLikeSum, nil
	case StreamComments:
		return TargetCommentCount, nil
	default:
		return 0, fmt.Errorf("unknown stream %q", string(s))
	}
}

// Window is an inclusive [Start, End] range of creation instants.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// BucketCount is one labelled point of a series.
type BucketCount struct {
	Key   string `json:"_id"`
	Count int64  `json:"count"`
}

// Series is the per-stream breakdown for one granularity.
type Series struct {
	Posts    []BucketCount `json:"posts"`
	Likes    []BucketCount `json:"likes"`
	Comments []BucketCount `json:"comments"`
}

func (s *Series) set(stream Stream, buckets []BucketCount) {
	switch stream {
	case StreamPosts:
		s.Posts = buckets
	case StreamLikes:
		s.Likes = buckets
	case StreamComments:
		s.Comments = buckets
	}
}

// GraphData is the full 3x3 statistics matrix.
type GraphData struct {
	Daily   Series `json:"daily"`
	Monthly Series `json:"monthly"`
	Yearly  Series `json:"yearly"`
}

func (g *GraphData) series(gr Granularity) *Series {
	switch gr {
	case Daily:
		return &g.Daily
	case Monthly:
		return &g.Monthly
	default:
		return &g.Yearly
	}
}

// complete reports whether every leaf is populated, which guards against
// serving a truncated cached blob.
func (g *GraphData) complete() bool {
	for _, gr := range Granularities {
		s := g.series(gr)
		if s.Posts == nil || s.Likes == nil || s.Comments == nil {
			return false
		}
	}
	return true
}

// Summary holds the dashboard totals.
type Summary struct {
	TotalPosts        int64 `json:"totalPosts"`
	TotalComments     int64 `json:"totalComments"`
	TotalLikes        int64 `json:"totalLikes"`
	LastMonthPosts    int64 `json:"lastMonthPosts"`
	LastMonthComments int64 `json:"lastMonthComments"`
	LastMonthLikes    int64 `json:"lastMonthLikes"`
}
