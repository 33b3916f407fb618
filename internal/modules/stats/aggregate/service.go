package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mx-space/engagement/internal/pkg/apperr"
	"github.com/mx-space/engagement/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Cache is the blob store graph data is memoized in.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service computes dashboard statistics from the post store.
type Service struct {
	src   store.Counters
	cache Cache
	ttl   time.Duration
	loc   *time.Location
	log   *zap.Logger
}

// Options configures NewService.
type Options struct {
	// Location bucket keys are rendered in. Defaults to UTC.
	Location *time.Location
	// Cache is optional; a nil cache always computes.
	Cache    Cache
	CacheTTL time.Duration
}

func NewService(src store.Counters, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		src:   src,
		cache: opts.Cache,
		ttl:   ttl,
		loc:   loc,
		log:   log.Named("StatsAggregator"),
	}
}

// AggregateCount buckets stream over the granularity's window ending at ref.
func (s *Service) AggregateCount(ctx context.Context, stream Stream, g Granularity, ref time.Time) ([]BucketCount, error) {
	target, err := stream.Target()
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	ref = ref.In(s.loc)
	w, err := Boundaries(g, ref)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	samples, err := s.src.PostSamples(ctx, w.Start, w.End)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return Aggregate(samples, target, g, w, s.loc), nil
}

// Summary returns all-time totals and totals for the trailing calendar month.
func (s *Service) Summary(ctx context.Context, ref time.Time) (Summary, error) {
	since := LastMonth(ref.In(s.loc)).Start

	var out Summary
	g, ctx := errgroup.WithContext(ctx)
	counters := []struct {
		dst   *int64
		fn    func(context.Context, *time.Time) (int64, error)
		since *time.Time
	}{
		{&out.TotalPosts, s.src.CountPosts, nil},
		{&out.TotalComments, s.src.CountComments, nil},
		{&out.TotalLikes, s.src.SumLikes, nil},
		{&out.LastMonthPosts, s.src.CountPosts, &since},
		{&out.LastMonthComments, s.src.CountComments, &since},
		{&out.LastMonthLikes, s.src.SumLikes, &since},
	}
	for _, c := range counters {
		c := c
		g.Go(func() error {
			n, err := c.fn(ctx, c.since)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, apperr.Storage(err)
	}
	return out, nil
}

// PostTotals is the subset of the summary the post listing reports.
func (s *Service) PostTotals(ctx context.Context, ref time.Time) (Summary, error) {
	since := LastMonth(ref.In(s.loc)).Start

	var out Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.TotalPosts, err = s.src.CountPosts(ctx, nil); return })
	g.Go(func() (err error) { out.TotalLikes, err = s.src.SumLikes(ctx, nil); return })
	g.Go(func() (err error) { out.LastMonthPosts, err = s.src.CountPosts(ctx, &since); return })
	g.Go(func() (err error) { out.LastMonthLikes, err = s.src.SumLikes(ctx, &since); return })
	if err := g.Wait(); err != nil {
		return Summary{}, apperr.Storage(err)
	}
	return out, nil
}

// GraphData runs the nine aggregations concurrently. Either every leaf is
// filled or an error is returned.
func (s *Service) GraphData(ctx context.Context, ref time.Time) (*GraphData, error) {
	var out GraphData
	results := make([][]BucketCount, len(Granularities)*len(Streams))

	g, gctx := errgroup.WithContext(ctx)
	for gi, gr := range Granularities {
		for si, stream := range Streams {
			gr, stream := gr, stream
			idx := gi*len(Streams) + si
			g.Go(func() error {
				buckets, err := s.AggregateCount(gctx, stream, gr, ref)
				if err != nil {
					return fmt.Errorf("%s %s: %w", gr, stream, err)
				}
				results[idx] = buckets
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for gi, gr := range Granularities {
		series := out.series(gr)
		for si, stream := range Streams {
			series.set(stream, results[gi*len(Streams)+si])
		}
	}
	return &out, nil
}

// CachedGraphData serves graph data from the cache when a complete blob is
// present and computes (and stores) it otherwise. Cache failures are logged
// and bypassed.
func (s *Service) CachedGraphData(ctx context.Context, ref time.Time) (*GraphData, error) {
	if s.cache != nil {
		if data, ok := s.loadCached(ctx); ok {
			return data, nil
		}
	}
	return s.RefreshGraphData(ctx, ref)
}

// RefreshGraphData recomputes graph data and overwrites the cached copy.
func (s *Service) RefreshGraphData(ctx context.Context, ref time.Time) (*GraphData, error) {
	data, err := s.GraphData(ctx, ref)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.storeCached(ctx, data)
	}
	return data, nil
}

func (s *Service) cacheKey() string {
	return redisKeyGraphData + ":" + s.loc.String()
}

func (s *Service) loadCached(ctx context.Context) (*GraphData, bool) {
	raw, err := s.cache.Get(ctx, s.cacheKey())
	if err != nil {
		s.log.Warn("graph data cache read failed", zap.Error(err))
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var data GraphData
	if err := json.Unmarshal([]byte(raw), &data); err != nil || !data.complete() {
		s.log.Warn("discarding malformed graph data cache entry", zap.Error(err))
		return nil, false
	}
	return &data, true
}

func (s *Service) storeCached(ctx context.Context, data *GraphData) {
	b, err := json.Marshal(data)
	if err != nil {
		s.log.Warn("graph data encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(), string(b), s.ttl); err != nil {
		s.log.Warn("graph data cache write failed", zap.Error(err))
	}
}
