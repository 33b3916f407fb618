package app

import (
	"context"
	"time"

	"github.com/mx-space/engagement/internal/config"
	"github.com/mx-space/engagement/internal/modules/stats/aggregate"
	pkgcron "github.com/mx-space/engagement/internal/pkg/cron"
)

const jobPrewarmStatistics = "prewarm_statistics"

// registerCronJobs registers all scheduled background jobs. Prewarming only
// runs when graph data has a cache to land in.
func registerCronJobs(sched *pkgcron.Scheduler, stats *aggregate.Service, cfg *config.AppConfig, cached bool) error {
	if !cached {
		return nil
	}
	return sched.Register(pkgcron.Job{
		Name:      jobPrewarmStatistics,
		Interval:  cfg.Stats.PrewarmInterval,
		Immediate: true,
		Fn: func(ctx context.Context) error {
			_, err := stats.RefreshGraphData(ctx, time.Now())
			return err
		},
	})
}
