package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// StartCleanupWorker 定时删除失败超过 days 天的任务及其帧与检测框
// 启动时先执行一次，随后每 24 小时执行一次，ctx 取消时退出
func (c Core) StartCleanupWorker(ctx context.Context, days int) {
	if days <= 0 {
		slog.Info("failed job cleanup disabled", "days", days)
		return
	}
	slog.Info("failed job cleanup worker started", "retain_days", days)

	c.CleanupFailedJobs(ctx, time.Now().AddDate(0, 0, -days))

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CleanupFailedJobs(ctx, time.Now().AddDate(0, 0, -days))
		}
	}
}

// CleanupFailedJobs 分批删除 cutoff 之前更新且状态为 failed 的任务，返回删除数量
func (c Core) CleanupFailedJobs(ctx context.Context, cutoff time.Time) int {
	const batchSize = 100
	var total int
	for {
		var jobs []*Job
		pager := web.PagerFilter{Page: 1, Size: batchSize}
		_, err := c.store.Job().Find(ctx, &jobs, &pager,
			orm.Where("status = ?", StatusFailed),
			orm.Where("updated_at < ?", orm.Time{Time: cutoff}),
		)
		if err != nil {
			slog.ErrorContext(ctx, "failed to query expired jobs", "err", err)
			break
		}
		if len(jobs) == 0 {
			break
		}

		ids := make([]string, 0, len(jobs))
		for _, j := range jobs {
			ids = append(ids, j.ID)
		}
		err = c.store.Job().Session(ctx,
			func(tx *gorm.DB) error {
				return tx.Where("job_id IN ?", ids).Delete(&Annotation{}).Error
			},
			func(tx *gorm.DB) error {
				return tx.Where("job_id IN ?", ids).Delete(&Frame{}).Error
			},
			func(tx *gorm.DB) error {
				return tx.Where("id IN ?", ids).Delete(&Job{}).Error
			},
		)
		if err != nil {
			slog.WarnContext(ctx, "failed to batch delete jobs", "count", len(ids), "err", err)
			break
		}
		total += len(ids)
	}

	slog.InfoContext(ctx, "failed job cleanup completed", "jobs_deleted", total, "cutoff", cutoff.Format(time.DateTime))
	return total
}
