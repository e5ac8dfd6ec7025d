package data

import (
	"context"
	"log/slog"

	"github.com/gowvp/curation/internal/core/dataset"
	"gorm.io/gorm"
)

// datasetVersionRow 迁移时只读取排序所需的列
type datasetVersionRow struct {
	ID          int64
	SourceJobID string
	Version     int
}

// MigrateDatasetVersions 为版本号为 0 的历史数据集补齐版本
// 同一任务下按创建时间依次编号，接在已有最大版本之后
func MigrateDatasetVersions(db *gorm.DB) error {
	ctx := context.Background()

	if !db.Migrator().HasTable(&dataset.CuratedDataset{}) {
		slog.Info("没有需要迁移的数据集")
		return nil
	}

	var pending int64
	if err := db.WithContext(ctx).Model(&dataset.CuratedDataset{}).Where("version = ?", 0).Count(&pending).Error; err != nil {
		return err
	}
	if pending == 0 {
		return nil
	}

	var rows []datasetVersionRow
	if err := db.WithContext(ctx).Model(&dataset.CuratedDataset{}).
		Select("id, source_job_id, version").
		Order("source_job_id ASC, created_at ASC, id ASC").
		Scan(&rows).Error; err != nil {
		slog.Error("查询数据集失败", "err", err)
		return err
	}

	latest := make(map[string]int)
	for _, r := range rows {
		latest[r.SourceJobID] = max(latest[r.SourceJobID], r.Version)
	}

	migrated := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			if r.Version != 0 {
				continue
			}
			latest[r.SourceJobID]++
			if err := tx.Model(&dataset.CuratedDataset{}).
				Where("id = ?", r.ID).
				Update("version", latest[r.SourceJobID]).Error; err != nil {
				return err
			}
			migrated++
		}
		return nil
	})
	if err != nil {
		slog.Error("数据集版本迁移失败", "err", err)
		return err
	}
	slog.Info("数据集版本迁移完成", "total", pending, "migrated", migrated)
	return nil
}
