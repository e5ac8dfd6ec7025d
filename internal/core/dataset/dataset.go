package dataset

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

var (
	errNameRequired      = errors.New("数据集名称不能为空")
	errSourceJobRequired = errors.New("source_job_id 不能为空")
	errNegativeCount     = errors.New("数量不能为负数")
	errCountOverflow     = errors.New("过滤后的数量不能大于原始数量")
)

// CuratedDatasetStorer Instantiation interface
type CuratedDatasetStorer interface {
	Find(context.Context, *[]*CuratedDataset, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *CuratedDataset, ...orm.QueryOption) error
	Del(context.Context, *CuratedDataset, ...orm.QueryOption) error

	Session(context.Context, ...func(*gorm.DB) error) error
}

// FindCuratedDatasets Paginated search
func (c Core) FindCuratedDatasets(ctx context.Context, in *FindCuratedDatasetInput) ([]*CuratedDataset, int64, error) {
	query := orm.NewQuery(1).OrderBy("created_at DESC")
	if in.SourceJobID != "" {
		query.Where("source_job_id = ?", in.SourceJobID)
	}

	items := make([]*CuratedDataset, 0, in.Limit())
	total, err := c.store.CuratedDataset().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetCuratedDataset Query a single object
func (c Core) GetCuratedDataset(ctx context.Context, id int64) (*CuratedDataset, error) {
	var out CuratedDataset
	if err := c.store.CuratedDataset().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// AddCuratedDataset 创建数据集，版本号为同一任务下已有最大版本 +1
func (c Core) AddCuratedDataset(ctx context.Context, in *AddCuratedDatasetInput) (*CuratedDataset, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, reason.ErrBadRequest.SetMsg(err.Error())
	}

	var out CuratedDataset
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}
	out.ExcludedFrameIDs = Strings(in.ExcludedFrameIDs)
	out.ExcludedAnnotationIDs = Strings(in.ExcludedAnnotationIDs)
	out.CreatedAt = orm.Now()

	err := c.store.CuratedDataset().Session(ctx, func(tx *gorm.DB) error {
		var latest int
		if err := tx.Model(&CuratedDataset{}).
			Select("COALESCE(MAX(version), 0)").
			Where("source_job_id = ?", in.SourceJobID).
			Scan(&latest).Error; err != nil {
			return err
		}
		out.Version = latest + 1
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, reason.ErrDB.Withf(`Add job[%s] err[%s]`, in.SourceJobID, err.Error())
	}

	slog.InfoContext(ctx, "curated dataset saved",
		"id", out.ID,
		"source_job_id", out.SourceJobID,
		"version", out.Version,
		"filtered_frames", out.FilteredFrameCount,
		"filtered_annotations", out.FilteredAnnotationCount,
	)
	return &out, nil
}

// DelCuratedDataset Delete object
func (c Core) DelCuratedDataset(ctx context.Context, id int64) (*CuratedDataset, error) {
	var out CuratedDataset
	if err := c.store.CuratedDataset().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}
