package job

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// JobStorer Instantiation interface
type JobStorer interface {
	Find(context.Context, *[]*Job, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Job, ...orm.QueryOption) error
	Add(context.Context, *Job) error
	Edit(context.Context, *Job, func(*Job), ...orm.QueryOption) error
	Del(context.Context, *Job, ...orm.QueryOption) error

	Session(context.Context, ...func(*gorm.DB) error) error
}

var statuses = []string{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// FindJobs Paginated search
func (c Core) FindJobs(ctx context.Context, in *FindJobInput) ([]*Job, int64, error) {
	query := orm.NewQuery(2).OrderBy("created_at DESC")
	if in.Status != "" {
		query.Where("status = ?", in.Status)
	}
	if in.Key != "" {
		query.Where("name LIKE ?", "%"+in.Key+"%")
	}

	items := make([]*Job, 0, in.Limit())
	total, err := c.store.Job().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetJob Query a single object
func (c Core) GetJob(ctx context.Context, id string) (*Job, error) {
	var out Job
	if err := c.store.Job().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%s] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%s] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// GetReviewableJob 查询可进入审核的任务，未完成的任务返回 ErrBadRequest
func (c Core) GetReviewableJob(ctx context.Context, id string) (*Job, error) {
	out, err := c.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !out.Reviewable() {
		return nil, reason.ErrBadRequest.SetMsg(fmt.Sprintf("任务状态为 %s，完成后才能审核", out.Status))
	}
	return out, nil
}

// AddJob Insert into database
func (c Core) AddJob(ctx context.Context, in *AddJobInput) (*Job, error) {
	var out Job
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	out.Status = StatusPending
	out.CreatedAt = orm.Now()
	out.UpdatedAt = orm.Now()

	if err := c.store.Job().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// EditJob Update object information
func (c Core) EditJob(ctx context.Context, in *EditJobInput, id string) (*Job, error) {
	if in.Status != "" && !slices.Contains(statuses, in.Status) {
		return nil, reason.ErrBadRequest.SetMsg("未知的任务状态: " + in.Status)
	}
	// 已完成的任务可能被数据集引用，状态不可回退
	if in.Status != "" && in.Status != StatusCompleted {
		j, err := c.GetJob(ctx, id)
		if err != nil {
			return nil, err
		}
		if j.Status == StatusCompleted {
			return nil, reason.ErrBadRequest.Withf("任务[%s]已完成，不能变更为 %s", id, in.Status)
		}
	}

	var out Job
	if err := c.store.Job().Edit(ctx, &out, func(b *Job) {
		if in.Name != "" {
			b.Name = in.Name
		}
		if in.Status != "" {
			b.Status = in.Status
		}
		b.Message = in.Message
		b.UpdatedAt = orm.Now()
	}, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Edit id[%s] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Edit id[%s] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// DelJob 删除任务及其帧与检测框
func (c Core) DelJob(ctx context.Context, id string) (*Job, error) {
	out, err := c.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	err = c.store.Job().Session(ctx,
		func(tx *gorm.DB) error {
			return tx.Where("job_id = ?", id).Delete(&Annotation{}).Error
		},
		func(tx *gorm.DB) error {
			return tx.Where("job_id = ?", id).Delete(&Frame{}).Error
		},
		func(tx *gorm.DB) error {
			return tx.Where("id = ?", id).Delete(&Job{}).Error
		},
	)
	if err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%s] err[%s]`, id, err.Error())
	}
	slog.InfoContext(ctx, "job deleted", "job_id", id, "frames", out.FrameCount, "annotations", out.AnnotationCount)
	return out, nil
}
