package jobdb

import (
	"context"

	"github.com/gowvp/curation/internal/core/job"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ job.JobStorer = Job{}

// Job Related business namespaces
type Job DB

// NewJob instance object
func NewJob(db *gorm.DB) Job {
	return Job{db: db}
}

// Find implements job.JobStorer.
func (d Job) Find(ctx context.Context, bs *[]*job.Job, page orm.Pager, opts ...orm.QueryOption) (int64, error) {
	return orm.FindWithContext(ctx, d.db, bs, page, opts...)
}

// Get implements job.JobStorer.
func (d Job) Get(ctx context.Context, model *job.Job, opts ...orm.QueryOption) error {
	return orm.FirstWithContext(ctx, d.db, model, opts...)
}

// Add implements job.JobStorer.
func (d Job) Add(ctx context.Context, model *job.Job) error {
	return d.db.WithContext(ctx).Create(model).Error
}

// Edit implements job.JobStorer.
func (d Job) Edit(ctx context.Context, model *job.Job, changeFn func(*job.Job), opts ...orm.QueryOption) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := orm.FirstWithContext(ctx, tx, model, opts...); err != nil {
			return err
		}
		changeFn(model)
		return tx.Save(model).Error
	})
}

// Del implements job.JobStorer.
func (d Job) Del(ctx context.Context, model *job.Job, opts ...orm.QueryOption) error {
	return orm.DeleteWithContext(ctx, d.db, model, opts...)
}

// Session implements job.JobStorer.
func (d Job) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return session(ctx, d.db, changeFns...)
}
