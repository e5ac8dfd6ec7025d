package jobdb

import (
	"context"

	"github.com/gowvp/curation/internal/core/job"
	"gorm.io/gorm"
)

var _ job.Storer = DB{}

// DB Related business namespaces
type DB struct {
	db *gorm.DB
}

// NewDB instance object
func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// Job Get business instance
func (d DB) Job() job.JobStorer {
	return Job(d)
}

// Frame Get business instance
func (d DB) Frame() job.FrameStorer {
	return Frame(d)
}

// Annotation Get business instance
func (d DB) Annotation() job.AnnotationStorer {
	return Annotation(d)
}

// AutoMigrate sync database
func (d DB) AutoMigrate(ok bool) DB {
	if !ok {
		return d
	}
	if err := d.db.AutoMigrate(
		new(job.Job),
		new(job.Frame),
		new(job.Annotation),
	); err != nil {
		panic(err)
	}
	return d
}

// session 在同一事务中依次执行
func session(ctx context.Context, db *gorm.DB, changeFns ...func(*gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
