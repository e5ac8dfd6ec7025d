package jobdb

import (
	"context"

	"github.com/gowvp/curation/internal/core/job"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var (
	_ job.FrameStorer      = Frame{}
	_ job.AnnotationStorer = Annotation{}
)

// Frame Related business namespaces
type Frame DB

// Find implements job.FrameStorer.
func (d Frame) Find(ctx context.Context, bs *[]*job.Frame, page orm.Pager, opts ...orm.QueryOption) (int64, error) {
	return orm.FindWithContext(ctx, d.db, bs, page, opts...)
}

// Session implements job.FrameStorer.
func (d Frame) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return session(ctx, d.db, changeFns...)
}

// Annotation Related business namespaces
type Annotation DB

// Find implements job.AnnotationStorer.
func (d Annotation) Find(ctx context.Context, bs *[]*job.Annotation, page orm.Pager, opts ...orm.QueryOption) (int64, error) {
	return orm.FindWithContext(ctx, d.db, bs, page, opts...)
}

// Session implements job.AnnotationStorer.
func (d Annotation) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return session(ctx, d.db, changeFns...)
}
