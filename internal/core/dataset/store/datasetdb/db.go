package datasetdb

import (
	"context"

	"github.com/gowvp/curation/internal/core/dataset"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var (
	_ dataset.Storer               = DB{}
	_ dataset.CuratedDatasetStorer = CuratedDataset{}
)

// DB Related business namespaces
type DB struct {
	db *gorm.DB
}

// NewDB instance object
func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// CuratedDataset Get business instance
func (d DB) CuratedDataset() dataset.CuratedDatasetStorer {
	return CuratedDataset(d)
}

// AutoMigrate sync database
func (d DB) AutoMigrate(ok bool) DB {
	if !ok {
		return d
	}
	if err := d.db.AutoMigrate(
		new(dataset.CuratedDataset),
	); err != nil {
		panic(err)
	}
	return d
}

// CuratedDataset Related business namespaces
type CuratedDataset DB

// Find implements dataset.CuratedDatasetStorer.
func (d CuratedDataset) Find(ctx context.Context, bs *[]*dataset.CuratedDataset, page orm.Pager, opts ...orm.QueryOption) (int64, error) {
	return orm.FindWithContext(ctx, d.db, bs, page, opts...)
}

// Get implements dataset.CuratedDatasetStorer.
func (d CuratedDataset) Get(ctx context.Context, model *dataset.CuratedDataset, opts ...orm.QueryOption) error {
	return orm.FirstWithContext(ctx, d.db, model, opts...)
}

// Del implements dataset.CuratedDatasetStorer.
func (d CuratedDataset) Del(ctx context.Context, model *dataset.CuratedDataset, opts ...orm.QueryOption) error {
	return orm.DeleteWithContext(ctx, d.db, model, opts...)
}

// Session implements dataset.CuratedDatasetStorer.
func (d CuratedDataset) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
