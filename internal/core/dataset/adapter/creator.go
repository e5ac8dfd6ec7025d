package adapter

import (
	"context"

	"github.com/gowvp/curation/internal/core/dataset"
	"github.com/gowvp/curation/internal/core/review"
	"github.com/jinzhu/copier"
)

var _ review.DatasetCreator = (*Creator)(nil)

// Creator 实现 review.DatasetCreator 接口
// 审核会话提交的请求由 dataset.Core 分配版本并持久化
type Creator struct {
	datasetCore dataset.Core
}

// NewCreator 创建数据集适配器
// Wire 通过此函数自动绑定 dataset.Core -> review.DatasetCreator
func NewCreator(datasetCore dataset.Core) review.DatasetCreator {
	return &Creator{datasetCore: datasetCore}
}

// CreateCuratedDataset implements review.DatasetCreator.
func (a *Creator) CreateCuratedDataset(ctx context.Context, req *review.CuratedDatasetRequest) (*review.CuratedDatasetRef, error) {
	var in dataset.AddCuratedDatasetInput
	if err := copier.CopyWithOption(&in, req, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	out, err := a.datasetCore.AddCuratedDataset(ctx, &in)
	if err != nil {
		return nil, err
	}
	return &review.CuratedDatasetRef{ID: out.ID, Version: out.Version, Name: out.Name}, nil
}
