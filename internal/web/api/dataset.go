package api

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/curation/internal/core/dataset"
	"github.com/gowvp/curation/internal/core/dataset/store/datasetdb"
	"github.com/gowvp/curation/internal/data"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// DatasetAPI 已提交数据集的查询
type DatasetAPI struct {
	datasetCore dataset.Core
}

// NewDatasetStore 创建数据集存储层，建表后补齐历史数据的版本号
func NewDatasetStore(db *gorm.DB) dataset.Storer {
	store := datasetdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
	if err := data.MigrateDatasetVersions(db); err != nil {
		slog.Error("MigrateDatasetVersions", "err", err)
	}
	return store
}

func NewDatasetCore(store dataset.Storer) dataset.Core {
	return dataset.NewCore(store)
}

func NewDatasetAPI(core dataset.Core) DatasetAPI {
	return DatasetAPI{datasetCore: core}
}

func registerDataset(g gin.IRouter, api DatasetAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/datasets", handler...)
	group.GET("", web.WrapH(api.findDatasets))
	group.GET("/:id", web.WrapH(api.getDataset))
	group.DELETE("/:id", web.WrapH(api.delDataset))
}

func (a DatasetAPI) findDatasets(c *gin.Context, in *dataset.FindCuratedDatasetInput) (any, error) {
	items, total, err := a.datasetCore.FindCuratedDatasets(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a DatasetAPI) getDataset(c *gin.Context, _ *struct{}) (*dataset.CuratedDataset, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, reason.ErrBadRequest.SetMsg("id 格式错误")
	}
	return a.datasetCore.GetCuratedDataset(c.Request.Context(), id)
}

func (a DatasetAPI) delDataset(c *gin.Context, _ *struct{}) (*dataset.CuratedDataset, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, reason.ErrBadRequest.SetMsg("id 格式错误")
	}
	return a.datasetCore.DelCuratedDataset(c.Request.Context(), id)
}
