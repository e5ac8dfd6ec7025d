package api

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/curation/internal/conf"
	"github.com/gowvp/curation/internal/core/job"
	"github.com/gowvp/curation/internal/core/job/store/jobdb"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// JobAPI 为 http 提供任务查询与写入
type JobAPI struct {
	jobCore job.Core
}

// NewJobStore 创建任务存储层
func NewJobStore(db *gorm.DB) job.Storer {
	return jobdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
}

// NewJobCore 创建任务核心服务，并启动失败任务清理
func NewJobCore(store job.Storer, bc *conf.Bootstrap) job.Core {
	core := job.NewCore(store)
	go core.StartCleanupWorker(context.Background(), bc.Curation.FailedJobRetainDays)
	return core
}

func NewJobAPI(core job.Core) JobAPI {
	return JobAPI{jobCore: core}
}

func registerJob(g gin.IRouter, api JobAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/jobs", handler...)
	group.GET("", web.WrapH(api.findJobs))
	group.POST("", web.WrapH(api.addJob))
	group.GET("/:id", web.WrapH(api.getJob))
	group.PUT("/:id", web.WrapH(api.editJob))
	group.DELETE("/:id", web.WrapH(api.delJob))
	group.GET("/:id/frames", web.WrapH(api.listFrames))
	group.GET("/:id/stats", web.WrapH(api.getStats))
	group.POST("/:id/ingest", web.WrapH(api.ingest))
}

func (a JobAPI) findJobs(c *gin.Context, in *job.FindJobInput) (any, error) {
	items, total, err := a.jobCore.FindJobs(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a JobAPI) getJob(c *gin.Context, _ *struct{}) (*job.Job, error) {
	return a.jobCore.GetJob(c.Request.Context(), c.Param("id"))
}

func (a JobAPI) addJob(c *gin.Context, in *job.AddJobInput) (*job.Job, error) {
	return a.jobCore.AddJob(c.Request.Context(), in)
}

func (a JobAPI) editJob(c *gin.Context, in *job.EditJobInput) (*job.Job, error) {
	return a.jobCore.EditJob(c.Request.Context(), in, c.Param("id"))
}

func (a JobAPI) delJob(c *gin.Context, _ *struct{}) (*job.Job, error) {
	return a.jobCore.DelJob(c.Request.Context(), c.Param("id"))
}

// listFrames 按序号返回任务帧，limit 缺省时取 10000
func (a JobAPI) listFrames(c *gin.Context, _ *struct{}) (any, error) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, total, err := a.jobCore.ListFrames(c.Request.Context(), c.Param("id"), limit)
	return gin.H{"items": items, "total": total}, err
}

func (a JobAPI) getStats(c *gin.Context, _ *struct{}) (*job.AnnotationStats, error) {
	return a.jobCore.GetAnnotationStats(c.Request.Context(), c.Param("id"))
}

func (a JobAPI) ingest(c *gin.Context, in *job.IngestInput) (*job.IngestOutput, error) {
	return a.jobCore.Ingest(c.Request.Context(), c.Param("id"), in)
}
