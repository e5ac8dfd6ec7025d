package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/gowvp/curation/internal/conf"
	"github.com/gowvp/curation/internal/core/dataset"
	datasetadapter "github.com/gowvp/curation/internal/core/dataset/adapter"
	"github.com/gowvp/curation/internal/core/job"
	jobadapter "github.com/gowvp/curation/internal/core/job/adapter"
	"github.com/gowvp/curation/internal/core/review"
	"github.com/gowvp/curation/internal/rpc"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

var ProviderSet = wire.NewSet(
	wire.Struct(new(Usecase), "*"),
	NewHTTPHandler,
	NewJobStore, NewJobCore, NewJobAPI,
	NewDatasetStore, NewDatasetCore, NewDatasetAPI,
	NewDiversityClient, NewReviewCore, NewReviewAPI,
	NewPipelineWebhookAPI,
)

type Usecase struct {
	Conf *conf.Bootstrap
	DB   *gorm.DB

	JobAPI             JobAPI
	DatasetAPI         DatasetAPI
	ReviewAPI          ReviewAPI
	PipelineWebhookAPI PipelineWebhookAPI

	Diversity *rpc.DiversityClient
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	cfg := uc.Conf.Server
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	// 如果启用了 Pprof，设置 Pprof 监控
	if cfg.HTTP.PProf.Enabled {
		web.SetupPProf(g, &cfg.HTTP.PProf.AccessIps)
	}

	setupRouter(g, uc)
	return g
}

// NewDiversityClient 未配置分析服务地址时返回 nil，审核会话不提供多样性分析
func NewDiversityClient(bc *conf.Bootstrap) (*rpc.DiversityClient, func(), error) {
	cfg := bc.Curation
	if cfg.AnalysisAddr == "" {
		slog.Warn("diversity analysis disabled, AnalysisAddr is empty")
		return nil, func() {}, nil
	}
	cli, err := rpc.NewDiversityClient(cfg.AnalysisAddr, rpc.WithTimeout(cfg.AnalysisTimeout.Duration()))
	if err != nil {
		return nil, nil, err
	}
	return cli, func() { _ = cli.Close() }, nil
}

// NewReviewCore 创建审核会话核心服务，并启动空闲会话清理
func NewReviewCore(bc *conf.Bootstrap, jobCore job.Core, datasetCore dataset.Core, cli *rpc.DiversityClient) (review.Core, func()) {
	cfg := bc.Curation
	opts := []review.Option{
		review.WithFrameSource(jobadapter.NewFrameSource(jobCore)),
		review.WithDatasetCreator(datasetadapter.NewCreator(datasetCore)),
		review.WithConfig(review.Config{
			BaseFrameRate: cfg.BaseFrameRate,
			FrameLimit:    cfg.FrameLimit,
			IdleTimeout:   cfg.SessionIdleTimeout.Duration(),
		}),
	}
	if cli != nil {
		opts = append(opts, review.WithDiversityAnalyzer(cli))
	}
	core := review.NewCore(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	go core.StartJanitor(ctx)
	return core, cancel
}
