package api

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/ixugo/goddd/pkg/web"
)

var startRuntime = time.Now()

func setupRouter(r *gin.Engine, uc *Usecase) {
	r.Use(
		// 格式化输出到控制台，然后记录到日志
		gin.CustomRecovery(func(c *gin.Context, err any) {
			slog.ErrorContext(c.Request.Context(), "panic", "err", err, "stack", string(debug.Stack()))
			c.AbortWithStatus(http.StatusInternalServerError)
		}),
		web.Metrics(),
		web.Logger(
			web.IgnoreMethod(http.MethodOptions),
			web.IgnorePrefix("/health"),
		),
		web.LoggerWithBody(web.DefaultBodyLimit,
			web.IgnoreBool(!uc.Conf.Server.Debug),
			web.IgnoreMethod(http.MethodOptions),
			web.IgnorePrefix("/pipeline/frames"), // 批量检测结果体积较大
		),
	)
	go web.CountGoroutines(10*time.Minute, 20)

	origins := uc.Conf.Server.HTTP.AllowOrigins
	r.Use(cors.New(cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Accept", "Content-Length", "Content-Type", "Accept-Language",
			"Origin", "Authorization", "Referer", "User-Agent",
			"Accept-Encoding", "Cache-Control", "X-Requested-With", "X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc: func(origin string) bool {
			return len(origins) == 0 || slices.Contains(origins, origin)
		},
	}))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"msg": "来到了无人的荒漠"})
	})
	r.GET("/health", web.WrapH(uc.getHealth))

	// 帧列表、统计与汇总的响应体较大
	zip := r.Group("", gzip.Gzip(gzip.DefaultCompression))
	registerJob(zip, uc.JobAPI)
	registerReview(zip, uc.ReviewAPI)
	registerDataset(zip, uc.DatasetAPI)
	registerPipelineWebhook(r, uc.PipelineWebhookAPI)
}

type getHealthOutput struct {
	Version   string    `json:"version"`
	StartAt   time.Time `json:"start_at"`
	Sessions  int       `json:"sessions"`  // 当前审核会话数
	Diversity string    `json:"diversity"` // 多样性分析服务状态 disabled | ok | 错误信息
}

func (uc *Usecase) getHealth(c *gin.Context, _ *struct{}) (getHealthOutput, error) {
	out := getHealthOutput{
		Version:   uc.Conf.BuildVersion,
		StartAt:   startRuntime,
		Sessions:  uc.ReviewAPI.reviewCore.Sessions(),
		Diversity: "disabled",
	}
	if uc.Diversity != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		out.Diversity = "ok"
		if err := uc.Diversity.Ping(ctx); err != nil {
			out.Diversity = err.Error()
		}
	}
	return out, nil
}
