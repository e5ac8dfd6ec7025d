package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/curation/internal/core/job"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// PipelineWebhookAPI 接收检测流水线回调，登记任务并写入帧与检测框
type PipelineWebhookAPI struct {
	log     *slog.Logger
	jobCore job.Core
	limiter func(identifier string) bool
}

func NewPipelineWebhookAPI(jobCore job.Core) PipelineWebhookAPI {
	return PipelineWebhookAPI{
		log:     slog.With("hook", "pipeline"),
		jobCore: jobCore,
		limiter: web.IDRateLimiter(0.2, 1, 3*time.Minute),
	}
}

func registerPipelineWebhook(r gin.IRouter, api PipelineWebhookAPI, handler ...gin.HandlerFunc) {
	group := r.Group("/pipeline", handler...)
	group.POST("/keepalive", web.WrapH(api.onKeepalive))
	group.POST("/started", web.WrapH(api.onStarted))
	group.POST("/frames", web.WrapH(api.onFrames))
	group.POST("/failed", web.WrapH(api.onFailed))
}

// onKeepalive 心跳按来源 IP 限流记录
func (a PipelineWebhookAPI) onKeepalive(c *gin.Context, in *PipelineKeepaliveInput) (PipelineWebhookOutput, error) {
	if !a.limiter(c.ClientIP()) {
		return newPipelineWebhookOutputOK(), nil
	}
	var activeJobs int
	var uptimeSeconds int64
	if in.Stats != nil {
		activeJobs = in.Stats.ActiveJobs
		uptimeSeconds = in.Stats.UptimeSeconds
	}
	a.log.InfoContext(c.Request.Context(), "pipeline keepalive",
		"timestamp", in.Timestamp,
		"message", in.Message,
		"active_jobs", activeJobs,
		"uptime_seconds", uptimeSeconds,
	)
	return newPipelineWebhookOutputOK(), nil
}

// onStarted 登记任务，已存在时只更新状态
func (a PipelineWebhookAPI) onStarted(c *gin.Context, in *PipelineStartedInput) (PipelineWebhookOutput, error) {
	ctx := c.Request.Context()
	if in.JobID == "" {
		return PipelineWebhookOutput{}, reason.ErrBadRequest.SetMsg("job_id 不能为空")
	}
	a.log.InfoContext(ctx, "pipeline job started", "job_id", in.JobID, "source_path", in.SourcePath)

	var err error
	if j, e := a.jobCore.GetJob(ctx, in.JobID); e == nil {
		if j.Reviewable() {
			a.log.WarnContext(ctx, "started callback for completed job", "job_id", in.JobID)
		}
		_, err = a.jobCore.EditJob(ctx, &job.EditJobInput{Name: in.Name, Status: job.StatusProcessing}, in.JobID)
	} else {
		_, err = a.jobCore.AddJob(ctx, &job.AddJobInput{ID: in.JobID, Name: in.Name, SourcePath: in.SourcePath})
	}
	if err != nil {
		return PipelineWebhookOutput{}, err
	}
	return newPipelineWebhookOutputOK(), nil
}

// onFrames 写入一批检测结果，最后一批写入后任务进入可审核状态
func (a PipelineWebhookAPI) onFrames(c *gin.Context, in *PipelineFramesInput) (PipelineWebhookOutput, error) {
	out, err := a.jobCore.Ingest(c.Request.Context(), in.JobID, &job.IngestInput{Frames: in.Frames, Complete: in.Last})
	if err != nil {
		a.log.ErrorContext(c.Request.Context(), "ingest failed", "job_id", in.JobID, "err", err)
		return PipelineWebhookOutput{}, err
	}
	if in.Last {
		a.log.InfoContext(c.Request.Context(), "pipeline job completed",
			"job_id", in.JobID,
			"frame_count", out.FrameCount,
			"annotation_count", out.AnnotationCount,
		)
	}
	return newPipelineWebhookOutputOK(), nil
}

func (a PipelineWebhookAPI) onFailed(c *gin.Context, in *PipelineFailedInput) (PipelineWebhookOutput, error) {
	a.log.WarnContext(c.Request.Context(), "pipeline job failed",
		"job_id", in.JobID,
		"reason", in.Reason,
		"message", in.Message,
	)
	msg := in.Reason
	if in.Message != "" {
		msg += ": " + in.Message
	}
	if _, err := a.jobCore.EditJob(c.Request.Context(), &job.EditJobInput{Status: job.StatusFailed, Message: msg}, in.JobID); err != nil {
		return PipelineWebhookOutput{}, err
	}
	return newPipelineWebhookOutputOK(), nil
}
