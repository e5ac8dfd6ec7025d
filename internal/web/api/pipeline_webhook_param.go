package api

import "github.com/gowvp/curation/internal/core/job"

// PipelineKeepaliveInput 心跳回调请求体
type PipelineKeepaliveInput struct {
	Timestamp int64                `json:"timestamp"` // Unix 时间戳 (毫秒)
	Stats     *PipelineGlobalStats `json:"stats"`     // 全局统计信息
	Message   string               `json:"message"`
}

// PipelineGlobalStats 流水线全局统计
type PipelineGlobalStats struct {
	ActiveJobs      int   `json:"active_jobs"`
	ProcessedFrames int64 `json:"processed_frames"`
	UptimeSeconds   int64 `json:"uptime_seconds"`
}

// PipelineStartedInput 任务开始处理
type PipelineStartedInput struct {
	JobID      string `json:"job_id"`
	Name       string `json:"name"`
	SourcePath string `json:"source_path"` // SVO2 文件路径
}

// PipelineFramesInput 一批检测结果，last 为 true 表示任务处理完毕
type PipelineFramesInput struct {
	JobID  string            `json:"job_id"`
	Frames []job.IngestFrame `json:"frames"`
	Last   bool              `json:"last"`
}

// PipelineFailedInput 任务处理失败
type PipelineFailedInput struct {
	JobID   string `json:"job_id"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// PipelineWebhookOutput 通用响应体
type PipelineWebhookOutput struct {
	Code int    `json:"code"` // 0 表示成功
	Msg  string `json:"msg"`
}

func newPipelineWebhookOutputOK() PipelineWebhookOutput {
	return PipelineWebhookOutput{Code: 0, Msg: "success"}
}
