package adapter

import (
	"context"

	"github.com/gowvp/curation/internal/core/job"
	"github.com/gowvp/curation/internal/core/review"
)

var _ review.FrameSource = (*FrameSource)(nil)

// FrameSource 实现 review.FrameSource 接口
// 将 job.Core 的帧与检测数据适配给审核领域使用
type FrameSource struct {
	jobCore job.Core
}

// NewFrameSource 创建帧数据适配器
// Wire 通过此函数自动绑定 job.Core -> review.FrameSource
func NewFrameSource(jobCore job.Core) review.FrameSource {
	return &FrameSource{jobCore: jobCore}
}

// ListFrames 仅已完成的任务可以加载
func (a *FrameSource) ListFrames(ctx context.Context, jobID string, limit int) ([]review.FrameThumbnail, int, error) {
	if _, err := a.jobCore.GetReviewableJob(ctx, jobID); err != nil {
		return nil, 0, err
	}
	frames, total, err := a.jobCore.ListFrames(ctx, jobID, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]review.FrameThumbnail, 0, len(frames))
	for _, f := range frames {
		out = append(out, review.FrameThumbnail{
			FrameID:         f.ID,
			SequenceIndex:   f.SequenceIndex,
			SVO2FrameIndex:  f.SVO2FrameIndex,
			AnnotationCount: f.AnnotationCount,
		})
	}
	return out, int(total), nil
}

// GetAnnotationStats 类别统计
func (a *FrameSource) GetAnnotationStats(ctx context.Context, jobID string) (*review.AnnotationStats, error) {
	stats, err := a.jobCore.GetAnnotationStats(ctx, jobID)
	if err != nil {
		return nil, err
	}
	out := review.AnnotationStats{
		Classes:          make([]review.AnnotationClassStats, 0, len(stats.Classes)),
		TotalAnnotations: stats.TotalAnnotations,
		TotalFrames:      stats.TotalFrames,
	}
	for _, c := range stats.Classes {
		out.Classes = append(out.Classes, review.AnnotationClassStats{
			ClassName:     c.ClassName,
			ClassColor:    c.ClassColor,
			TotalCount:    c.TotalCount,
			FrameCount:    c.FrameCount,
			AvgConfidence: c.AvgConfidence,
		})
	}
	return &out, nil
}

// ListAnnotations 检测框类别目录
func (a *FrameSource) ListAnnotations(ctx context.Context, jobID string) ([]review.AnnotationRef, error) {
	items, err := a.jobCore.ListAnnotations(ctx, jobID)
	if err != nil {
		return nil, err
	}
	out := make([]review.AnnotationRef, 0, len(items))
	for _, v := range items {
		out = append(out, review.AnnotationRef{
			ID:         v.ID,
			ClassName:  v.ClassName,
			FrameIndex: v.SequenceIndex,
		})
	}
	return out, nil
}
