package job

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"gorm.io/gorm"
)

// FrameStorer Instantiation interface
type FrameStorer interface {
	Find(context.Context, *[]*Frame, orm.Pager, ...orm.QueryOption) (int64, error)
	Session(context.Context, ...func(*gorm.DB) error) error
}

// AnnotationStorer Instantiation interface
type AnnotationStorer interface {
	Find(context.Context, *[]*Annotation, orm.Pager, ...orm.QueryOption) (int64, error)
	Session(context.Context, ...func(*gorm.DB) error) error
}

// ListFrames 按序号升序返回前 limit 帧及任务总帧数
func (c Core) ListFrames(ctx context.Context, jobID string, limit int) ([]*Frame, int64, error) {
	if limit <= 0 {
		limit = 10000
	}
	frames := make([]*Frame, 0, min(limit, 1024))
	total, err := c.store.Frame().Find(ctx, &frames, limitPager{limit: limit},
		orm.Where("job_id = ?", jobID),
		orm.OrderBy("sequence_index ASC"),
	)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`ListFrames job[%s] err[%s]`, jobID, err.Error())
	}
	return frames, total, nil
}

// GetAnnotationStats 按类别聚合任务的检测框
func (c Core) GetAnnotationStats(ctx context.Context, jobID string) (*AnnotationStats, error) {
	var (
		classes []ClassStats
		frames  int64
	)
	err := c.store.Annotation().Session(ctx,
		func(tx *gorm.DB) error {
			return tx.Model(&Annotation{}).
				Select("class_name, MAX(class_color) AS class_color, COUNT(*) AS total_count, "+
					"COUNT(DISTINCT frame_id) AS frame_count, AVG(confidence) AS avg_confidence").
				Where("job_id = ?", jobID).
				Group("class_name").
				Order("total_count DESC").
				Scan(&classes).Error
		},
		func(tx *gorm.DB) error {
			return tx.Model(&Frame{}).Where("job_id = ?", jobID).Count(&frames).Error
		},
	)
	if err != nil {
		return nil, reason.ErrDB.Withf(`GetAnnotationStats job[%s] err[%s]`, jobID, err.Error())
	}

	out := AnnotationStats{Classes: classes, TotalFrames: int(frames)}
	if out.Classes == nil {
		out.Classes = make([]ClassStats, 0)
	}
	for _, cls := range classes {
		out.TotalAnnotations += cls.TotalCount
	}
	return &out, nil
}

// ListAnnotations 返回任务全部检测框的类别归属
func (c Core) ListAnnotations(ctx context.Context, jobID string) ([]AnnotationClass, error) {
	var out []AnnotationClass
	err := c.store.Annotation().Session(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Annotation{}).
			Select("id, class_name, sequence_index").
			Where("job_id = ?", jobID).
			Order("sequence_index ASC, id ASC").
			Scan(&out).Error
	})
	if err != nil {
		return nil, reason.ErrDB.Withf(`ListAnnotations job[%s] err[%s]`, jobID, err.Error())
	}
	return out, nil
}

var (
	errFrameOwned    = errors.New("frame id belongs to another job")
	errSequenceTaken = errors.New("sequence_index already used by another frame")
	errSequenceGap   = errors.New("sequence_index is not contiguous")
)

// Ingest 写入流水线上报的一批帧与检测框，并刷新任务计数
// 同一任务内同一帧 ID 重复上报时覆盖旧数据，帧 ID 不可跨任务
// 最后一批写入后，任务帧序号必须为从 0 开始的连续整数
func (c Core) Ingest(ctx context.Context, jobID string, in *IngestInput) (*IngestOutput, error) {
	j, err := c.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.Status == StatusCompleted {
		return nil, reason.ErrBadRequest.SetMsg("任务已完成，不再接收数据")
	}

	frames := make([]*Frame, 0, len(in.Frames))
	annotations := make([]*Annotation, 0, len(in.Frames)*4)
	frameIDs := make([]string, 0, len(in.Frames))
	sequences := make([]int, 0, len(in.Frames))
	seenIDs := make(map[string]struct{}, len(in.Frames))
	seenSeq := make(map[int]struct{}, len(in.Frames))
	for _, f := range in.Frames {
		if f.SequenceIndex < 0 {
			return nil, reason.ErrBadRequest.SetMsg("sequence_index 不能为负数")
		}
		if _, ok := seenSeq[f.SequenceIndex]; ok {
			return nil, reason.ErrBadRequest.Withf("sequence_index[%d] 重复", f.SequenceIndex)
		}
		seenSeq[f.SequenceIndex] = struct{}{}
		id := f.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, ok := seenIDs[id]; ok {
			return nil, reason.ErrBadRequest.Withf("帧 ID[%s] 重复", id)
		}
		seenIDs[id] = struct{}{}
		frameIDs = append(frameIDs, id)
		sequences = append(sequences, f.SequenceIndex)
		frames = append(frames, &Frame{
			ID:              id,
			JobID:           jobID,
			SequenceIndex:   f.SequenceIndex,
			SVO2FrameIndex:  f.SVO2FrameIndex,
			AnnotationCount: len(f.Annotations),
			ImagePath:       f.ImagePath,
		})
		for _, a := range f.Annotations {
			aid := a.ID
			if aid == "" {
				aid = uuid.NewString()
			}
			annotations = append(annotations, &Annotation{
				ID:            aid,
				JobID:         jobID,
				FrameID:       id,
				SequenceIndex: f.SequenceIndex,
				ClassName:     a.ClassName,
				ClassColor:    a.ClassColor,
				Confidence:    a.Confidence,
				TrackID:       a.TrackID,
				Box:           a.Box,
			})
		}
	}

	var frameCount, annotationCount int64
	err = c.store.Frame().Session(ctx,
		func(tx *gorm.DB) error {
			if len(frameIDs) == 0 {
				return nil
			}
			var n int64
			if err := tx.Model(&Frame{}).Where("id IN ? AND job_id <> ?", frameIDs, jobID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return errFrameOwned
			}
			if err := tx.Model(&Frame{}).
				Where("job_id = ? AND sequence_index IN ? AND id NOT IN ?", jobID, sequences, frameIDs).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return errSequenceTaken
			}
			if err := tx.Where("job_id = ? AND frame_id IN ?", jobID, frameIDs).Delete(&Annotation{}).Error; err != nil {
				return err
			}
			return tx.Where("job_id = ? AND id IN ?", jobID, frameIDs).Delete(&Frame{}).Error
		},
		func(tx *gorm.DB) error {
			if len(frames) == 0 {
				return nil
			}
			return tx.CreateInBatches(frames, c.batchSize).Error
		},
		func(tx *gorm.DB) error {
			if len(annotations) == 0 {
				return nil
			}
			return tx.CreateInBatches(annotations, c.batchSize).Error
		},
		func(tx *gorm.DB) error {
			if err := tx.Model(&Frame{}).Where("job_id = ?", jobID).Count(&frameCount).Error; err != nil {
				return err
			}
			if err := tx.Model(&Annotation{}).Where("job_id = ?", jobID).Count(&annotationCount).Error; err != nil {
				return err
			}
			status := StatusProcessing
			if in.Complete {
				status = StatusCompleted
				var maxSeq int64
				if err := tx.Model(&Frame{}).Where("job_id = ?", jobID).
					Select("COALESCE(MAX(sequence_index), -1)").Scan(&maxSeq).Error; err != nil {
					return err
				}
				if maxSeq+1 != frameCount {
					return errSequenceGap
				}
			}
			return tx.Model(&Job{}).Where("id = ?", jobID).Updates(map[string]any{
				"frame_count":      frameCount,
				"annotation_count": annotationCount,
				"status":           status,
				"updated_at":       orm.Now(),
			}).Error
		},
	)
	switch {
	case errors.Is(err, errFrameOwned), errors.Is(err, errSequenceTaken), errors.Is(err, errSequenceGap):
		return nil, reason.ErrBadRequest.Withf(`Ingest job[%s] err[%s]`, jobID, err.Error())
	case err != nil:
		return nil, reason.ErrDB.Withf(`Ingest job[%s] err[%s]`, jobID, err.Error())
	}

	slog.InfoContext(ctx, "job ingest",
		"job_id", jobID,
		"frames", len(frames),
		"annotations", len(annotations),
		"complete", in.Complete,
	)
	return &IngestOutput{
		Frames:          len(frames),
		Annotations:     len(annotations),
		FrameCount:      int(frameCount),
		AnnotationCount: int(annotationCount),
	}, nil
}
