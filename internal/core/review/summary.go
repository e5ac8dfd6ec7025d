package review

import (
	"fmt"
	"strings"
)

// Snapshot 会话状态副本，汇总函数只依赖该结构，每次读取重新计算
type Snapshot struct {
	JobID                   string
	Total                   int
	Frames                  []FrameThumbnail
	ClassStats              []AnnotationClassStats
	Annotations             []AnnotationRef
	OriginalAnnotationCount int
	Exclusion               ExclusionState
	Diversity               DiversityAnalysisResult
	AppliedThresholds       *DiversityThresholds
}

// effectiveFrames 手动排除 ∪ 已应用的多样性排除
func (s Snapshot) effectiveFrames() set[int] {
	frames := newSet(s.Exclusion.ExcludedFrameIndices...)
	if s.Exclusion.DiversityApplied {
		frames = frames.union(newSet(s.Exclusion.DiversityExcludedFrameIndices...))
	}
	return frames
}

// effectiveAnnotations 手动排除的检测框 ∪ 被排除类别下的检测框
// 目录中没有任何检测框的被排除类别，按统计数量计入 unresolved
// 目录外的手动排除检测框可能属于这些类别，从 unresolved 中扣除，不重复计数
func (s Snapshot) effectiveAnnotations() (ids set[string], unresolved int) {
	classes := newSet(s.Exclusion.ExcludedClasses...)
	ids = newSet(s.Exclusion.ExcludedAnnotationIDs...)

	seen := make(set[string], len(classes))
	for _, ref := range s.Annotations {
		if classes.has(ref.ClassName) {
			ids[ref.ID] = struct{}{}
			seen[ref.ClassName] = struct{}{}
		}
	}
	for _, st := range s.ClassStats {
		if classes.has(st.ClassName) && !seen.has(st.ClassName) {
			unresolved += st.TotalCount
		}
	}
	if unresolved == 0 {
		return ids, 0
	}
	known := make(set[string], len(s.Annotations))
	for _, ref := range s.Annotations {
		known[ref.ID] = struct{}{}
	}
	for _, id := range s.Exclusion.ExcludedAnnotationIDs {
		if !known.has(id) {
			unresolved--
		}
	}
	return ids, max(unresolved, 0)
}

// Summarize 计算过滤后的数量与缩减比例
func Summarize(s Snapshot) CurationSummary {
	framesRemoved := len(s.effectiveFrames())
	ids, unresolved := s.effectiveAnnotations()
	annotationsRemoved := len(ids) + unresolved

	out := CurationSummary{
		OriginalFrameCount:      s.Total,
		OriginalAnnotationCount: s.OriginalAnnotationCount,
		FramesRemoved:           min(framesRemoved, s.Total),
		AnnotationsRemoved:      min(annotationsRemoved, s.OriginalAnnotationCount),
	}
	out.FilteredFrameCount = s.Total - out.FramesRemoved
	out.FilteredAnnotationCount = s.OriginalAnnotationCount - out.AnnotationsRemoved
	out.ReductionPercent = float64(out.FramesRemoved) * 100 / float64(max(s.Total, 1))
	return out
}

// BuildExclusionReasons 计算每个被排除对象的来源，每个 id 只出现在一个分组
//   - 帧：在已应用的多样性集合中归为 diversity，否则归为 manual
//   - 检测框：类别被排除归为 class_filter，否则归为 manual
//
// 未加载缩略图的帧没有 frame_id，只保留在 filter_config 中
func BuildExclusionReasons(s Snapshot) ExclusionReasons {
	frameIDs := s.frameIDIndex()
	diversity := newSet[int]()
	if s.Exclusion.DiversityApplied {
		diversity = newSet(s.Exclusion.DiversityExcludedFrameIndices...)
	}

	classFilter := newSet[string]()
	divIDs := newSet[string]()
	manual := newSet[string]()

	for idx := range s.effectiveFrames() {
		id, ok := frameIDs[idx]
		if !ok {
			continue
		}
		if diversity.has(idx) {
			divIDs[id] = struct{}{}
			continue
		}
		manual[id] = struct{}{}
	}

	classes := newSet(s.Exclusion.ExcludedClasses...)
	classOf := make(map[string]string, len(s.Annotations))
	for _, ref := range s.Annotations {
		classOf[ref.ID] = ref.ClassName
	}
	ids, _ := s.effectiveAnnotations()
	for id := range ids {
		if cls, ok := classOf[id]; ok && classes.has(cls) {
			classFilter[id] = struct{}{}
			continue
		}
		manual[id] = struct{}{}
	}

	// 帧 ID 与检测框 ID 理论上不会冲突，冲突时优先保留更具体的原因
	for id := range classFilter {
		delete(manual, id)
	}
	for id := range divIDs {
		delete(manual, id)
	}

	return ExclusionReasons{
		ClassFilter: classFilter.sorted(),
		Diversity:   divIDs.sorted(),
		Manual:      manual.sorted(),
	}
}

// BuildFilterConfig 生成可复现的过滤配置，阈值仅在多样性已应用时记录
func BuildFilterConfig(s Snapshot) FilterConfig {
	cfg := FilterConfig{
		ExcludedClasses:       append([]string{}, s.Exclusion.ExcludedClasses...),
		ExcludedAnnotationIDs: append([]string{}, s.Exclusion.ExcludedAnnotationIDs...),
		DiversityApplied:      s.Exclusion.DiversityApplied,
		ExcludedFrameIndices:  append([]int{}, s.Exclusion.ExcludedFrameIndices...),
	}
	if s.Exclusion.DiversityApplied && s.AppliedThresholds != nil {
		sim, motion := s.AppliedThresholds.Similarity, s.AppliedThresholds.Motion
		cfg.DiversitySimilarityThreshold = &sim
		cfg.DiversityMotionThreshold = &motion
	}
	return cfg
}

// BuildCuratedDatasetRequest 组装数据集创建请求，不负责提交
func BuildCuratedDatasetRequest(s Snapshot, name, description string) (*CuratedDatasetRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if s.JobID == "" {
		return nil, ErrNoJob
	}

	summary := Summarize(s)
	frameIDs := s.frameIDIndex()
	excludedFrames := s.effectiveFrames().sorted()
	excludedFrameIDs := make([]string, 0, len(excludedFrames))
	for _, idx := range excludedFrames {
		if id, ok := frameIDs[idx]; ok {
			excludedFrameIDs = append(excludedFrameIDs, id)
		}
	}
	ids, _ := s.effectiveAnnotations()

	return &CuratedDatasetRequest{
		Name:                    name,
		Description:             strings.TrimSpace(description),
		SourceJobID:             s.JobID,
		FilterConfig:            BuildFilterConfig(s),
		OriginalFrameCount:      summary.OriginalFrameCount,
		OriginalAnnotationCount: summary.OriginalAnnotationCount,
		FilteredFrameCount:      summary.FilteredFrameCount,
		FilteredAnnotationCount: summary.FilteredAnnotationCount,
		ExcludedFrameIDs:        excludedFrameIDs,
		ExcludedAnnotationIDs:   ids.sorted(),
		ExclusionReasons:        BuildExclusionReasons(s),
	}, nil
}

func (s Snapshot) frameIDIndex() map[int]string {
	out := make(map[int]string, len(s.Frames))
	for _, f := range s.Frames {
		out[f.SequenceIndex] = f.FrameID
	}
	return out
}

// String 便于日志输出
func (c CurationSummary) String() string {
	return fmt.Sprintf("frames %d/%d annotations %d/%d reduction %.1f%%",
		c.FilteredFrameCount, c.OriginalFrameCount,
		c.FilteredAnnotationCount, c.OriginalAnnotationCount,
		c.ReductionPercent,
	)
}
