package review

// FrameThumbnail 任务中的一帧，按 SequenceIndex 排序即为会话内的标准顺序
type FrameThumbnail struct {
	FrameID         string `json:"frame_id"`         // 帧 ID
	SequenceIndex   int    `json:"sequence_index"`   // 会话内序号，从 0 开始
	SVO2FrameIndex  int    `json:"svo2_frame_index"` // 原始 SVO2 文件中的帧号
	AnnotationCount int    `json:"annotation_count"` // 该帧检测框数量
}

// AnnotationClassStats 按类别聚合的检测统计，只读
type AnnotationClassStats struct {
	ClassName     string  `json:"class_name"`
	ClassColor    string  `json:"class_color"`
	TotalCount    int     `json:"total_count"`    // 检测框总数
	FrameCount    int     `json:"frame_count"`    // 出现过该类别的帧数
	AvgConfidence float64 `json:"avg_confidence"` // 平均置信度
}

// AnnotationStats 任务的检测统计汇总
type AnnotationStats struct {
	Classes          []AnnotationClassStats `json:"classes"`
	TotalAnnotations int                    `json:"total_annotations"`
	TotalFrames      int                    `json:"total_frames"`
}

// AnnotationRef 单个检测框的类别归属，用于精确计算排除原因
type AnnotationRef struct {
	ID         string `json:"id"`
	ClassName  string `json:"class_name"`
	FrameIndex int    `json:"frame_index"`
}

// DiversityStatus 多样性分析状态
type DiversityStatus string

const (
	DiversityIdle      DiversityStatus = "idle"
	DiversityAnalyzing DiversityStatus = "analyzing"
	DiversityComplete  DiversityStatus = "complete"
	DiversityFailed    DiversityStatus = "failed"
)

// DiversityThresholds 多样性分析参数
type DiversityThresholds struct {
	Similarity   float64 `json:"similarity_threshold"` // 相似度阈值 [0,1]
	Motion       float64 `json:"motion_threshold"`     // 运动阈值 [0,1]
	SampleCamera string  `json:"sample_camera"`        // left | right
}

// DiversityCluster 一组相互近似的帧
type DiversityCluster struct {
	ClusterID           int   `json:"cluster_id"`
	FrameIndices        []int `json:"frame_indices"`
	RepresentativeIndex int   `json:"representative_index"`
}

// DiversityAnalysisResult 多样性分析结果，failed 状态下不携带数据
type DiversityAnalysisResult struct {
	Status               DiversityStatus     `json:"status"`
	SelectedFrameIndices []int               `json:"selected_frame_indices"`
	ExcludedFrameIndices []int               `json:"excluded_frame_indices"`
	Clusters             []DiversityCluster  `json:"clusters"`
	DuplicatePairsFound  int                 `json:"duplicate_pairs_found"`
	LowMotionFrames      int                 `json:"low_motion_frames"`
	ReductionPercent     float64             `json:"reduction_percent"`
	Thresholds           DiversityThresholds `json:"thresholds"`
	Error                string              `json:"error,omitempty"`
}

func (r DiversityAnalysisResult) clone() DiversityAnalysisResult {
	out := r
	out.SelectedFrameIndices = append([]int(nil), r.SelectedFrameIndices...)
	out.ExcludedFrameIndices = append([]int(nil), r.ExcludedFrameIndices...)
	out.Clusters = make([]DiversityCluster, 0, len(r.Clusters))
	for _, c := range r.Clusters {
		c.FrameIndices = append([]int(nil), c.FrameIndices...)
		out.Clusters = append(out.Clusters, c)
	}
	return out
}

// PlaybackState 播放状态
type PlaybackState struct {
	CurrentFrameIndex int     `json:"current_frame_index"`
	IsPlaying         bool    `json:"is_playing"`
	Speed             float64 `json:"speed"`
	Disabled          bool    `json:"disabled"`
}

// ExclusionState 排除集合的只读视图，集合均已排序
type ExclusionState struct {
	ExcludedClasses               []string `json:"excluded_classes"`
	ExcludedAnnotationIDs         []string `json:"excluded_annotation_ids"`
	ExcludedFrameIndices          []int    `json:"excluded_frame_indices"`
	DiversityApplied              bool     `json:"diversity_applied"`
	DiversityExcludedFrameIndices []int    `json:"diversity_excluded_frame_indices"`
}

// CurationSummary 由排除状态实时推导，不落库
type CurationSummary struct {
	OriginalFrameCount      int     `json:"original_frame_count"`
	OriginalAnnotationCount int     `json:"original_annotation_count"`
	FilteredFrameCount      int     `json:"filtered_frame_count"`
	FilteredAnnotationCount int     `json:"filtered_annotation_count"`
	FramesRemoved           int     `json:"frames_removed"`
	AnnotationsRemoved      int     `json:"annotations_removed"`
	ReductionPercent        float64 `json:"reduction_percent"`
}

// ExclusionReasons 每个被排除对象只归属一个原因
type ExclusionReasons struct {
	ClassFilter []string `json:"class_filter"`
	Diversity   []string `json:"diversity"`
	Manual      []string `json:"manual"`
}

// FilterConfig 可复现的过滤配置
type FilterConfig struct {
	ExcludedClasses              []string `json:"excluded_classes"`
	ExcludedAnnotationIDs        []string `json:"excluded_annotation_ids"`
	DiversityApplied             bool     `json:"diversity_applied"`
	DiversitySimilarityThreshold *float64 `json:"diversity_similarity_threshold,omitempty"`
	DiversityMotionThreshold     *float64 `json:"diversity_motion_threshold,omitempty"`
	ExcludedFrameIndices         []int    `json:"excluded_frame_indices"`
}

// CuratedDatasetRequest 提交给数据集持久化服务的载荷，提交后归对方所有
type CuratedDatasetRequest struct {
	Name                    string           `json:"name"`
	Description             string           `json:"description,omitempty"`
	SourceJobID             string           `json:"source_job_id"`
	FilterConfig            FilterConfig     `json:"filter_config"`
	OriginalFrameCount      int              `json:"original_frame_count"`
	OriginalAnnotationCount int              `json:"original_annotation_count"`
	FilteredFrameCount      int              `json:"filtered_frame_count"`
	FilteredAnnotationCount int              `json:"filtered_annotation_count"`
	ExcludedFrameIDs        []string         `json:"excluded_frame_ids"`
	ExcludedAnnotationIDs   []string         `json:"excluded_annotation_ids"`
	ExclusionReasons        ExclusionReasons `json:"exclusion_reasons"`
}

// CuratedDatasetRef 持久化服务返回的数据集标识
type CuratedDatasetRef struct {
	ID      int64  `json:"id"`
	Version int    `json:"version"`
	Name    string `json:"name"`
}
