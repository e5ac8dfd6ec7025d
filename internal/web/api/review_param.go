package api

import "github.com/gowvp/curation/internal/core/review"

// openReviewInput 打开审核会话
type openReviewInput struct {
	JobID string `json:"job_id"`
}

type classInput struct {
	ClassName string `json:"class_name"`
	Excluded  bool   `json:"excluded"` // 仅 PUT 使用
}

type annotationInput struct {
	AnnotationID string `json:"annotation_id"`
	Excluded     bool   `json:"excluded"` // 仅 PUT 使用
}

type frameToggleInput struct {
	FrameIndex int `json:"frame_index"`
}

// frameSetInput 整体替换手动排除的帧
type frameSetInput struct {
	FrameIndices []int `json:"frame_indices"`
}

type analyzeInput struct {
	review.DiversityThresholds
	Async bool `json:"async"` // 为 true 时立即返回，结果通过 GET diversity 查询
}

type applyDiversityInput struct {
	Apply bool `json:"apply"`
}

type stepInput struct {
	Delta int `json:"delta"` // 1 前进，-1 后退
}

type seekInput struct {
	Index int `json:"index"`
}

type speedInput struct {
	Speed float64 `json:"speed"` // 0.25 | 0.5 | 1 | 2 | 4
}

type disableInput struct {
	Disabled bool `json:"disabled"`
}

type keyInput struct {
	Key   string       `json:"key"`
	Focus review.Focus `json:"focus"`
}

type submitInput struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

// toggleOutput 切换后的状态
type toggleOutput struct {
	Excluded bool         `json:"excluded"`
	State    review.State `json:"state"`
}

type analyzeOutput struct {
	RequestID uint64                          `json:"request_id,omitempty"`
	Result    *review.DiversityAnalysisResult `json:"result,omitempty"`
	State     review.State                    `json:"state"`
}

type keyOutput struct {
	Handled bool         `json:"handled"`
	State   review.State `json:"state"`
}

type summaryOutput struct {
	Summary          review.CurationSummary  `json:"summary"`
	ExclusionReasons review.ExclusionReasons `json:"exclusion_reasons"`
	FilterConfig     review.FilterConfig     `json:"filter_config"`
}

type submitOutput struct {
	Dataset *review.CuratedDatasetRef `json:"dataset"`
	State   review.State              `json:"state"`
}
