package dataset

import "github.com/ixugo/goddd/pkg/web"

// FindCuratedDatasetInput 分页查询
type FindCuratedDatasetInput struct {
	web.PagerFilter
	SourceJobID string `form:"source_job_id"`
}

// AddCuratedDatasetInput 创建数据集，版本号由服务端分配
type AddCuratedDatasetInput struct {
	Name                    string           `json:"name"`
	Description             string           `json:"description"`
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

// Validate 数量必须自洽
func (in *AddCuratedDatasetInput) Validate() error {
	switch {
	case in.Name == "":
		return errNameRequired
	case in.SourceJobID == "":
		return errSourceJobRequired
	case in.OriginalFrameCount < 0, in.OriginalAnnotationCount < 0,
		in.FilteredFrameCount < 0, in.FilteredAnnotationCount < 0:
		return errNegativeCount
	case in.FilteredFrameCount > in.OriginalFrameCount,
		in.FilteredAnnotationCount > in.OriginalAnnotationCount:
		return errCountOverflow
	}
	return nil
}
