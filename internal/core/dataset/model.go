package dataset

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/ixugo/goddd/pkg/orm"
)

// CuratedDataset 审核后生成的数据集版本，创建后不再修改
type CuratedDataset struct {
	ID                      int64            `gorm:"primaryKey" json:"id"`
	Name                    string           `gorm:"column:name;notNull;default:''" json:"name"`
	Description             string           `gorm:"column:description;notNull;default:''" json:"description"`
	SourceJobID             string           `gorm:"column:source_job_id;notNull;index:idx_datasets_job_version,priority:1" json:"source_job_id"`
	Version                 int              `gorm:"column:version;notNull;default:0;index:idx_datasets_job_version,priority:2" json:"version"`
	FilterConfig            FilterConfig     `gorm:"column:filter_config;type:json" json:"filter_config"`
	OriginalFrameCount      int              `gorm:"column:original_frame_count;notNull;default:0" json:"original_frame_count"`
	OriginalAnnotationCount int              `gorm:"column:original_annotation_count;notNull;default:0" json:"original_annotation_count"`
	FilteredFrameCount      int              `gorm:"column:filtered_frame_count;notNull;default:0" json:"filtered_frame_count"`
	FilteredAnnotationCount int              `gorm:"column:filtered_annotation_count;notNull;default:0" json:"filtered_annotation_count"`
	ExcludedFrameIDs        Strings          `gorm:"column:excluded_frame_ids;type:json" json:"excluded_frame_ids"`
	ExcludedAnnotationIDs   Strings          `gorm:"column:excluded_annotation_ids;type:json" json:"excluded_annotation_ids"`
	ExclusionReasons        ExclusionReasons `gorm:"column:exclusion_reasons;type:json" json:"exclusion_reasons"`
	CreatedAt               orm.Time         `gorm:"column:created_at;notNull;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName database table name
func (*CuratedDataset) TableName() string {
	return "curated_datasets"
}

// FilterConfig 生成数据集时使用的过滤条件，可用于复现
type FilterConfig struct {
	ExcludedClasses              []string `json:"excluded_classes"`
	ExcludedAnnotationIDs        []string `json:"excluded_annotation_ids"`
	DiversityApplied             bool     `json:"diversity_applied"`
	DiversitySimilarityThreshold *float64 `json:"diversity_similarity_threshold,omitempty"`
	DiversityMotionThreshold     *float64 `json:"diversity_motion_threshold,omitempty"`
	ExcludedFrameIndices         []int    `json:"excluded_frame_indices"`
}

// Scan implements sql.Scanner.
func (f *FilterConfig) Scan(input any) error {
	return scanJSON(input, f)
}

// Value implements driver.Valuer.
func (f FilterConfig) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// ExclusionReasons 被排除对象的来源
type ExclusionReasons struct {
	ClassFilter []string `json:"class_filter"`
	Diversity   []string `json:"diversity"`
	Manual      []string `json:"manual"`
}

// Scan implements sql.Scanner.
func (r *ExclusionReasons) Scan(input any) error {
	return scanJSON(input, r)
}

// Value implements driver.Valuer.
func (r ExclusionReasons) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Strings 以 json 数组存储的字符串列表
type Strings []string

// Scan implements sql.Scanner.
func (s *Strings) Scan(input any) error {
	return scanJSON(input, s)
}

// Value implements driver.Valuer.
func (s Strings) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func scanJSON(input, out any) error {
	switch v := input.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, out)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), out)
	default:
		return fmt.Errorf("unsupported json column type %T", input)
	}
}
