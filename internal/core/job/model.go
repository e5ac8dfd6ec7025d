package job

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/ixugo/goddd/pkg/orm"
)

// 任务状态，由上游检测流水线回调更新
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job 一次检测/跟踪任务，对应一个 SVO2 录制文件
type Job struct {
	ID              string   `gorm:"primaryKey" json:"id"`
	Name            string   `gorm:"column:name;notNull;default:''" json:"name"`
	Status          string   `gorm:"column:status;notNull;default:'pending';index" json:"status"`
	SourcePath      string   `gorm:"column:source_path;notNull;default:''" json:"source_path"` // 原始 SVO2 文件路径
	FrameCount      int      `gorm:"column:frame_count;notNull;default:0" json:"frame_count"`
	AnnotationCount int      `gorm:"column:annotation_count;notNull;default:0" json:"annotation_count"`
	Message         string   `gorm:"column:message;notNull;default:''" json:"message"` // 失败原因
	CreatedAt       orm.Time `gorm:"column:created_at;notNull;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt       orm.Time `gorm:"column:updated_at;notNull;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName database table name
func (*Job) TableName() string {
	return "jobs"
}

// Reviewable 仅已完成的任务可进入审核
func (j *Job) Reviewable() bool {
	return j.Status == StatusCompleted
}

// Frame 任务中抽取的一帧
type Frame struct {
	ID              string `gorm:"primaryKey" json:"id"`
	JobID           string `gorm:"column:job_id;notNull;index:idx_frames_job_seq,priority:1" json:"job_id"`
	SequenceIndex   int    `gorm:"column:sequence_index;notNull;index:idx_frames_job_seq,priority:2" json:"sequence_index"`
	SVO2FrameIndex  int    `gorm:"column:svo2_frame_index;notNull;default:0" json:"svo2_frame_index"`
	AnnotationCount int    `gorm:"column:annotation_count;notNull;default:0" json:"annotation_count"`
	ImagePath       string `gorm:"column:image_path;notNull;default:''" json:"image_path"`
}

// TableName database table name
func (*Frame) TableName() string {
	return "frames"
}

// Annotation 单个检测框
type Annotation struct {
	ID            string  `gorm:"primaryKey" json:"id"`
	JobID         string  `gorm:"column:job_id;notNull;index" json:"job_id"`
	FrameID       string  `gorm:"column:frame_id;notNull;index" json:"frame_id"`
	SequenceIndex int     `gorm:"column:sequence_index;notNull;default:0" json:"sequence_index"`
	ClassName     string  `gorm:"column:class_name;notNull;default:''" json:"class_name"`
	ClassColor    string  `gorm:"column:class_color;notNull;default:''" json:"class_color"`
	Confidence    float64 `gorm:"column:confidence;notNull;default:0" json:"confidence"`
	TrackID       int     `gorm:"column:track_id;notNull;default:0" json:"track_id"`
	Box           Box     `gorm:"column:box;type:json" json:"box"`
}

// TableName database table name
func (*Annotation) TableName() string {
	return "annotations"
}

// Box 归一化边界框，中心点坐标
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Scan implements sql.Scanner.
func (b *Box) Scan(input any) error {
	switch v := input.(type) {
	case nil:
		*b = Box{}
		return nil
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("box: unsupported type %T", input)
	}
}

// Value implements driver.Valuer.
func (b Box) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// ClassStats 按类别聚合的检测统计
type ClassStats struct {
	ClassName     string  `gorm:"column:class_name" json:"class_name"`
	ClassColor    string  `gorm:"column:class_color" json:"class_color"`
	TotalCount    int     `gorm:"column:total_count" json:"total_count"`
	FrameCount    int     `gorm:"column:frame_count" json:"frame_count"`
	AvgConfidence float64 `gorm:"column:avg_confidence" json:"avg_confidence"`
}

// AnnotationStats 任务的检测统计
type AnnotationStats struct {
	Classes          []ClassStats `json:"classes"`
	TotalAnnotations int          `json:"total_annotations"`
	TotalFrames      int          `json:"total_frames"`
}

// AnnotationClass 检测框与类别的对应关系
type AnnotationClass struct {
	ID            string `gorm:"column:id" json:"id"`
	ClassName     string `gorm:"column:class_name" json:"class_name"`
	SequenceIndex int    `gorm:"column:sequence_index" json:"sequence_index"`
}
