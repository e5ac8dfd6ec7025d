package job

import "github.com/ixugo/goddd/pkg/web"

// FindJobInput 任务分页查询
type FindJobInput struct {
	web.PagerFilter
	Status string `form:"status"` // pending | processing | completed | failed
	Key    string `form:"key"`    // 按名称模糊搜索
}

// AddJobInput 登记新任务
type AddJobInput struct {
	ID         string `json:"id"` // 为空时自动生成
	Name       string `json:"name"`
	SourcePath string `json:"source_path"`
}

// EditJobInput 修改任务信息
type EditJobInput struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// IngestFrame 流水线上报的一帧
type IngestFrame struct {
	ID             string             `json:"id"`
	SequenceIndex  int                `json:"sequence_index"`
	SVO2FrameIndex int                `json:"svo2_frame_index"`
	ImagePath      string             `json:"image_path"`
	Annotations    []IngestAnnotation `json:"annotations"`
}

// IngestAnnotation 流水线上报的检测框
type IngestAnnotation struct {
	ID         string  `json:"id"`
	ClassName  string  `json:"class_name"`
	ClassColor string  `json:"class_color"`
	Confidence float64 `json:"confidence"`
	TrackID    int     `json:"track_id"`
	Box        Box     `json:"box"`
}

// IngestInput 批量写入帧与检测结果
type IngestInput struct {
	Frames   []IngestFrame `json:"frames"`
	Complete bool          `json:"complete"` // 最后一批，写入后任务标记为 completed
}

// IngestOutput 写入结果
type IngestOutput struct {
	Frames          int `json:"frames"`
	Annotations     int `json:"annotations"`
	FrameCount      int `json:"frame_count"`      // 任务当前总帧数
	AnnotationCount int `json:"annotation_count"` // 任务当前检测框总数
}
