package review

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Session 一次审核会话，同一时间只对应一个任务
// 排除状态、播放状态、多样性分析结果均由会话独占，切换任务时全部重置
type Session struct {
	id        string
	log       *slog.Logger
	analyzer  DiversityAnalyzer
	creator   DatasetCreator
	scheduler Scheduler
	frameRate float64

	mu sync.Mutex

	jobID                   string
	frames                  []FrameThumbnail
	total                   int
	classStats              []AnnotationClassStats
	annotations             []AnnotationRef
	originalAnnotationCount int

	excl exclusionState
	play playbackState
	div  diversityState

	lastSubmission *CuratedDatasetRef
	submitting     bool
	lastActiveAt   time.Time
	closed         bool
}

// SessionOption 会话可选参数
type SessionOption func(*Session)

// WithAnalyzer 注入多样性分析服务
func WithAnalyzer(a DiversityAnalyzer) SessionOption {
	return func(s *Session) { s.analyzer = a }
}

// WithCreator 注入数据集持久化服务
func WithCreator(c DatasetCreator) SessionOption {
	return func(s *Session) { s.creator = c }
}

// WithScheduler 替换播放定时器，测试时使用
func WithScheduler(sc Scheduler) SessionOption {
	return func(s *Session) { s.scheduler = sc }
}

// WithBaseFrameRate 播放基准帧率，默认 30
func WithBaseFrameRate(fps float64) SessionOption {
	return func(s *Session) {
		if fps > 0 {
			s.frameRate = fps
		}
	}
}

// NewSession 创建空会话，需调用 SetJobID 绑定任务
func NewSession(id string, opts ...SessionOption) *Session {
	s := Session{
		id:        id,
		scheduler: timeScheduler{},
		frameRate: DefaultBaseFrameRate,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.log = slog.With("review_session", id)
	s.resetLocked()
	return &s
}

// ID 会话 ID
func (s *Session) ID() string {
	return s.id
}

// JobID 当前审核的任务
func (s *Session) JobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

// SetJobID 切换任务，帧、排除状态、播放状态、分析结果恢复初始值
// 正在进行的分析结果将被丢弃，播放定时器立即取消
func (s *Session) SetJobID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.jobID == id {
		return
	}
	s.log.Info("switch job", "from", s.jobID, "to", id)
	s.resetLocked()
	s.jobID = id
}

// resetLocked 恢复初始值，不修改 jobID
func (s *Session) resetLocked() {
	s.stopTickLocked()
	s.cancelAnalysisLocked()
	s.frames = nil
	s.total = 0
	s.classStats = nil
	s.annotations = nil
	s.originalAnnotationCount = 0
	s.excl = newExclusionState()
	// gen 与外部禁用标记跨任务保留
	s.play = playbackState{speed: 1, gen: s.play.gen, disabled: s.play.disabled}
	s.div.result = DiversityAnalysisResult{Status: DiversityIdle}
	s.lastSubmission = nil
}

// SetFrames 整体替换帧列表与总数，不支持增量加载
func (s *Session) SetFrames(frames []FrameThumbnail, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	sorted := slices.Clone(frames)
	slices.SortStableFunc(sorted, func(a, b FrameThumbnail) int {
		return a.SequenceIndex - b.SequenceIndex
	})
	s.frames = sorted
	s.total = max(total, len(sorted))
	s.pruneRangeLocked()
	s.clampPlaybackLocked()
}

// SetAnnotations 替换类别统计与检测框目录
func (s *Session) SetAnnotations(stats []AnnotationClassStats, refs []AnnotationRef, totalAnnotations int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.classStats = slices.Clone(stats)
	s.annotations = slices.Clone(refs)
	s.originalAnnotationCount = max(totalAnnotations, len(refs))
}

// Frames 当前帧列表
func (s *Session) Frames() []FrameThumbnail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.frames)
}

// Total 帧总数
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// ClassStats 类别统计
func (s *Session) ClassStats() []AnnotationClassStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.classStats)
}

// FrameAt 按序号查询帧，未加载时返回 false
func (s *Session) FrameAt(index int) (FrameThumbnail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := slices.BinarySearchFunc(s.frames, index, func(f FrameThumbnail, target int) int {
		return f.SequenceIndex - target
	})
	if !ok {
		return FrameThumbnail{}, false
	}
	return s.frames[i], true
}

// Snapshot 复制当前状态，用于汇总计算
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		JobID:                   s.jobID,
		Total:                   s.total,
		Frames:                  slices.Clone(s.frames),
		ClassStats:              slices.Clone(s.classStats),
		Annotations:             slices.Clone(s.annotations),
		OriginalAnnotationCount: s.originalAnnotationCount,
		Exclusion:               s.excl.view(),
		Diversity:               s.div.result.clone(),
		AppliedThresholds:       s.excl.appliedThresholds,
	}
}

// State 会话完整状态，供接口层返回
type State struct {
	SessionID      string                  `json:"session_id"`
	JobID          string                  `json:"job_id"`
	TotalFrames    int                     `json:"total_frames"`
	Exclusion      ExclusionState          `json:"exclusion"`
	Playback       PlaybackState           `json:"playback"`
	Diversity      DiversityAnalysisResult `json:"diversity"`
	Summary        CurationSummary         `json:"summary"`
	LastSubmission *CuratedDatasetRef      `json:"last_submission,omitempty"`
}

// State 返回会话状态与实时汇总
func (s *Session) State() State {
	s.mu.Lock()
	snap := s.snapshotLocked()
	st := State{
		SessionID:   s.id,
		JobID:       s.jobID,
		TotalFrames: s.total,
		Exclusion:   snap.Exclusion,
		Playback:    s.play.view(),
		Diversity:   snap.Diversity,
	}
	if s.lastSubmission != nil {
		ref := *s.lastSubmission
		st.LastSubmission = &ref
	}
	s.mu.Unlock()

	st.Summary = Summarize(snap)
	return st
}

// Close 销毁会话，取消定时器并忽略未返回的分析结果
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pauseLocked()
	s.cancelAnalysisLocked()
	s.log.Info("session closed", "job_id", s.jobID)
}

// IdleSince 最近一次操作时间
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActiveAt
}

func (s *Session) touchLocked() {
	s.lastActiveAt = time.Now()
}

// Submit 将当前过滤结果提交为数据集
// 失败时会话状态保持不变，可直接重试
func (s *Session) Submit(ctx context.Context, name, description string) (*CuratedDatasetRef, error) {
	s.mu.Lock()
	if s.creator == nil {
		s.mu.Unlock()
		return nil, ErrNoCreator
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	s.touchLocked()
	s.submitting = true
	snap := s.snapshotLocked()
	creator := s.creator
	s.mu.Unlock()

	req, err := BuildCuratedDatasetRequest(snap, name, description)
	if err != nil {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		return nil, err
	}

	ref, err := creator.CreateCuratedDataset(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		s.log.ErrorContext(ctx, "create curated dataset", "job_id", snap.JobID, "err", err)
		return nil, err
	}
	// 提交期间已切换任务时不记录到新任务上
	if s.jobID == snap.JobID {
		out := *ref
		s.lastSubmission = &out
	}
	s.log.InfoContext(ctx, "curated dataset created",
		"job_id", snap.JobID,
		"dataset_id", ref.ID,
		"version", ref.Version,
		"filtered_frames", req.FilteredFrameCount,
	)
	return ref, nil
}
