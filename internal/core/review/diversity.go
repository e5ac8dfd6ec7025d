package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
)

const (
	DefaultSimilarityThreshold = 0.85
	DefaultMotionThreshold     = 0.02

	CameraLeft  = "left"
	CameraRight = "right"

	// thresholdEpsilon 阈值变化小于该值时视为未变化
	thresholdEpsilon = 0.005
)

type diversityState struct {
	result DiversityAnalysisResult
	// seq 请求序号，只接受最新请求的响应
	seq    uint64
	cancel context.CancelFunc
}

// Normalize 校验阈值范围并补齐默认相机
func (t DiversityThresholds) Normalize() (DiversityThresholds, error) {
	if math.IsNaN(t.Similarity) || t.Similarity < 0 || t.Similarity > 1 {
		return t, fmt.Errorf("%w: similarity_threshold[%v]", ErrInvalidThreshold, t.Similarity)
	}
	if math.IsNaN(t.Motion) || t.Motion < 0 || t.Motion > 1 {
		return t, fmt.Errorf("%w: motion_threshold[%v]", ErrInvalidThreshold, t.Motion)
	}
	switch t.SampleCamera {
	case "":
		t.SampleCamera = CameraLeft
	case CameraLeft, CameraRight:
	default:
		return t, fmt.Errorf("%w: sample_camera[%s]", ErrInvalidThreshold, t.SampleCamera)
	}
	return t, nil
}

// differs 阈值是否发生了有意义的变化
func (t DiversityThresholds) differs(o DiversityThresholds) bool {
	return math.Abs(t.Similarity-o.Similarity) > thresholdEpsilon ||
		math.Abs(t.Motion-o.Motion) > thresholdEpsilon ||
		t.SampleCamera != o.SampleCamera
}

// Diversity 最近一次分析的状态与结果
func (s *Session) Diversity() DiversityAnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.div.result.clone()
}

// SetThresholds 阈值明显变化时，已有结果回到 idle
// 已应用的多样性过滤不受影响，直到重新应用或取消
func (s *Session) SetThresholds(t DiversityThresholds) error {
	t, err := t.Normalize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	r := s.div.result
	if r.Status == DiversityAnalyzing || r.Status == DiversityIdle {
		return nil
	}
	if r.Thresholds.differs(t) {
		s.div.result = DiversityAnalysisResult{Status: DiversityIdle, Thresholds: t}
	}
	return nil
}

// Analyze 同步执行多样性分析
// 新请求总是取代旧请求，旧请求的响应到达时直接丢弃，返回 ErrAnalysisSuperseded
// 失败时状态为 failed 且不保留任何部分结果，不会自动重试
func (s *Session) Analyze(ctx context.Context, t DiversityThresholds) (*DiversityAnalysisResult, error) {
	seq, jobID, ctx, err := s.beginAnalysis(ctx, t)
	if err != nil {
		return nil, err
	}
	t, _ = t.Normalize()

	s.log.InfoContext(ctx, "diversity analysis started",
		"job_id", jobID,
		"seq", seq,
		"similarity", t.Similarity,
		"motion", t.Motion,
		"camera", t.SampleCamera,
	)
	res, err := s.analyzer.AnalyzeDiversity(ctx, jobID, t)
	return s.finishAnalysis(ctx, seq, t, res, err)
}

// StartAnalysis 异步执行多样性分析，返回请求序号
// 结果通过 Diversity 查询
func (s *Session) StartAnalysis(ctx context.Context, t DiversityThresholds) (uint64, error) {
	seq, jobID, actx, err := s.beginAnalysis(context.WithoutCancel(ctx), t)
	if err != nil {
		return 0, err
	}
	t, _ = t.Normalize()
	go func() {
		res, err := s.analyzer.AnalyzeDiversity(actx, jobID, t)
		_, _ = s.finishAnalysis(actx, seq, t, res, err)
	}()
	return seq, nil
}

func (s *Session) beginAnalysis(ctx context.Context, t DiversityThresholds) (uint64, string, context.Context, error) {
	t, err := t.Normalize()
	if err != nil {
		return 0, "", nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, "", nil, ErrSessionClosed
	}
	if s.jobID == "" {
		return 0, "", nil, ErrNoJob
	}
	if s.analyzer == nil {
		return 0, "", nil, ErrNoAnalyzer
	}
	s.touchLocked()
	s.cancelAnalysisLocked()

	actx, cancel := context.WithCancel(ctx)
	s.div.cancel = cancel
	s.div.result = DiversityAnalysisResult{Status: DiversityAnalyzing, Thresholds: t}
	return s.div.seq, s.jobID, actx, nil
}

func (s *Session) finishAnalysis(ctx context.Context, seq uint64, t DiversityThresholds, res *DiversityAnalysisResult, err error) (*DiversityAnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.div.seq || s.closed {
		s.log.DebugContext(ctx, "drop stale diversity response", "seq", seq, "latest", s.div.seq)
		return nil, ErrAnalysisSuperseded
	}
	if s.div.cancel != nil {
		s.div.cancel()
		s.div.cancel = nil
	}

	if err == nil && res == nil {
		err = errors.New("empty diversity response")
	}
	if err != nil {
		s.div.result = DiversityAnalysisResult{Status: DiversityFailed, Thresholds: t, Error: err.Error()}
		s.log.ErrorContext(ctx, "diversity analysis failed", "job_id", s.jobID, "seq", seq, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	out := res.clone()
	out.Status = DiversityComplete
	out.Thresholds = t
	out.Error = ""
	out.ExcludedFrameIndices = dedupe(out.ExcludedFrameIndices)
	out.SelectedFrameIndices = dedupe(out.SelectedFrameIndices)
	s.div.result = out

	s.log.InfoContext(ctx, "diversity analysis complete",
		"job_id", s.jobID,
		"seq", seq,
		"excluded", len(out.ExcludedFrameIndices),
		"duplicate_pairs", out.DuplicatePairsFound,
		"low_motion", out.LowMotionFrames,
	)
	result := out.clone()
	return &result, nil
}

// cancelAnalysisLocked 取消进行中的请求，之后到达的响应都视为过期
func (s *Session) cancelAnalysisLocked() {
	s.div.seq++
	if s.div.cancel != nil {
		s.div.cancel()
		s.div.cancel = nil
	}
	if s.div.result.Status == DiversityAnalyzing {
		s.div.result = DiversityAnalysisResult{Status: DiversityIdle, Thresholds: s.div.result.Thresholds}
	}
}

func dedupe(in []int) []int {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
