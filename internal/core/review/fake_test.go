package review

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler 手动触发的定时器
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// active 未取消且未触发的定时器
func (s *fakeScheduler) active() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire 触发最新的活动定时器
func (s *fakeScheduler) fire() bool {
	s.mu.Lock()
	var target *fakeTimer
	for i := len(s.timers) - 1; i >= 0; i-- {
		if t := s.timers[i]; !t.stopped && !t.fired {
			target = t
			break
		}
	}
	if target != nil {
		target.fired = true
	}
	s.mu.Unlock()

	if target == nil {
		return false
	}
	target.f()
	return true
}

// fireStale 触发一个已取消的定时器，模拟取消与回调竞争
func (s *fakeScheduler) fireStale() bool {
	s.mu.Lock()
	var target *fakeTimer
	for _, t := range s.timers {
		if t.stopped {
			target = t
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return false
	}
	target.f()
	return true
}

type analyzeCall struct {
	jobID string
	t     DiversityThresholds
	reply chan analyzeReply
}

type analyzeReply struct {
	res *DiversityAnalysisResult
	err error
}

// fakeAnalyzer 默认立即返回 result/err；blocking 时等待测试通过 calls 回复
type fakeAnalyzer struct {
	result   *DiversityAnalysisResult
	err      error
	blocking bool
	calls    chan analyzeCall
}

func (a *fakeAnalyzer) AnalyzeDiversity(ctx context.Context, jobID string, t DiversityThresholds) (*DiversityAnalysisResult, error) {
	if !a.blocking {
		if a.err != nil {
			return nil, a.err
		}
		r := a.result.clone()
		return &r, nil
	}
	call := analyzeCall{jobID: jobID, t: t, reply: make(chan analyzeReply, 1)}
	a.calls <- call
	select {
	case r := <-call.reply:
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakeCreator struct {
	mu    sync.Mutex
	reqs  []*CuratedDatasetRequest
	err   error
	nextV int
}

func (c *fakeCreator) CreateCuratedDataset(_ context.Context, req *CuratedDatasetRequest) (*CuratedDatasetRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.reqs = append(c.reqs, req)
	c.nextV++
	return &CuratedDatasetRef{ID: int64(len(c.reqs)), Version: c.nextV, Name: req.Name}, nil
}

type fakeSource struct {
	frames []FrameThumbnail
	total  int
	stats  *AnnotationStats
	refs   []AnnotationRef
	err    error
}

func (f *fakeSource) ListFrames(_ context.Context, _ string, limit int) ([]FrameThumbnail, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	frames := f.frames
	if limit > 0 && len(frames) > limit {
		frames = frames[:limit]
	}
	return frames, f.total, nil
}

func (f *fakeSource) GetAnnotationStats(context.Context, string) (*AnnotationStats, error) {
	return f.stats, f.err
}

func (f *fakeSource) ListAnnotations(context.Context, string) ([]AnnotationRef, error) {
	return f.refs, f.err
}

func makeFrames(n int) []FrameThumbnail {
	out := make([]FrameThumbnail, 0, n)
	for i := range n {
		out = append(out, FrameThumbnail{
			FrameID:         fmt.Sprintf("f%03d", i),
			SequenceIndex:   i,
			SVO2FrameIndex:  i * 3,
			AnnotationCount: 4,
		})
	}
	return out
}

// newTestSession 绑定任务并加载 n 帧
func newTestSession(n int, opts ...SessionOption) (*Session, *fakeScheduler) {
	sc := &fakeScheduler{}
	s := NewSession("test", append([]SessionOption{WithScheduler(sc)}, opts...)...)
	s.SetJobID("job-1")
	s.SetFrames(makeFrames(n), n)
	return s, sc
}
