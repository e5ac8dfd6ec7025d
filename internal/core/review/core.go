package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/conc"
)

// FrameSource 任务帧与检测数据来源
type FrameSource interface {
	ListFrames(ctx context.Context, jobID string, limit int) ([]FrameThumbnail, int, error)
	GetAnnotationStats(ctx context.Context, jobID string) (*AnnotationStats, error)
	ListAnnotations(ctx context.Context, jobID string) ([]AnnotationRef, error)
}

// DiversityAnalyzer 外部多样性分析服务
type DiversityAnalyzer interface {
	AnalyzeDiversity(ctx context.Context, jobID string, t DiversityThresholds) (*DiversityAnalysisResult, error)
}

// DatasetCreator 数据集持久化服务
type DatasetCreator interface {
	CreateCuratedDataset(ctx context.Context, req *CuratedDatasetRequest) (*CuratedDatasetRef, error)
}

// Config 审核会话配置
type Config struct {
	BaseFrameRate float64
	FrameLimit    int
	IdleTimeout   time.Duration
}

// Core business domain
type Core struct {
	conf      Config
	source    FrameSource
	analyzer  DiversityAnalyzer
	creator   DatasetCreator
	scheduler Scheduler
	sessions  *conc.Map[string, *Session]
}

type Option func(*Core)

// WithFrameSource 注入帧数据来源
func WithFrameSource(src FrameSource) Option {
	return func(c *Core) {
		c.source = src
	}
}

// WithDiversityAnalyzer 注入多样性分析服务
func WithDiversityAnalyzer(a DiversityAnalyzer) Option {
	return func(c *Core) {
		c.analyzer = a
	}
}

// WithDatasetCreator 注入数据集持久化服务
func WithDatasetCreator(dc DatasetCreator) Option {
	return func(c *Core) {
		c.creator = dc
	}
}

// WithConfig 注入会话配置
func WithConfig(conf Config) Option {
	return func(c *Core) {
		c.conf = conf
	}
}

// WithSessionScheduler 替换会话播放定时器
func WithSessionScheduler(sc Scheduler) Option {
	return func(c *Core) {
		c.scheduler = sc
	}
}

// NewCore create business domain
func NewCore(opts ...Option) Core {
	c := Core{
		conf:     Config{BaseFrameRate: DefaultBaseFrameRate, FrameLimit: 10000},
		sessions: conc.NewMap[string, *Session](),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Core) newSession() *Session {
	opts := []SessionOption{
		WithAnalyzer(c.analyzer),
		WithCreator(c.creator),
		WithBaseFrameRate(c.conf.BaseFrameRate),
	}
	if c.scheduler != nil {
		opts = append(opts, WithScheduler(c.scheduler))
	}
	return NewSession(uuid.NewString(), opts...)
}

// OpenSession 为任务创建审核会话并加载帧与检测数据
func (c Core) OpenSession(ctx context.Context, jobID string) (*Session, error) {
	s := c.newSession()
	if err := c.LoadJob(ctx, s, jobID); err != nil {
		s.Close()
		return nil, err
	}
	c.sessions.Store(s.ID(), s)
	slog.InfoContext(ctx, "review session opened", "session_id", s.ID(), "job_id", jobID, "frames", s.Total())
	return s, nil
}

// LoadJob 会话切换到指定任务，原有状态全部重置
func (c Core) LoadJob(ctx context.Context, s *Session, jobID string) error {
	if jobID == "" {
		return ErrNoJob
	}
	if c.source == nil {
		return fmt.Errorf("frame source not configured")
	}

	frames, total, err := c.source.ListFrames(ctx, jobID, c.conf.FrameLimit)
	if err != nil {
		return err
	}
	stats, err := c.source.GetAnnotationStats(ctx, jobID)
	if err != nil {
		return err
	}
	refs, err := c.source.ListAnnotations(ctx, jobID)
	if err != nil {
		return err
	}

	s.SetJobID(jobID)
	s.SetFrames(frames, total)
	if stats != nil {
		s.SetAnnotations(stats.Classes, refs, stats.TotalAnnotations)
	} else {
		s.SetAnnotations(nil, refs, len(refs))
	}
	return nil
}

// GetSession 查询会话
func (c Core) GetSession(id string) (*Session, error) {
	s, ok := c.sessions.Load(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// CloseSession 销毁会话
func (c Core) CloseSession(id string) error {
	s, ok := c.sessions.Load(id)
	if !ok {
		return ErrSessionNotFound
	}
	c.sessions.Delete(id)
	s.Close()
	return nil
}

// Sessions 当前会话数量
func (c Core) Sessions() int {
	var n int
	c.sessions.Range(func(string, *Session) bool {
		n++
		return true
	})
	return n
}

// CloseIdleSessions 关闭超过 maxIdle 未操作的会话，返回关闭数量
func (c Core) CloseIdleSessions(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-maxIdle)
	var idle []string
	c.sessions.Range(func(id string, s *Session) bool {
		if s.IdleSince().Before(cutoff) {
			idle = append(idle, id)
		}
		return true
	})
	for _, id := range idle {
		_ = c.CloseSession(id)
	}
	return len(idle)
}

// StartJanitor 定时清理空闲会话，ctx 取消时退出
func (c Core) StartJanitor(ctx context.Context) {
	if c.conf.IdleTimeout <= 0 {
		slog.Info("review session janitor disabled")
		return
	}
	slog.Info("review session janitor started", "idle_timeout", c.conf.IdleTimeout)

	every := min(c.conf.IdleTimeout, 5*time.Minute)
	conc.Timer(ctx, every, every, func() {
		if n := c.CloseIdleSessions(c.conf.IdleTimeout); n > 0 {
			slog.Info("idle review sessions closed", "count", n)
		}
	})
}
