package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/curation/internal/core/review"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// ReviewAPI 审核会话接口
type ReviewAPI struct {
	reviewCore review.Core
}

func NewReviewAPI(core review.Core) ReviewAPI {
	return ReviewAPI{reviewCore: core}
}

func registerReview(g gin.IRouter, api ReviewAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/reviews", handler...)
	group.POST("", web.WrapH(api.openSession))
	group.GET("/:sid", web.WrapH(api.getState))
	group.DELETE("/:sid", web.WrapH(api.closeSession))
	group.PUT("/:sid/job", web.WrapH(api.switchJob))

	group.POST("/:sid/classes/toggle", web.WrapH(api.toggleClass))
	group.PUT("/:sid/classes", web.WrapH(api.setClass))
	group.POST("/:sid/annotations/toggle", web.WrapH(api.toggleAnnotation))
	group.PUT("/:sid/annotations", web.WrapH(api.setAnnotation))
	group.POST("/:sid/frames/toggle", web.WrapH(api.toggleFrame))
	group.PUT("/:sid/frames", web.WrapH(api.setFrames))
	group.POST("/:sid/filters/reset", web.WrapH(api.resetFilters))
	group.POST("/:sid/filters/load", web.WrapH(api.loadFilters))

	group.POST("/:sid/diversity/analyze", web.WrapH(api.analyze))
	group.GET("/:sid/diversity", web.WrapH(api.getDiversity))
	group.PUT("/:sid/diversity/apply", web.WrapH(api.applyDiversity))

	playback := group.Group("/:sid/playback")
	playback.POST("/play", web.WrapH(api.play))
	playback.POST("/pause", web.WrapH(api.pause))
	playback.POST("/toggle", web.WrapH(api.togglePlay))
	playback.POST("/step", web.WrapH(api.step))
	playback.POST("/seek", web.WrapH(api.seek))
	playback.POST("/speed", web.WrapH(api.setSpeed))
	playback.POST("/disable", web.WrapH(api.setDisabled))

	group.POST("/:sid/keys", web.WrapH(api.handleKey))
	group.GET("/:sid/summary", web.WrapH(api.getSummary))
	group.GET("/:sid/request", web.WrapH(api.getRequest))
	group.POST("/:sid/submit", web.WrapH(api.submit))
}

// reviewErr 将会话错误转换为接口错误，其它错误原样返回
func reviewErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, review.ErrSessionNotFound):
		return reason.ErrNotFound.Withf(`review session err[%s]`, err.Error())
	case errors.Is(err, review.ErrNoAnalyzer), errors.Is(err, review.ErrNoCreator):
		return reason.ErrServer.SetMsg(err.Error())
	case errors.Is(err, review.ErrAnalysisFailed):
		return reason.ErrServiceUnavailable.SetMsg(err.Error())
	}
	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			return reason.ErrBadRequest.SetMsg(err.Error())
		}
	}
	return err
}

var badRequestErrs = []error{
	review.ErrNoJob,
	review.ErrSessionClosed,
	review.ErrInvalidSpeed,
	review.ErrInvalidThreshold,
	review.ErrAnalysisSuperseded,
	review.ErrNameRequired,
	review.ErrSubmitInProgress,
}

func (a ReviewAPI) session(c *gin.Context) (*review.Session, error) {
	s, err := a.reviewCore.GetSession(c.Param("sid"))
	return s, reviewErr(err)
}

// withSession 对会话执行操作后返回最新状态
func (a ReviewAPI) withSession(c *gin.Context, fn func(*review.Session) error) (review.State, error) {
	s, err := a.session(c)
	if err != nil {
		return review.State{}, err
	}
	if err := fn(s); err != nil {
		return review.State{}, reviewErr(err)
	}
	return s.State(), nil
}

func (a ReviewAPI) openSession(c *gin.Context, in *openReviewInput) (review.State, error) {
	s, err := a.reviewCore.OpenSession(c.Request.Context(), in.JobID)
	if err != nil {
		return review.State{}, reviewErr(err)
	}
	return s.State(), nil
}

func (a ReviewAPI) getState(c *gin.Context, _ *struct{}) (review.State, error) {
	return a.withSession(c, func(*review.Session) error { return nil })
}

func (a ReviewAPI) closeSession(c *gin.Context, _ *struct{}) (gin.H, error) {
	sid := c.Param("sid")
	if err := a.reviewCore.CloseSession(sid); err != nil {
		return nil, reviewErr(err)
	}
	return gin.H{"session_id": sid}, nil
}

// switchJob 切换任务，会话内的过滤与播放状态全部重置
func (a ReviewAPI) switchJob(c *gin.Context, in *openReviewInput) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		return a.reviewCore.LoadJob(c.Request.Context(), s, in.JobID)
	})
}

func (a ReviewAPI) toggle(c *gin.Context, fn func(*review.Session) bool) (*toggleOutput, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	excluded := fn(s)
	return &toggleOutput{Excluded: excluded, State: s.State()}, nil
}

func (a ReviewAPI) toggleClass(c *gin.Context, in *classInput) (*toggleOutput, error) {
	if in.ClassName == "" {
		return nil, reason.ErrBadRequest.SetMsg("class_name 不能为空")
	}
	return a.toggle(c, func(s *review.Session) bool { return s.ToggleClass(in.ClassName) })
}

func (a ReviewAPI) setClass(c *gin.Context, in *classInput) (review.State, error) {
	if in.ClassName == "" {
		return review.State{}, reason.ErrBadRequest.SetMsg("class_name 不能为空")
	}
	return a.withSession(c, func(s *review.Session) error {
		s.SetClassExcluded(in.ClassName, in.Excluded)
		return nil
	})
}

func (a ReviewAPI) toggleAnnotation(c *gin.Context, in *annotationInput) (*toggleOutput, error) {
	if in.AnnotationID == "" {
		return nil, reason.ErrBadRequest.SetMsg("annotation_id 不能为空")
	}
	return a.toggle(c, func(s *review.Session) bool { return s.ToggleAnnotation(in.AnnotationID) })
}

func (a ReviewAPI) setAnnotation(c *gin.Context, in *annotationInput) (review.State, error) {
	if in.AnnotationID == "" {
		return review.State{}, reason.ErrBadRequest.SetMsg("annotation_id 不能为空")
	}
	return a.withSession(c, func(s *review.Session) error {
		s.SetAnnotationExcluded(in.AnnotationID, in.Excluded)
		return nil
	})
}

// toggleFrame 越界的帧序号被忽略，返回值保持 false
func (a ReviewAPI) toggleFrame(c *gin.Context, in *frameToggleInput) (*toggleOutput, error) {
	return a.toggle(c, func(s *review.Session) bool { return s.ToggleFrame(in.FrameIndex) })
}

func (a ReviewAPI) setFrames(c *gin.Context, in *frameSetInput) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		s.SetExcludedFrameIndices(in.FrameIndices)
		return nil
	})
}

func (a ReviewAPI) resetFilters(c *gin.Context, _ *struct{}) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		s.ResetFilters()
		return nil
	})
}

// loadFilters 从已有数据集的过滤配置恢复排除状态
func (a ReviewAPI) loadFilters(c *gin.Context, in *review.FilterConfig) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		s.LoadFilterConfig(*in)
		return nil
	})
}

func (a ReviewAPI) analyze(c *gin.Context, in *analyzeInput) (*analyzeOutput, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	if in.Async {
		seq, err := s.StartAnalysis(c.Request.Context(), in.DiversityThresholds)
		if err != nil {
			return nil, reviewErr(err)
		}
		return &analyzeOutput{RequestID: seq, State: s.State()}, nil
	}
	res, err := s.Analyze(c.Request.Context(), in.DiversityThresholds)
	if err != nil {
		return nil, reviewErr(err)
	}
	return &analyzeOutput{Result: res, State: s.State()}, nil
}

func (a ReviewAPI) getDiversity(c *gin.Context, _ *struct{}) (*review.DiversityAnalysisResult, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	res := s.Diversity()
	return &res, nil
}

// applyDiversity 分析未完成时应用无效果，返回的 diversity_applied 保持 false
func (a ReviewAPI) applyDiversity(c *gin.Context, in *applyDiversityInput) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		s.ApplyDiversity(in.Apply)
		return nil
	})
}

func (a ReviewAPI) play(c *gin.Context, _ *struct{}) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		s.Play()
		return nil
	})
}

func (a ReviewAPI) pause(c *gin.Context, _ *struct{}) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		s.Pause()
		return nil
	})
}

func (a ReviewAPI) togglePlay(c *gin.Context, _ *struct{}) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		s.TogglePlay()
		return nil
	})
}

func (a ReviewAPI) step(c *gin.Context, in *stepInput) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		switch {
		case in.Delta > 0:
			s.StepForward()
		case in.Delta < 0:
			s.StepBackward()
		}
		return nil
	})
}

func (a ReviewAPI) seek(c *gin.Context, in *seekInput) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		s.Seek(in.Index)
		return nil
	})
}

func (a ReviewAPI) setSpeed(c *gin.Context, in *speedInput) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		return s.SetSpeed(in.Speed)
	})
}

func (a ReviewAPI) setDisabled(c *gin.Context, in *disableInput) (review.State, error) {
	return a.withSession(c, func(s *review.Session) error {
		s.SetDisabled(in.Disabled)
		return nil
	})
}

func (a ReviewAPI) handleKey(c *gin.Context, in *keyInput) (*keyOutput, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	handled := s.HandleKey(in.Key, in.Focus)
	return &keyOutput{Handled: handled, State: s.State()}, nil
}

func (a ReviewAPI) getSummary(c *gin.Context, _ *struct{}) (*summaryOutput, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	snap := s.Snapshot()
	return &summaryOutput{
		Summary:          review.Summarize(snap),
		ExclusionReasons: review.BuildExclusionReasons(snap),
		FilterConfig:     review.BuildFilterConfig(snap),
	}, nil
}

// getRequest 预览提交载荷，不落库
func (a ReviewAPI) getRequest(c *gin.Context, in *submitInput) (*review.CuratedDatasetRequest, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	req, err := review.BuildCuratedDatasetRequest(s.Snapshot(), in.Name, in.Description)
	return req, reviewErr(err)
}

func (a ReviewAPI) submit(c *gin.Context, in *submitInput) (*submitOutput, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	ref, err := s.Submit(c.Request.Context(), in.Name, in.Description)
	if err != nil {
		return nil, reviewErr(err)
	}
	return &submitOutput{Dataset: ref, State: s.State()}, nil
}
