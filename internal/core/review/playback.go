package review

import (
	"slices"
	"time"
)

// DefaultBaseFrameRate 播放基准帧率，实际间隔 = 1s / (基准帧率 * 倍速)
const DefaultBaseFrameRate = 30

// Speeds 支持的播放倍速
var Speeds = []float64{0.25, 0.5, 1, 2, 4}

// Scheduler 播放定时器，每次只调度一次回调
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer 可取消的定时任务
type Timer interface {
	Stop() bool
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type playbackState struct {
	index    int
	playing  bool
	speed    float64
	disabled bool

	timer Timer
	// gen 每次取消定时器时递增，过期回调据此丢弃
	gen uint64
}

func (p playbackState) view() PlaybackState {
	return PlaybackState{
		CurrentFrameIndex: p.index,
		IsPlaying:         p.playing,
		Speed:             p.speed,
		Disabled:          p.disabled,
	}
}

// Interval 指定倍速下的帧间隔
func Interval(baseFrameRate, speed float64) time.Duration {
	if baseFrameRate <= 0 {
		baseFrameRate = DefaultBaseFrameRate
	}
	if speed <= 0 {
		speed = 1
	}
	return time.Duration(float64(time.Second) / (baseFrameRate * speed))
}

// Playback 播放状态
func (s *Session) Playback() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.play.view()
}

// Play 开始播放，无帧、已禁用或会话已关闭时不做任何事
func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.playLocked()
}

func (s *Session) playLocked() {
	if s.total == 0 || s.play.disabled || s.closed || s.play.playing {
		return
	}
	s.play.playing = true
	s.scheduleTickLocked()
}

// Pause 暂停并取消定时器
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.pauseLocked()
}

func (s *Session) pauseLocked() {
	s.play.playing = false
	s.stopTickLocked()
}

// TogglePlay 切换播放/暂停
func (s *Session) TogglePlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.togglePlayLocked()
}

func (s *Session) togglePlayLocked() {
	if s.play.playing {
		s.pauseLocked()
		return
	}
	s.playLocked()
}

// StepForward 前进一帧，已在最后一帧时不动
func (s *Session) StepForward() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.stepLocked(1)
}

// StepBackward 后退一帧，已在第一帧时不动
func (s *Session) StepBackward() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.stepLocked(-1)
}

func (s *Session) stepLocked(delta int) {
	s.play.index = s.clampIndexLocked(s.play.index + delta)
}

// Seek 跳转到指定帧，越界时截断到 [0, total-1]
func (s *Session) Seek(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.play.index = s.clampIndexLocked(index)
}

// SetSpeed 设置倍速，下一次 tick 生效
func (s *Session) SetSpeed(speed float64) error {
	if !slices.Contains(Speeds, speed) {
		return ErrInvalidSpeed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.play.speed = speed
	return nil
}

// SetDisabled 外部禁用播放面板时立即暂停
func (s *Session) SetDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.play.disabled = disabled
	if disabled {
		s.pauseLocked()
	}
}

// Tick 执行一次播放步进，到达最后一帧时自动暂停，不循环
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked()
}

func (s *Session) tickLocked() {
	if !s.play.playing {
		return
	}
	if s.total == 0 || s.play.index >= s.total-1 {
		s.play.index = s.clampIndexLocked(s.play.index)
		s.pauseLocked()
		return
	}
	s.play.index++
}

// onTick 定时器回调，gen 不一致说明定时器已被取消
func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.play.gen || !s.play.playing || s.closed {
		return
	}
	s.play.timer = nil
	s.tickLocked()
	if s.play.playing {
		s.scheduleTickLocked()
	}
}

func (s *Session) scheduleTickLocked() {
	s.stopTickLocked()
	gen := s.play.gen
	s.play.timer = s.scheduler.AfterFunc(Interval(s.frameRate, s.play.speed), func() {
		s.onTick(gen)
	})
}

// stopTickLocked 取消定时器，保证之后不会再有回调修改状态
func (s *Session) stopTickLocked() {
	s.play.gen++
	if s.play.timer != nil {
		s.play.timer.Stop()
		s.play.timer = nil
	}
}

func (s *Session) clampIndexLocked(index int) int {
	if s.total <= 0 {
		return 0
	}
	return min(max(index, 0), s.total-1)
}

func (s *Session) clampPlaybackLocked() {
	s.play.index = s.clampIndexLocked(s.play.index)
	if s.total == 0 {
		s.pauseLocked()
	}
}

// Focus 键盘事件发生时的焦点元素
type Focus string

const (
	FocusNone     Focus = ""
	FocusInput    Focus = "input"
	FocusTextarea Focus = "textarea"
	FocusEditable Focus = "contenteditable"
)

// isTextEntry 文本输入框中的按键不作为快捷键
func (f Focus) isTextEntry() bool {
	switch f {
	case FocusInput, FocusTextarea, FocusEditable:
		return true
	}
	return false
}

// HandleKey 处理播放快捷键，空格切换播放，左右方向键单步
// 返回 true 表示按键已被消费
func (s *Session) HandleKey(key string, focus Focus) bool {
	if focus.isTextEntry() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.play.disabled {
		return false
	}
	switch key {
	case " ", "Space", "Spacebar":
		s.touchLocked()
		s.togglePlayLocked()
	case "ArrowLeft":
		s.touchLocked()
		s.stepLocked(-1)
	case "ArrowRight":
		s.touchLocked()
		s.stepLocked(1)
	default:
		return false
	}
	return true
}
