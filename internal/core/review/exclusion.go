package review

// exclusionState 会话内可编辑的排除集合
// 多样性排除集合只能在 ApplyDiversity 时整体替换
type exclusionState struct {
	classes           set[string]
	annotations       set[string]
	frames            set[int]
	diversityApplied  bool
	diversityFrames   set[int]
	appliedThresholds *DiversityThresholds
}

func newExclusionState() exclusionState {
	return exclusionState{
		classes:         newSet[string](),
		annotations:     newSet[string](),
		frames:          newSet[int](),
		diversityFrames: newSet[int](),
	}
}

func (e exclusionState) effectiveFrames() set[int] {
	if !e.diversityApplied {
		return e.frames.clone()
	}
	return e.frames.union(e.diversityFrames)
}

func (e exclusionState) view() ExclusionState {
	return ExclusionState{
		ExcludedClasses:               e.classes.sorted(),
		ExcludedAnnotationIDs:         e.annotations.sorted(),
		ExcludedFrameIndices:          e.frames.sorted(),
		DiversityApplied:              e.diversityApplied,
		DiversityExcludedFrameIndices: e.diversityFrames.sorted(),
	}
}

// ToggleClass 切换类别排除，返回切换后是否处于排除状态
func (s *Session) ToggleClass(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.excl.classes.toggle(name)
}

// SetClassExcluded 显式设置类别排除
func (s *Session) SetClassExcluded(name string, excluded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.excl.classes.set(name, excluded)
}

// ToggleAnnotation 切换单个检测框排除
func (s *Session) ToggleAnnotation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.excl.annotations.toggle(id)
}

// SetAnnotationExcluded 显式设置检测框排除
func (s *Session) SetAnnotationExcluded(id string, excluded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.excl.annotations.set(id, excluded)
}

// ToggleFrame 手动切换帧排除，序号越界时忽略
func (s *Session) ToggleFrame(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if !s.inRangeLocked(index) {
		return s.excl.frames.has(index)
	}
	return s.excl.frames.toggle(index)
}

// SetFrameExcluded 手动设置帧排除，序号越界时忽略
func (s *Session) SetFrameExcluded(index int, excluded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if !s.inRangeLocked(index) {
		return
	}
	s.excl.frames.set(index, excluded)
}

// SetExcludedFrameIndices 整体替换手动排除的帧，用于加载已保存的过滤配置
func (s *Session) SetExcludedFrameIndices(indices []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.excl.frames = newSet(s.sanitizeIndicesLocked(indices)...)
}

// ResetFilters 清空类别、检测框、手动帧排除并取消多样性过滤
// 保留最近一次分析结果，重新应用无需再次分析
func (s *Session) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.excl.classes = newSet[string]()
	s.excl.annotations = newSet[string]()
	s.excl.frames = newSet[int]()
	s.excl.diversityApplied = false
	s.excl.appliedThresholds = nil
}

// ApplyDiversity 应用或取消多样性过滤，不影响手动与类别排除
// 没有已完成的分析结果时 apply=true 不做任何修改，返回 false
func (s *Session) ApplyDiversity(apply bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if !apply {
		s.excl.diversityApplied = false
		s.excl.appliedThresholds = nil
		return true
	}

	r := s.div.result
	if r.Status != DiversityComplete {
		return false
	}
	s.excl.diversityFrames = newSet(s.sanitizeIndicesLocked(r.ExcludedFrameIndices)...)
	s.excl.diversityApplied = true
	t := r.Thresholds
	s.excl.appliedThresholds = &t
	s.log.Info("diversity applied",
		"job_id", s.jobID,
		"excluded", len(s.excl.diversityFrames),
		"similarity", t.Similarity,
		"motion", t.Motion,
	)
	return true
}

// EffectiveExcludedFrames 手动排除与已应用的多样性排除的并集
func (s *Session) EffectiveExcludedFrames() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.excl.effectiveFrames().sorted()
}

// Exclusion 排除状态视图
func (s *Session) Exclusion() ExclusionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.excl.view()
}

// LoadFilterConfig 从已保存的过滤配置恢复类别、检测框与手动帧排除
// 多样性过滤需要重新分析后再应用
func (s *Session) LoadFilterConfig(cfg FilterConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.excl.classes = newSet(cfg.ExcludedClasses...)
	s.excl.annotations = newSet(cfg.ExcludedAnnotationIDs...)
	s.excl.frames = newSet(s.sanitizeIndicesLocked(cfg.ExcludedFrameIndices)...)
	s.excl.diversityApplied = false
	s.excl.appliedThresholds = nil
}

// inRangeLocked 帧总数未知时不限制上界
func (s *Session) inRangeLocked(index int) bool {
	if index < 0 {
		return false
	}
	return s.total == 0 || index < s.total
}

func (s *Session) sanitizeIndicesLocked(indices []int) []int {
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if s.inRangeLocked(idx) {
			out = append(out, idx)
		}
	}
	return out
}

// pruneRangeLocked 帧总数变化后丢弃越界的排除帧
func (s *Session) pruneRangeLocked() {
	for _, frames := range []set[int]{s.excl.frames, s.excl.diversityFrames} {
		for idx := range frames {
			if !s.inRangeLocked(idx) {
				delete(frames, idx)
			}
		}
	}
}
