package review

import (
	"cmp"
	"maps"
	"slices"
)

type set[T cmp.Ordered] map[T]struct{}

func newSet[T cmp.Ordered](items ...T) set[T] {
	s := make(set[T], len(items))
	for _, v := range items {
		s[v] = struct{}{}
	}
	return s
}

func (s set[T]) has(v T) bool {
	_, ok := s[v]
	return ok
}

// toggle 返回切换后的状态，true 表示已加入集合
func (s set[T]) toggle(v T) bool {
	if s.has(v) {
		delete(s, v)
		return false
	}
	s[v] = struct{}{}
	return true
}

func (s set[T]) set(v T, on bool) {
	if on {
		s[v] = struct{}{}
		return
	}
	delete(s, v)
}

func (s set[T]) union(o set[T]) set[T] {
	out := make(set[T], len(s)+len(o))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range o {
		out[k] = struct{}{}
	}
	return out
}

func (s set[T]) clone() set[T] {
	out := maps.Clone(s)
	if out == nil {
		out = make(set[T])
	}
	return out
}

func (s set[T]) sorted() []T {
	out := slices.Sorted(maps.Keys(s))
	if out == nil {
		out = []T{}
	}
	return out
}
