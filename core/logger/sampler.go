package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler lets through the first num of every den calls.
type ratioSampler struct {
	num   atomic.Int64
	den   atomic.Int64
	calls atomic.Uint64
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

// Set changes the ratio; a non-positive part disables sampling.
func (s *ratioSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	num = min(num, den)
	s.num.Store(int64(num))
	s.den.Store(int64(den))
	s.calls.Store(0)
}

// Allow reports whether this call passes.
func (s *ratioSampler) Allow() bool {
	den := s.den.Load()
	if den <= 0 {
		return true
	}
	i := (s.calls.Add(1) - 1) % uint64(den)
	return int64(i) < s.num.Load()
}

// parseRatioSpec reads "n/d" or "d" (meaning 1/d). Anything else, or a
// non-positive value, yields 0, 0.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if n, d, ok := strings.Cut(spec, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(n))
		den, err2 := strconv.Atoi(strings.TrimSpace(d))
		if err1 == nil && err2 == nil {
			return num, den
		}
		return 0, 0
	}
	if d, err := strconv.Atoi(spec); err == nil && d > 0 {
		return 1, d
	}
	return 0, 0
}
