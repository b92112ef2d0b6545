package logging

// ProgressSampler decides when a long-running loop should report progress.
// It always emits for the first and last item and every Nth item between.
type ProgressSampler struct {
	every    int
	lastSent int
}

// NewProgressSampler constructs a sampler with the given cadence. Values
// below one fall back to every 10 items.
func NewProgressSampler(every int) *ProgressSampler {
	if every <= 0 {
		every = 10
	}
	return &ProgressSampler{every: every, lastSent: -1}
}

// Every returns the configured cadence.
func (s *ProgressSampler) Every() int {
	if s == nil {
		return 1
	}
	return s.every
}

// ShouldEmit reports whether progress for processed-of-total should be sent.
// A processed value that was already emitted is never emitted twice.
func (s *ProgressSampler) ShouldEmit(processed, total int) bool {
	if s == nil {
		return true
	}
	if processed == s.lastSent {
		return false
	}
	if processed == 0 || processed >= total || processed%s.every == 0 {
		s.lastSent = processed
		return true
	}
	return false
}

// Reset clears the sampler state before a new run.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastSent = -1
}
