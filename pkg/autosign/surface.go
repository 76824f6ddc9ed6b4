package autosign

import (
	"context"
	"errors"
	"sync"
)

var ErrSuperseded = errors.New("task superseded by a newer one")

// Surface runs at most one decode task at a time. Starting a new task
// cancels the one in flight; the old task then reports ErrSuperseded,
// which callers are expected to ignore.
type Surface struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSurface() *Surface {
	return &Surface{}
}

// Cancel aborts the in-flight task, if any.
func (s *Surface) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
}

func (s *Surface) start(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	taskCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.seq++
	return taskCtx, s.seq
}

// finish reports whether the task is still the latest one.
func (s *Surface) finish(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

func RunSurface[T any](ctx context.Context, s *Surface, fn func(context.Context) (T, error)) (T, error) {
	taskCtx, seq := s.start(ctx)
	result, err := fn(taskCtx)

	var zero T
	if !s.finish(seq) {
		return zero, ErrSuperseded
	}
	if err != nil {
		return zero, err
	}
	return result, nil
}

// InspectLatest inspects a document on the surface, superseding any earlier
// inspection still running.
func (s *Surface) InspectLatest(ctx context.Context, pdf []byte) (DocumentInfo, error) {
	return RunSurface(ctx, s, func(ctx context.Context) (DocumentInfo, error) {
		return Inspect(ctx, pdf)
	})
}

// IsSuperseded reports whether err came from a cancelled, superseded task.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}
