package pipeline

import (
	"context"
	"sync"

	"github.com/ankit-chaubey/shotmeta/core/canon"
)

// Session is the result slot of one photo-editing context. Every Select
// starts a new generation; a run publishes its outcome only while its
// generation is still the latest, so the last selection wins. Superseded
// runs are not cancelled, their results are dropped.
type Session struct {
	ex *Extractor

	mu      sync.Mutex
	gen     uint64
	current Outcome
}

func NewSession(ex *Extractor) *Session {
	return &Session{ex: ex, current: Outcome{State: Running, Metadata: canon.Unknown()}}
}

// Select starts extracting ref. It returns the generation of the run and a
// channel that is closed once the run has finished, whether its outcome was
// published or discarded.
func (s *Session) Select(ctx context.Context, ref string) (uint64, <-chan struct{}) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.current = Outcome{Ref: ref, State: Running, Metadata: canon.Unknown()}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		out := s.ex.Run(ctx, ref)
		if !s.publish(gen, out) {
			s.ex.log.Debug().
				Str("run", out.RunID).
				Uint64("generation", gen).
				Msg("superseded result discarded")
		}
	}()
	return gen, done
}

func (s *Session) publish(gen uint64, out Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.current = out
	return true
}

// Current returns the outcome visible to the host and the generation it
// belongs to. While the latest run is in flight the state is Running.
func (s *Session) Current() (Outcome, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.gen
}
