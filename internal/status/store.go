package status

import (
	"context"
	"sync"

	"github.com/genricoloni/presence/internal/domain"
)

// RunFunc is the body of a polling loop. It must return once ctx is done.
// gen identifies the loop when it writes to the Store.
type RunFunc func(ctx context.Context, gen uint64)

type loopHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	gen    uint64
}

func (h *loopHandle) live() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Store holds the externally visible Snapshot and the single loop slot.
//
// Two locks guard it: handleMu for the slot and snapMu for the Snapshot.
// When both are needed they are taken in that order, and neither is held
// while a loop performs I/O.
type Store struct {
	handleMu sync.Mutex
	handle   *loopHandle
	lastGen  uint64

	snapMu    sync.RWMutex
	snap      domain.Snapshot
	activeGen uint64
}

// NewStore creates a store with an empty Snapshot and no loop
func NewStore() *Store {
	return &Store{}
}

// Start cancels the current loop, if any, and launches run in a new goroutine.
// prepare, when not nil, edits the Snapshot before the new loop can write to it.
// The previous loop is not awaited; its later writes are rejected by Update.
func (s *Store) Start(prepare func(*domain.Snapshot), run RunFunc) uint64 {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	if s.handle != nil {
		s.handle.cancel()
	}

	s.lastGen++
	ctx, cancel := context.WithCancel(context.Background())
	h := &loopHandle{cancel: cancel, done: make(chan struct{}), gen: s.lastGen}
	s.handle = h

	s.snapMu.Lock()
	s.activeGen = h.gen
	s.snap.Running = true
	if prepare != nil {
		prepare(&s.snap)
	}
	s.snapMu.Unlock()

	go func() {
		defer close(h.done)
		defer cancel()
		run(ctx, h.gen)
	}()

	return h.gen
}

// Stop cancels the current loop without waiting for it.
// It reports whether a loop was present.
func (s *Store) Stop() bool {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	stopped := s.handle != nil
	if stopped {
		s.handle.cancel()
		s.handle = nil
	}

	s.snapMu.Lock()
	s.activeGen = 0
	s.snap.Running = false
	s.snapMu.Unlock()

	return stopped
}

// Running reports whether a loop is currently live
func (s *Store) Running() bool {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()
	return s.handle != nil && s.handle.live()
}

// Snapshot returns a copy of the current state with Running computed from
// the loop slot rather than the stored flag.
func (s *Store) Snapshot() domain.Snapshot {
	running := s.Running()

	s.snapMu.RLock()
	snap := s.snap
	s.snapMu.RUnlock()

	snap.Running = running
	return snap
}

// Update applies fn to the Snapshot if gen is the current loop's generation.
// Writes from a cancelled or replaced loop are dropped and Update returns false.
func (s *Store) Update(gen uint64, fn func(*domain.Snapshot)) bool {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	if gen == 0 || gen != s.activeGen {
		return false
	}
	fn(&s.snap)
	return true
}

// Done returns a channel closed when the loop of generation gen has exited.
// It returns nil if gen is not the current loop.
func (s *Store) Done(gen uint64) <-chan struct{} {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	if s.handle == nil || s.handle.gen != gen {
		return nil
	}
	return s.handle.done
}
