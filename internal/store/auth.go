package store

import (
	"log"

	"todoflow/internal/model"
)

// AuthState returns the current identity readiness.
func (s *Store) AuthState() model.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

// SetAuthState is the sole ingress point for identity notifications.
// While loading, mutations keep queueing. Once the state resolves
// (including the anonymous/local identity, uid "") the store selects a
// repository, drains the pending queue in order, and subscribes to the
// repository's pushes. A later call with a different identity tears the
// previous subscription down first.
func (s *Store) SetAuthState(state model.AuthState) {
	s.mu.Lock()
	s.auth = state
	if state.Loading || s.repos == nil {
		s.mu.Unlock()
		return
	}

	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	repo := s.repos.ForUser(state.UID)
	s.repo = repo
	s.mu.Unlock()

	go func() {
		s.flushPending(repo)
		unsub, err := repo.Subscribe(s.applyRemote)
		if err != nil {
			log.Printf("subscribe tasks: %v", err)
			return
		}
		s.mu.Lock()
		// identity may have changed again while subscribing
		if s.repo != repo {
			s.mu.Unlock()
			unsub()
			return
		}
		s.unsub = unsub
		s.mu.Unlock()
	}()
}

// PendingWrites returns a copy of the queued writes, oldest first.
func (s *Store) PendingWrites() []model.PendingWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PendingWrite(nil), s.pending...)
}
