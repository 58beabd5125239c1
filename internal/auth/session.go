package auth

import (
	"context"
	"happy-game/internal/constants"
	"happy-game/internal/domain"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// State is what readers observe. Loading is true only until the provider's
// first callback and never again afterwards.
type State struct {
	User    *domain.User
	Loading bool
}

// Session mirrors one visitor's identity. The provider callback registered in
// newSession is its only writer.
type Session struct {
	mu          sync.RWMutex
	state       State
	changed     chan struct{}
	unsubscribe func()
}

func newSession(sid string, provider Provider) *Session {
	s := &Session{
		state:   State{Loading: true},
		changed: make(chan struct{}),
	}
	s.unsubscribe = provider.OnAuthStateChanged(sid, s.set)
	return s
}

func (s *Session) set(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{User: user, Loading: false}
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Changes returns a channel closed at the next state change.
func (s *Session) Changes() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

// Wait blocks until the session has resolved, then returns its state.
func (s *Session) Wait(ctx context.Context) (State, error) {
	for {
		s.mu.RLock()
		state, ch := s.state, s.changed
		s.mu.RUnlock()

		if !state.Loading {
			return state, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// Sessions holds one Session per visitor sid, created on first use.
type Sessions struct {
	provider Provider
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

func NewSessions(provider Provider) *Sessions {
	return &Sessions{
		provider: provider,
		now:      time.Now,
		entries:  make(map[string]*sessionEntry),
	}
}

func (r *Sessions) Get(sid string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sid]
	if !ok {
		e = &sessionEntry{session: newSession(sid, r.provider)}
		r.entries[sid] = e
	}
	e.lastSeen = r.now()
	return e.session
}

func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Prune drops sessions not used for longer than idle. A pruned visitor gets a
// fresh session, resolved again from the provider, on the next request.
func (r *Sessions) Prune(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	pruned := 0
	for sid, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			e.session.Close()
			delete(r.entries, sid)
			pruned++
		}
	}
	return pruned
}

func (r *Sessions) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for sid, e := range r.entries {
		e.session.Close()
		delete(r.entries, sid)
	}
}

// ManageSessions prunes idle sessions in the background while the app runs.
func ManageSessions(lc fx.Lifecycle, sessions *Sessions, logger zerolog.Logger) {
	done := make(chan struct{})
	var wg sync.WaitGroup

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(constants.SessionPruneEvery)
				defer ticker.Stop()

				for {
					select {
					case <-ticker.C:
						if n := sessions.Prune(constants.SessionIdleTimeout); n > 0 {
							logger.Debug().Int("pruned", n).Int("active", sessions.Len()).Msg("pruned idle sessions")
						}
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(done)
			wg.Wait()
			sessions.Close()
			return nil
		},
	})
}
