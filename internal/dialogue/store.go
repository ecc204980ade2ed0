package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/cuya-bot/internal/models"
)

// DefaultMaxSessions bounds the number of conversations held in memory.
const DefaultMaxSessions = 10000

// ErrTooManySessions is returned by Handle when a new conversation would
// exceed the store's capacity.
var ErrTooManySessions = errors.New("too many active sessions")

type entry struct {
	mu      sync.Mutex
	session *models.Session
	evicted bool
}

// Store keeps one dialogue session per conversation id. Messages for the same
// id are applied one at a time; different ids never block each other beyond
// the map lookup. Only conversations that are past Idle are retained.
type Store struct {
	machine     *Machine
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	sessions    map[string]*entry
	mu          sync.RWMutex
}

type StoreOption func(*Store)

// WithMaxSessions caps the number of retained sessions. n <= 0 keeps the
// default.
func WithMaxSessions(n int) StoreOption {
	return func(st *Store) {
		if n > 0 {
			st.maxSessions = n
		}
	}
}

func NewStore(machine *Machine, ttl time.Duration, opts ...StoreOption) *Store {
	st := &Store{
		machine:     machine,
		ttl:         ttl,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
		sessions:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Handle applies message to the session identified by id, creating it on
// first use. A session that ends the step in Idle is dropped, since a fresh
// session is identical to it.
func (st *Store) Handle(ctx context.Context, id, message string) (Reply, error) {
	for {
		e, err := st.getOrCreate(id)
		if errors.Is(err, ErrTooManySessions) {
			return st.handleDetached(ctx, id, message)
		}
		if err != nil {
			return Reply{}, err
		}

		e.mu.Lock()
		if e.evicted {
			// Removed between lookup and lock; look it up again.
			e.mu.Unlock()
			continue
		}

		reply, err := st.machine.Step(ctx, e.session, message)
		e.session.UpdatedAt = st.now()
		if e.session.Stage == models.StageIdle {
			st.remove(id, e)
		}
		e.mu.Unlock()

		return reply, err
	}
}

// handleDetached serves a new conversation while the store is full. Messages
// that leave the session in Idle need no slot; anything else is refused.
func (st *Store) handleDetached(ctx context.Context, id, message string) (Reply, error) {
	s := models.NewSession(id)
	reply, err := st.machine.Step(ctx, s, message)
	if err != nil {
		return reply, err
	}
	if s.Stage != models.StageIdle {
		slog.Warn("session store full", "session_id", id, "max_sessions", st.maxSessions)
		return Reply{}, ErrTooManySessions
	}
	return reply, nil
}

func (st *Store) getOrCreate(id string) (*entry, error) {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return e, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok := st.sessions[id]; ok {
		return e, nil
	}
	if len(st.sessions) >= st.maxSessions {
		return nil, ErrTooManySessions
	}
	s := models.NewSession(id)
	s.UpdatedAt = st.now()
	e = &entry{session: s}
	st.sessions[id] = e
	return e, nil
}

// remove drops e from the map. The caller holds e.mu.
func (st *Store) remove(id string, e *entry) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.sessions[id] == e {
		delete(st.sessions, id)
	}
	e.evicted = true
}

// Session returns a copy of the session for id.
func (st *Store) Session(id string) (models.Session, bool) {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return models.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return models.Session{}, false
	}
	cp := *e.session
	cp.Answers = append([]models.Answer(nil), e.session.Answers...)
	return cp, true
}

// Sweep evicts sessions idle for longer than the store's TTL and returns how
// many were removed. Sessions in the middle of a step are skipped, as are
// completed sessions whose report has not been saved yet: they are only
// released by a successful retry.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, e := range st.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.session.UpdatedAt.Before(cutoff) {
			if e.session.Stage == models.StageCompleted {
				slog.Warn("keeping session with unsaved report",
					"session_id", id,
					"category", e.session.Category.ID,
					"idle", st.now().Sub(e.session.UpdatedAt).Round(time.Second),
				)
			} else {
				e.evicted = true
				delete(st.sessions, id)
				removed++
			}
		}
		e.mu.Unlock()
	}
	return removed
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
