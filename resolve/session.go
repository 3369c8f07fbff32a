package resolve

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagefill/media"
)

// DefaultSessionTTL bounds how long an abandoned drag stays visible: the
// browser's native drag protocol does not reliably deliver an end event
// across rendering context boundaries.
const DefaultSessionTTL = 30 * time.Second

// Session is one drag operation: what is being dragged and since when. It is
// created on drag start, consulted by the resolver during drop and ended on
// drag end or expiry - never ambient state.
type Session struct {
	ID        string
	Media     media.Reference
	StartedAt time.Time
}

func (s *Session) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.StartedAt) > ttl
}

// Board is the single well-known place both drag origin (gallery) and
// destination (document canvas) observe the current session, even when they
// live in different rendering contexts and cannot share call parameters. It
// holds at most one session at a time with a strict lifecycle: set on drag
// start, read during drop, cleared on drag end or swept after TTL.
type Board struct {
	TTL time.Duration

	mu  sync.Mutex
	cur *Session
	log *zap.Logger
}

func NewBoard(log *zap.Logger) *Board {
	return &Board{TTL: DefaultSessionTTL, log: log}
}

// Begin starts a new drag session, displacing any stale one.
func (b *Board) Begin(ref media.Reference) *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cur != nil {
		b.log.Debug("Displacing unfinished drag session", zap.String("id", b.cur.ID))
	}
	b.cur = &Session{
		ID:        uuid.NewString(),
		Media:     ref,
		StartedAt: time.Now(),
	}
	return b.cur
}

// Current returns the active session, sweeping it first when it outlived the
// TTL. Nil means no drag is in flight.
func (b *Board) Current() *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cur != nil && b.cur.expired(b.ttl(), time.Now()) {
		b.log.Debug("Sweeping expired drag session", zap.String("id", b.cur.ID))
		b.cur = nil
	}
	return b.cur
}

// End closes the session with the given id. Ending a session that was
// already displaced or swept is a no-op.
func (b *Board) End(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cur != nil && b.cur.ID == id {
		b.cur = nil
	}
}

func (b *Board) ttl() time.Duration {
	if b.TTL > 0 {
		return b.TTL
	}
	return DefaultSessionTTL
}
