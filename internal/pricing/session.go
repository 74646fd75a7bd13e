package pricing

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxLineItems caps the number of line-item rows in one quote edit form.
const MaxLineItems = 10

// Totals is the running preview of a quote being edited.
type Totals struct {
	Net   int64 `json:"total_net"`
	Tax   int64 `json:"iva"`
	Final int64 `json:"final"`
}

// Session tracks the working subtotals of one quote edit, keyed by row
// position. It is a UI preview only: the persisted quote total is recomputed
// from the saved line items, never from this working set. One editor per
// session is assumed; Session itself is not safe for concurrent use.
type Session struct {
	counter   int
	subtotals map[int]int64
}

// NewSession starts an empty edit session with rows counted from first.
// Updating an existing quote seeds the counter with its current row count.
func NewSession(first int) *Session {
	return &Session{counter: first, subtotals: make(map[int]int64)}
}

// NextIndex allocates the next row position. Returns false once the form has
// reached MaxLineItems rows.
func (s *Session) NextIndex() (int, bool) {
	if s.counter >= MaxLineItems {
		return 0, false
	}
	idx := s.counter
	s.counter++
	return idx, true
}

// DropIndex releases one row position after a row is removed from the form.
func (s *Session) DropIndex() {
	if s.counter > 0 {
		s.counter--
	}
}

// SetSubtotal records the current subtotal for a row position.
func (s *Session) SetSubtotal(position int, value int64) {
	s.subtotals[position] = value
}

// RemoveSubtotal drops a row's subtotal. Removing an absent position is a
// no-op and leaves the other entries unchanged.
func (s *Session) RemoveSubtotal(position int) {
	delete(s.subtotals, position)
}

// ComputeTotals sums the working subtotals and applies VAT.
func (s *Session) ComputeTotals() Totals {
	var net int64
	for _, v := range s.subtotals {
		net += v
	}
	tax := Tax(net)
	return Totals{Net: net, Tax: tax, Final: net + tax}
}

// SessionTTL is how long an edit session may sit idle before it is
// discarded. Abandoned forms (closed tab, expired login) would otherwise
// accumulate forever.
const SessionTTL = 2 * time.Hour

type sessionEntry struct {
	session *Session
	started time.Time
}

// Store maps session ids to live edit sessions. Each edit gets its own
// Session so concurrent edits of different quotes never share totals.
// Expired entries are swept opportunistically on Begin.
type Store struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*sessionEntry)}
}

// Begin creates a session seeded with first existing rows and returns its id.
func (st *Store) Begin(first int) (string, *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictLocked()
	id := uuid.NewString()
	s := NewSession(first)
	st.entries[id] = &sessionEntry{session: s, started: time.Now()}
	return id, s
}

// Get returns the session for id, if it exists and has not expired.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[id]
	if !ok {
		return nil, false
	}
	if time.Since(e.started) > SessionTTL {
		delete(st.entries, id)
		return nil, false
	}
	return e.session, true
}

// End discards a session once the edit is saved or abandoned.
func (st *Store) End(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, id)
}

func (st *Store) evictLocked() {
	for id, e := range st.entries {
		if time.Since(e.started) > SessionTTL {
			delete(st.entries, id)
		}
	}
}
