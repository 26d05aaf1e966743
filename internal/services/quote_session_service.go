package services

import (
	"context"
	"log"
	"sync"
	"time"

	"paybridge/internal/models"

	"github.com/google/uuid"
)

// QuoteUpdateFunc receives ranked results as a session refreshes. err is
// non-nil when every provider failed for that round.
type QuoteUpdateFunc func(sessionID string, result *models.QuoteResult, err error)

// QuoteSession keeps one client's quote view fresh: edits are debounced,
// results auto-refresh on an interval, and a generation counter discards
// responses that were overtaken by a newer request.
type QuoteSession struct {
	ID string

	mu         sync.Mutex
	request    *models.QuoteRequest
	generation uint64
	latest     *models.QuoteResult
	paused     bool
	debounce   *time.Timer
	closed     bool
}

// Latest returns the most recent ranked result, or nil before the first
// round completes.
func (s *QuoteSession) Latest() *models.QuoteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// QuoteSessionService manages live quote sessions over the aggregator.
type QuoteSessionService struct {
	quotes          *QuoteService
	debounceDelay   time.Duration
	refreshInterval time.Duration
	onUpdate        QuoteUpdateFunc

	mu       sync.RWMutex
	sessions map[string]*QuoteSession
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewQuoteSessionService creates the session manager. onUpdate may be nil.
func NewQuoteSessionService(quotes *QuoteService, debounceDelay, refreshInterval time.Duration, onUpdate QuoteUpdateFunc) *QuoteSessionService {
	if debounceDelay <= 0 {
		debounceDelay = 500 * time.Millisecond
	}
	if refreshInterval <= 0 {
		refreshInterval = 30 * time.Second
	}
	return &QuoteSessionService{
		quotes:          quotes,
		debounceDelay:   debounceDelay,
		refreshInterval: refreshInterval,
		onUpdate:        onUpdate,
		sessions:        make(map[string]*QuoteSession),
		stopCh:          make(chan struct{}),
	}
}

// Start launches the shared refresh loop.
func (m *QuoteSessionService) Start() {
	log.Printf("🚀 Starting quote session refresher (interval: %v)", m.refreshInterval)

	go func() {
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.refreshAll()
			case <-m.stopCh:
				log.Printf("🛑 Quote session refresher stopped")
				return
			}
		}
	}()
}

// Stop terminates the refresh loop.
func (m *QuoteSessionService) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Open creates a session and kicks off its first fetch immediately (no
// debounce on the initial request).
func (m *QuoteSessionService) Open(req *models.QuoteRequest) *QuoteSession {
	session := &QuoteSession{
		ID:      uuid.NewString(),
		request: req,
	}
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	go m.fetch(session, m.nextGeneration(session))
	return session
}

// Get returns a live session.
func (m *QuoteSessionService) Get(sessionID string) (*QuoteSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

// UpdateRequest replaces the session's request and schedules a debounced
// fetch. Rapid successive edits collapse into one provider round; each
// edit also bumps the generation so any in-flight round for the old
// request is discarded on arrival.
func (m *QuoteSessionService) UpdateRequest(sessionID string, req *models.QuoteRequest) bool {
	session, ok := m.Get(sessionID)
	if !ok {
		return false
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.closed {
		return false
	}

	session.request = req
	session.generation++
	gen := session.generation

	if session.debounce != nil {
		session.debounce.Stop()
	}
	session.debounce = time.AfterFunc(m.debounceDelay, func() {
		m.fetch(session, gen)
	})
	return true
}

// Pause suspends auto-refresh for a session, typically while an
// execution holds its quote. Debounced edits still fetch.
func (m *QuoteSessionService) Pause(sessionID string) {
	if session, ok := m.Get(sessionID); ok {
		session.mu.Lock()
		session.paused = true
		session.mu.Unlock()
	}
}

// Resume re-enables auto-refresh and triggers an immediate round so the
// view is fresh right away.
func (m *QuoteSessionService) Resume(sessionID string) {
	session, ok := m.Get(sessionID)
	if !ok {
		return
	}
	session.mu.Lock()
	session.paused = false
	session.mu.Unlock()

	go m.fetch(session, m.nextGeneration(session))
}

// Close tears the session down.
func (m *QuoteSessionService) Close(sessionID string) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if !ok {
		return
	}

	session.mu.Lock()
	session.closed = true
	if session.debounce != nil {
		session.debounce.Stop()
	}
	session.mu.Unlock()
}

func (m *QuoteSessionService) refreshAll() {
	m.mu.RLock()
	sessions := make([]*QuoteSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, session := range sessions {
		session.mu.Lock()
		skip := session.paused || session.closed || session.request == nil
		session.mu.Unlock()
		if skip {
			continue
		}
		go m.fetch(session, m.nextGeneration(session))
	}
}

func (m *QuoteSessionService) nextGeneration(session *QuoteSession) uint64 {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.generation++
	return session.generation
}

// fetch runs one provider round for the session. The result is applied
// only if no newer round was started while it was in flight.
func (m *QuoteSessionService) fetch(session *QuoteSession, gen uint64) {
	session.mu.Lock()
	if session.closed || session.generation != gen {
		session.mu.Unlock()
		return
	}
	req := session.request
	session.mu.Unlock()

	result, err := m.quotes.GetQuotes(context.Background(), req)

	session.mu.Lock()
	if session.closed || session.generation != gen {
		session.mu.Unlock()
		return
	}
	if err == nil {
		session.latest = result
	}
	session.mu.Unlock()

	if m.onUpdate != nil {
		m.onUpdate(session.ID, result, err)
	}
}
