package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pantry-planner/internal/meal"
	"pantry-planner/internal/shopping"
)

var errSessionExpired = errors.New("session expired")

// Session holds the per-client working state: the live weekly plan with its
// shopping list, and one sequence counter per generation operation. The
// counters implement supersession: a new request bumps the counter, and a
// result is applied only when its counter value is still current.
type Session struct {
	ID string

	planSeq   atomic.Int64
	recipeSeq atomic.Int64

	mu       sync.Mutex
	plan     *meal.WeeklyMealPlan
	shopping *shopping.List
	lastSeen time.Time
}

// Plan returns the session's live weekly plan, or nil before the first
// successful generation.
func (s *Session) Plan() *meal.WeeklyMealPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// ShoppingList returns the checkable list derived from the live plan.
func (s *Session) ShoppingList() *shopping.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shopping
}

// SetPlan installs a new live plan and rebuilds the shopping list from it.
// Checked state on the old list does not carry over.
func (s *Session) SetPlan(plan *meal.WeeklyMealPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
	s.shopping = shopping.FromPlan(plan)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// SessionManager issues signed session tokens and keeps the matching
// Session objects until they idle out.
type SessionManager struct {
	secret []byte
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Issue creates a session and returns its signed HS256 token. The token is
// the only handle to the session; it is never logged.
func (m *SessionManager) Issue() (string, error) {
	now := time.Now()
	session := &Session{ID: meal.NewID(), lastSeen: now}

	claims := jwt.RegisteredClaims{
		Subject:   session.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return signed, nil
}

// Verify checks the token signature and expiry and returns the live session
// it names. A valid token whose session was already swept is expired too.
func (m *SessionManager) Verify(token string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errSessionExpired
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, errSessionExpired
	}

	m.mu.RLock()
	session, ok := m.sessions[claims.Subject]
	m.mu.RUnlock()
	if !ok {
		return nil, errSessionExpired
	}

	session.touch(time.Now())
	return session, nil
}

// Sweep drops sessions idle for longer than the TTL and reports how many
// were removed.
func (m *SessionManager) Sweep() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, session := range m.sessions {
		if session.idleSince(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until the context is cancelled.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Printf("Swept %d idle sessions", n)
			}
		}
	}
}
