package onboard

import (
	"context"
	"sync"
	"time"
)

// SessionObserver is notified whenever the managed session changes. A nil
// session means the client signed out or the stored session could not be
// restored.
type SessionObserver func(session Session)

// SessionManager tracks the client side of an authenticated session: it signs
// in through an Authenticator, keeps the current session in memory, persists
// it through a SessionStore, and fans out changes to registered observers.
type SessionManager struct {
	auth   Authenticator
	tokens TokenValidator
	store  SessionStore
	logger Logger
	sink   ActivitySink

	mu        sync.RWMutex
	current   Session
	observers []SessionObserver
}

type SessionManagerOption func(*SessionManager)

func WithSessionStore(store SessionStore) SessionManagerOption {
	return func(m *SessionManager) {
		if store != nil {
			m.store = store
		}
	}
}

func WithSessionLogger(logger Logger) SessionManagerOption {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithSessionActivitySink(sink ActivitySink) SessionManagerOption {
	return func(m *SessionManager) {
		m.sink = normalizeActivitySink(sink)
	}
}

func NewSessionManager(auth Authenticator, tokens TokenValidator, opts ...SessionManagerOption) *SessionManager {
	m := &SessionManager{
		auth:   auth,
		tokens: tokens,
		store:  NewMemorySessionStore(),
		logger: defLogger{},
		sink:   noopActivitySink{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// OnSessionChange registers an observer. Observers run synchronously, in
// registration order, before the triggering call returns.
func (m *SessionManager) OnSessionChange(observer SessionObserver) {
	if observer == nil {
		return
	}
	m.mu.Lock()
	m.observers = append(m.observers, observer)
	m.mu.Unlock()
}

// Current returns the active session, or nil when signed out.
func (m *SessionManager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsAuthenticated reports whether a session is active.
func (m *SessionManager) IsAuthenticated() bool {
	return m.Current() != nil
}

// SignIn authenticates the credentials, activates the resulting session, and
// persists it. A persistence failure is logged but does not fail the sign-in:
// the in-memory session is already live and observers have to see it.
func (m *SessionManager) SignIn(ctx context.Context, identifier, password string) (Session, error) {
	token, err := m.auth.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	session, err := m.auth.SessionFromToken(token)
	if err != nil {
		return nil, err
	}

	m.setSession(session)

	record := &SessionRecord{Token: token}
	if session != nil {
		record.Identity = session.GetIdentity()
	}
	if err := m.store.Save(record); err != nil {
		m.logger.Warn("failed to persist session, continuing with in-memory session: %v", err)
	}

	m.recordActivity(ctx, ActivityEventSessionSignedIn, session)

	return session, nil
}

// SignOut clears the active session and the persisted record. Observers are
// notified with a nil session.
func (m *SessionManager) SignOut(ctx context.Context) error {
	previous := m.Current()
	m.setSession(nil)

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear persisted session: %v", err)
		return err
	}

	m.recordActivity(ctx, ActivityEventSessionSignedOut, previous)

	return nil
}

// Restore loads the persisted session record and revalidates its token. An
// expired or invalid token clears the stored record so the next start does
// not retry a dead session.
func (m *SessionManager) Restore(ctx context.Context) (Session, error) {
	record, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	claims, err := m.tokens.Validate(record.Token)
	if err != nil {
		if cerr := m.store.Clear(); cerr != nil {
			m.logger.Warn("failed to clear stale session: %v", cerr)
		}
		m.setSession(nil)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		return nil, err
	}
	session.Token = record.Token

	// Prefer the identity captured at sign-in when present: it may carry
	// fields the token does not.
	if record.Identity != nil {
		session.Identity = record.Identity
	}

	m.setSession(session)
	return session, nil
}

func (m *SessionManager) recordActivity(ctx context.Context, eventType ActivityEventType, session Session) {
	event := ActivityEvent{
		EventType:  eventType,
		OccurredAt: time.Now(),
	}
	if session != nil {
		event.AccountID = session.GetAccountID()
		if identity := session.GetIdentity(); identity != nil {
			event.Actor = ActorRef{ID: identity.ID, Type: "account", Role: identity.Role}
		}
	}

	if err := m.sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}

func (m *SessionManager) setSession(session Session) {
	m.mu.Lock()
	m.current = session
	observers := make([]SessionObserver, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, observer := range observers {
		observer(session)
	}
}
