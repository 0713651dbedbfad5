package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"corpchat/contract"
	"corpchat/domain"
	"corpchat/errors"
	"corpchat/observability"
)

// SessionState is the per-connection protocol state.
// There is no transition out of StateClosed.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateClosed:
		return "CLOSED"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// Session drives the engine on behalf of one client connection.
// It owns the protocol state machine; the transport owns the socket and the
// sink, and calls exactly one Session method per decoded client command.
//
// Commands that are invalid in the current state return ErrProtocol or
// ErrNotAuthenticated and leave the session open. Only Close (explicit
// logout or transport disconnect) moves the session to StateClosed.
type Session struct {
	id    uuid.UUID
	log   *slog.Logger
	auth  contract.IAuthService
	hub   contract.IHub
	sink  contract.EventSink
	stats *observability.ServerStats

	mu       sync.Mutex
	state    SessionState
	username string

	closeOnce sync.Once
}

func NewSession(log *slog.Logger, auth contract.IAuthService,
	hub contract.IHub, sink contract.EventSink,
	stats *observability.ServerStats) *Session {
	id := uuid.New()
	stats.IncrSessionsOpened()
	return &Session{
		id:    id,
		log:   log.With("session_id", id.String()),
		auth:  auth,
		hub:   hub,
		sink:  sink,
		stats: stats,
		state: StateUnauthenticated,
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current protocol state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Username returns the bound identity, empty before authentication.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Login verifies credentials and, on success, binds the username, registers
// with the hub and returns a resume token together with the history
// snapshot to replay. The caller must deliver the replay to the client
// before draining the sink, so no live entry can precede it. A failed login
// leaves the session in StateUnauthenticated.
func (s *Session) Login(ctx context.Context, username, password string) (string, []domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(StateUnauthenticated); err != nil {
		return "", nil, err
	}

	token, err := s.auth.Login(username, password)
	if err != nil {
		s.stats.IncrLoginFailures()
		s.log.Info("Login rejected", "username", username)
		return "", nil, err
	}

	replay := s.becomeAuthenticatedLocked(ctx, username)
	return token, replay, nil
}

// Resume authenticates from a token issued by a previous login. Like Login
// it returns the history snapshot for the caller to replay.
func (s *Session) Resume(ctx context.Context, token string) (string, []domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(StateUnauthenticated); err != nil {
		return "", nil, err
	}

	username, err := s.auth.Resume(token)
	if err != nil {
		s.stats.IncrLoginFailures()
		s.log.Info("Resume rejected")
		return "", nil, err
	}

	replay := s.becomeAuthenticatedLocked(ctx, username)
	return username, replay, nil
}

// Register creates a credential. It does not authenticate: the client must
// still log in separately.
func (s *Session) Register(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(StateUnauthenticated); err != nil {
		return err
	}
	return s.auth.Register(username, password)
}

// SendChat appends and broadcasts a chat entry tagged with the session's
// username. There is no direct response: the sender observes its own
// message through the broadcast, like every other participant.
func (s *Session) SendChat(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(StateAuthenticated); err != nil {
		return err
	}

	s.hub.Broadcast(ctx, s.username, text)
	return nil
}

// History returns the full history snapshot for this client.
func (s *Session) History() ([]domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(StateAuthenticated); err != nil {
		return nil, err
	}
	return s.hub.History(), nil
}

// OnlineUsers returns the usernames currently registered.
func (s *Session) OnlineUsers() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(StateAuthenticated); err != nil {
		return nil, err
	}
	return s.hub.Online(), nil
}

// Logout is the explicit transition to StateClosed. Idempotent.
func (s *Session) Logout(ctx context.Context) {
	s.Close(ctx)
}

// Close tears the session down. It runs exactly once no matter how many
// exit paths reach it: the Left entry is broadcast only if the session ever
// reached StateAuthenticated, and never twice.
func (s *Session) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		wasAuthenticated := s.state == StateAuthenticated
		username := s.username
		s.state = StateClosed
		s.mu.Unlock()

		s.stats.IncrSessionsClosed()

		if wasAuthenticated {
			// The sink identifies this session: a newer login for the
			// same username must survive this teardown.
			s.hub.Leave(ctx, username, s.sink)
			s.log.Info("Session closed", "username", username)
			return
		}
		s.log.Debug("Unauthenticated session closed")
	})
}

func (s *Session) requireStateLocked(want SessionState) error {
	if s.state == want {
		return nil
	}
	switch s.state {
	case StateClosed:
		return errors.ErrSessionClosed
	case StateUnauthenticated:
		return errors.ErrNotAuthenticated
	default:
		return fmt.Errorf("%w: command not valid in state %s", errors.ErrProtocol, s.state)
	}
}

func (s *Session) becomeAuthenticatedLocked(ctx context.Context, username string) []domain.Entry {
	s.state = StateAuthenticated
	s.username = username
	s.log.Info("Session authenticated", "username", username)

	// Snapshot, registration and the Joined broadcast are one atomic
	// sequence inside the hub.
	return s.hub.Join(ctx, username, s.sink)
}
