package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrOffline is returned by Run once the reconnect budget is exhausted.
// The session will not retry further; recovery needs operator action.
var ErrOffline = errors.New("device session offline: reconnect attempts exhausted")

type SessionState string

const (
	StateDisconnected SessionState = "disconnected"
	StateConnecting   SessionState = "connecting"
	StateConnected    SessionState = "connected"
	StateReconnecting SessionState = "reconnecting"
	StateOffline      SessionState = "offline"
)

// SessionStatus is a read-only snapshot for health checks.
type SessionStatus struct {
	Device            string       `json:"device"`
	Endpoint          string       `json:"endpoint"`
	State             SessionState `json:"state"`
	Connected         bool         `json:"connected"`
	ReconnectAttempts int          `json:"reconnectAttempts"`
}

// Alerter receives operator-facing alerts (Slack in production).
type Alerter interface {
	Error(message string) error
}

// PayloadArchiver stores raw device payloads for offline audit.
type PayloadArchiver interface {
	Store(device string, ts time.Time, payload []byte) error
}

// SessionDeps are the collaborators a session routes events through.
// Alerter and Archiver are optional.
type SessionDeps struct {
	Parser     *Parser
	Identity   *IdentityMap
	Reconciler *Reconciler
	Logger     zerolog.Logger
	Alerter    Alerter
	Archiver   PayloadArchiver
}

// Session owns exactly one TCP connection to one terminal and drives its
// lifecycle: connect, authenticate, poll, receive, reconnect with backoff,
// disconnect. All inbound bytes funnel through one sequential processing
// path, so session state needs no per-event locking.
type Session struct {
	profile Profile
	deps    SessionDeps
	logger  zerolog.Logger

	mu       sync.Mutex
	conn     net.Conn
	state    SessionState
	attempts int
	stopped  bool
	stopCh   chan struct{}
}

func NewSession(profile Profile, deps SessionDeps) *Session {
	return &Session{
		profile: profile,
		deps:    deps,
		logger:  deps.Logger.With().Str("device", profile.Name).Str("endpoint", profile.Endpoint()).Logger(),
		state:   StateDisconnected,
		stopCh:  make(chan struct{}),
	}
}

// Run drives the session until Disconnect, context cancellation, or
// reconnect exhaustion. The reconnect loop is explicit and bounded: after
// MaxReconnectAttempts consecutive failed dials the session goes OFFLINE
// and Run returns ErrOffline.
func (s *Session) Run(ctx context.Context) error {
	for {
		if s.isStopped(ctx) {
			s.setState(StateDisconnected)
			return nil
		}

		conn, err := s.connect(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Int("attempt", s.attemptCount()).Msg("connection attempt failed")
			if exhausted := s.recordFailure(); exhausted {
				return s.goOffline()
			}
			if !s.waitReconnect(ctx) {
				s.setState(StateDisconnected)
				return nil
			}
			continue
		}

		s.adoptConn(conn)
		if s.isStopped(ctx) {
			s.closeConn()
			s.setState(StateDisconnected)
			return nil
		}
		s.resetAttempts()
		s.setState(StateConnected)
		s.logger.Info().Msg("device connected")

		err = s.serve(ctx)
		s.closeConn()
		if s.isStopped(ctx) {
			s.setState(StateDisconnected)
			return nil
		}

		s.logger.Warn().Err(err).Msg("connection lost")
		if exhausted := s.recordFailure(); exhausted {
			return s.goOffline()
		}
		if !s.waitReconnect(ctx) {
			s.setState(StateDisconnected)
			return nil
		}
	}
}

// connect dials with a bounded timeout and fires the best-effort
// authentication handshake. Devices do not acknowledge the handshake, so
// no reply is awaited.
func (s *Session) connect(ctx context.Context) (net.Conn, error) {
	s.setState(StateConnecting)

	dialer := net.Dialer{Timeout: s.profile.ConnectTimeout()}
	conn, err := dialer.DialContext(ctx, "tcp", s.profile.Endpoint())
	if err != nil {
		return nil, err
	}

	if s.profile.AuthUserID != "" {
		handshake := fmt.Sprintf("USER:%s\r\nPASS:%s\r\n", s.profile.AuthUserID, s.profile.AuthPassword)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if _, err := conn.Write([]byte(handshake)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("auth handshake: %w", err)
		}
		conn.SetWriteDeadline(time.Time{})
	}

	return conn, nil
}

const writeWait = 10 * time.Second

// serve pumps inbound bytes into the processing path and writes the poll
// command on the configured interval. Returns when the connection drops,
// the session is stopped, or the context is cancelled.
func (s *Session) serve(ctx context.Context) error {
	conn := s.currentConn()
	if conn == nil {
		return errors.New("no connection")
	}

	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 8192)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				s.handlePayload(buf[:n])
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(s.profile.PollInterval())
	defer ticker.Stop()

	pollCmd := []byte(s.profile.PollCommand + "\r\n")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case err := <-readErr:
			return err
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := conn.Write(pollCmd); err != nil {
				return fmt.Errorf("poll write: %w", err)
			}
			conn.SetWriteDeadline(time.Time{})
		}
	}
}

// handlePayload routes one raw chunk through parser, identity map and
// reconciler. Every step is isolated per event: decode failures, unknown
// ids, business rejections and storage errors are logged and skipped so
// one bad record never halts the stream.
func (s *Session) handlePayload(payload []byte) {
	if s.deps.Archiver != nil {
		if err := s.deps.Archiver.Store(s.profile.Name, time.Now().UTC(), payload); err != nil {
			s.logger.Warn().Err(err).Msg("payload archive failed")
		}
	}

	for _, ev := range s.deps.Parser.Parse(payload) {
		code, ok := s.deps.Identity.Resolve(ev.DeviceUserID)
		if !ok {
			s.logger.Warn().Int("device_user_id", ev.DeviceUserID).Msg("no employee mapping for device user id, event discarded")
			continue
		}

		outcome, err := s.deps.Reconciler.Apply(code, ev)
		if err != nil {
			s.logger.Error().Err(err).Str("employee", code).Str("kind", ev.Kind.String()).Msg("attendance write failed, event lost")
			continue
		}
		if outcome.Rejected {
			s.logger.Warn().Str("employee", code).Str("kind", ev.Kind.String()).Str("reason", outcome.Reason).Msg("event rejected")
			continue
		}
		s.logger.Info().Str("employee", code).Str("kind", ev.Kind.String()).Time("at", ev.Time).Msg("attendance recorded")
	}
}

// Disconnect stops polling, closes the socket and leaves the session
// DISCONNECTED. Idempotent and safe from any state, including while a
// reconnect wait is pending.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	conn := s.conn
	s.conn = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.logger.Info().Msg("session disconnected")
}

// Status returns a read-only snapshot; no side effects.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionStatus{
		Device:            s.profile.Name,
		Endpoint:          s.profile.Endpoint(),
		State:             s.state,
		Connected:         s.state == StateConnected,
		ReconnectAttempts: s.attempts,
	}
}

func (s *Session) goOffline() error {
	s.setState(StateOffline)
	s.logger.Error().Int("attempts", s.attemptCount()).Msg("reconnect attempts exhausted, session permanently offline")
	if s.deps.Alerter != nil {
		msg := fmt.Sprintf("attendance device %s (%s) is OFFLINE after %d failed reconnect attempts, operator intervention required",
			s.profile.Name, s.profile.Endpoint(), s.attemptCount())
		if err := s.deps.Alerter.Error(msg); err != nil {
			s.logger.Warn().Err(err).Msg("offline alert failed")
		}
	}
	return ErrOffline
}

// waitReconnect sleeps for the backoff interval. Returns false if the
// session was stopped or the context cancelled while waiting.
func (s *Session) waitReconnect(ctx context.Context) bool {
	s.setState(StateReconnecting)
	timer := time.NewTimer(s.profile.ReconnectInterval())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Session) recordFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	return s.attempts >= s.profile.MaxReconnectAttempts
}

func (s *Session) resetAttempts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = 0
}

func (s *Session) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *Session) adoptConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
}

func (s *Session) currentConn() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Session) closeConn() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped && state != StateDisconnected {
		return
	}
	s.state = state
}

func (s *Session) isStopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
