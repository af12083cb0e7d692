package connector

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testProfile(endpoint string) Profile {
	host, portStr, _ := net.SplitHostPort(endpoint)
	p := Profile{
		Name:                 "testdev",
		IP:                   host,
		ConnectTimeoutMs:     500,
		ReconnectIntervalMs:  10,
		MaxReconnectAttempts: 3,
		PollIntervalMs:       20,
		PollCommand:          DefaultPollCommand,
	}
	p.Port = mustAtoi(portStr)
	return p
}

func mustAtoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func testDeps(gw *fakeGateway, mapping map[int]string) SessionDeps {
	return SessionDeps{
		Parser:     NewParser(zerolog.Nop()),
		Identity:   NewIdentityMap(mapping),
		Reconciler: NewReconciler(gw, zerolog.Nop()),
		Logger:     zerolog.Nop(),
	}
}

// captureAlerter records offline alerts.
type captureAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *captureAlerter) Error(message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	return nil
}

func (a *captureAlerter) last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.messages) == 0 {
		return ""
	}
	return a.messages[len(a.messages)-1]
}

func TestSessionRoutesPayloadToReconciler(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Write([]byte("4,2026-01-02 09:30:00,0,ZK123456\r\n"))
		// Hold the connection open so the session stays CONNECTED.
		time.Sleep(2 * time.Second)
		conn.Close()
	}()

	gw := newFakeGateway("SR0162")
	s := NewSession(testProfile(ln.Addr().String()), testDeps(gw, map[int]string{4: "SR0162"}))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	assert.Eventually(t, func() bool {
		return gw.recordCount() == 1
	}, 2*time.Second, 10*time.Millisecond, "expected the check-in to be persisted")

	assert.Eventually(t, func() bool {
		return s.Status().Connected
	}, time.Second, 10*time.Millisecond)

	s.Disconnect()
	assert.NoError(t, <-done)
	assert.Equal(t, StateDisconnected, s.Status().State)
}

func TestSessionUnknownDeviceIDNeverReachesStorage(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Write([]byte("99,2026-01-02 09:30:00,0\r\n4,2026-01-02 09:31:00,0\r\n"))
		time.Sleep(2 * time.Second)
		conn.Close()
	}()

	gw := newFakeGateway("SR0162")
	s := NewSession(testProfile(ln.Addr().String()), testDeps(gw, map[int]string{4: "SR0162"}))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	// Only the mapped id lands; the unmapped one is discarded.
	assert.Eventually(t, func() bool {
		return gw.recordCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.Disconnect()
	assert.NoError(t, <-done)
	assert.Equal(t, 1, gw.recordCount())
}

func TestSessionWritesAuthHandshakeAndPollCommand(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	defer ln.Close()

	var mu sync.Mutex
	var received strings.Builder
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 1024)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				mu.Lock()
				received.Write(buf[:n])
				mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()

	profile := testProfile(ln.Addr().String())
	profile.AuthUserID = "42"
	profile.AuthPassword = "secret"

	s := NewSession(profile, testDeps(newFakeGateway(), nil))
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		got := received.String()
		return strings.Contains(got, "USER:42\r\nPASS:secret\r\n") &&
			strings.Contains(got, "GET_RECORDS\r\n")
	}, 2*time.Second, 10*time.Millisecond)

	s.Disconnect()
	assert.NoError(t, <-done)
}

func TestSessionReconnectExhaustionGoesOffline(t *testing.T) {
	// Grab a port nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	endpoint := ln.Addr().String()
	ln.Close()

	alerter := &captureAlerter{}
	deps := testDeps(newFakeGateway(), nil)
	deps.Alerter = alerter

	s := NewSession(testProfile(endpoint), deps)
	err = s.Run(context.Background())

	assert.ErrorIs(t, err, ErrOffline)
	status := s.Status()
	assert.Equal(t, StateOffline, status.State)
	assert.False(t, status.Connected)
	assert.Equal(t, 3, status.ReconnectAttempts)
	assert.Contains(t, alerter.last(), "OFFLINE")
	assert.Contains(t, alerter.last(), "testdev")
}

func TestSessionDisconnectDuringReconnectWait(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	endpoint := ln.Addr().String()
	ln.Close()

	profile := testProfile(endpoint)
	profile.ReconnectIntervalMs = 60000

	s := NewSession(profile, testDeps(newFakeGateway(), nil))
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	// Let the first dial fail and the backoff timer start.
	time.Sleep(100 * time.Millisecond)
	s.Disconnect()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Disconnect during reconnect wait")
	}
}

func TestSessionDisconnectIsIdempotent(t *testing.T) {
	s := NewSession(testProfile("127.0.0.1:1"), testDeps(newFakeGateway(), nil))

	s.Disconnect()
	s.Disconnect()

	status := s.Status()
	assert.Equal(t, StateDisconnected, status.State)
	assert.False(t, status.Connected)
}

func TestSessionContextCancellationStopsRun(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		time.Sleep(2 * time.Second)
		conn.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(testProfile(ln.Addr().String()), testDeps(newFakeGateway(), nil))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return s.Status().Connected
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
