// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package irc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/convex/internal/observability"
	"github.com/holomush/convex/pkg/errutil"
	"github.com/holomush/convex/pkg/irc"
)

// fakeServer is the remote end of a net.Pipe. Every line the bot writes
// lands on lines.
type fakeServer struct {
	conn  net.Conn
	lines chan string
}

func newFakeServer(t *testing.T) (*fakeServer, DialFunc) {
	t.Helper()
	client, server := net.Pipe()
	fs := &fakeServer{conn: server, lines: make(chan string, 32)}
	go func() {
		defer close(fs.lines)
		scanner := bufio.NewScanner(server)
		for scanner.Scan() {
			fs.lines <- scanner.Text()
		}
	}()
	t.Cleanup(func() { _ = server.Close() })
	dial := func(context.Context, string, string) (net.Conn, error) { return client, nil }
	return fs, dial
}

func (s *fakeServer) send(t *testing.T, line string) {
	t.Helper()
	_, err := s.conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

func (s *fakeServer) next(t *testing.T) string {
	t.Helper()
	select {
	case line, ok := <-s.lines:
		require.True(t, ok, "server connection closed")
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for line")
		return ""
	}
}

func dialFake(t *testing.T, cfg Config) (*Conn, *fakeServer) {
	t.Helper()
	fs, dial := newFakeServer(t)
	cfg.Addr = "irc.test:6667"
	cfg.Dial = dial
	if cfg.Nickname == "" {
		cfg.Nickname = "Eve"
	}
	c, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	return c, fs
}

func receive(t *testing.T, c *Conn) irc.Message {
	t.Helper()
	select {
	case msg, ok := <-c.Messages():
		require.True(t, ok, "messages closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
		return irc.Message{}
	}
}

func TestDial_Registers(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, fs := dialFake(t, Config{Nickname: "Eve", Realname: "Evealyn Bot"})
	defer func() { _ = c.Close() }()

	assert.Equal(t, "NICK Eve", fs.next(t))
	assert.Equal(t, "USER Eve 0 * :Evealyn Bot", fs.next(t))
	assert.True(t, c.Connected())
}

func TestDial_SendsServerPassword(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, fs := dialFake(t, Config{ServerPassword: "hunter2"})
	defer func() { _ = c.Close() }()

	assert.Equal(t, "PASS hunter2", fs.next(t))
	assert.Equal(t, "NICK Eve", fs.next(t))
}

func TestDial_RetriesWithBackoff(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	fs, dial := newFakeServer(t)
	calls := 0
	flaky := func(ctx context.Context, network, addr string) (net.Conn, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return dial(ctx, network, addr)
	}

	c, err := Dial(context.Background(), Config{
		Addr:        "irc.test:6667",
		Nickname:    "Eve",
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Dial:        flaky,
		Metrics:     metrics,
	})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, 3, calls)
	assert.Equal(t, "NICK Eve", fs.next(t))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ConnectAttempts.WithLabelValues(observability.ConnectFailure)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ConnectAttempts.WithLabelValues(observability.ConnectSuccess)), 0.001)
}

func TestDial_GivesUp(t *testing.T) {
	defer goleak.VerifyNone(t)

	calls := 0
	_, err := Dial(context.Background(), Config{
		Addr:        "irc.test:6667",
		Nickname:    "Eve",
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		Dial: func(context.Context, string, string) (net.Conn, error) {
			calls++
			return nil, errors.New("connection refused")
		},
	})

	errutil.AssertErrorCode(t, err, CodeDialFailed)
	assert.Equal(t, 3, calls, "first attempt plus two retries")
}

func TestDial_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Dial(ctx, Config{
		Addr:        "irc.test:6667",
		MaxAttempts: 10,
		BaseDelay:   time.Hour,
		Dial: func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
	})
	errutil.AssertErrorCode(t, err, CodeDialFailed)
}

func TestConn_DeliversParsedMessages(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, fs := dialFake(t, Config{})
	defer func() { _ = c.Close() }()
	fs.next(t)
	fs.next(t)

	fs.send(t, ":alice!al@host PRIVMSG #testgrounds :eve help")

	msg := receive(t, c)
	assert.Equal(t, irc.PRIVMSG, msg.Command)
	assert.Equal(t, "#testgrounds", msg.Origin)
	assert.Equal(t, "help", msg.InputCommand)
}

func TestConn_AnswersPing(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, fs := dialFake(t, Config{})
	defer func() { _ = c.Close() }()
	fs.next(t)
	fs.next(t)

	fs.send(t, "PING :irc.test")
	assert.Equal(t, "PONG irc.test", fs.next(t))

	fs.send(t, ":srv 376 Eve :End of /MOTD command.")
	msg := receive(t, c)
	assert.Equal(t, irc.MotdReplyEnd, msg.Command, "ping is not forwarded")
}

func TestConn_SendDataCallsOnFlush(t *testing.T) {
	defer goleak.VerifyNone(t)

	flushed := make(chan string, 8)
	c, fs := dialFake(t, Config{OnFlush: func(line string) { flushed <- line }})
	defer func() { _ = c.Close() }()
	fs.next(t)
	fs.next(t)
	<-flushed
	<-flushed

	require.NoError(t, c.SendData(context.Background(), irc.Outgoing{Command: irc.PRIVMSG, Target: "#go", Text: "hi there"}))

	assert.Equal(t, "PRIVMSG #go :hi there", fs.next(t))
	assert.Equal(t, "PRIVMSG #go :hi there", <-flushed)
}

func TestConn_ServerHangupClosesMessages(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, fs := dialFake(t, Config{})
	fs.next(t)
	fs.next(t)

	_ = fs.conn.Close()

	select {
	case _, ok := <-c.Messages():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("messages not closed after hangup")
	}
	<-c.Done()
	assert.False(t, c.Connected())
	require.NoError(t, c.Close())
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, fs := dialFake(t, Config{})
	fs.next(t)
	fs.next(t)

	require.NoError(t, c.Close())
	assert.NotPanics(t, func() { _ = c.Close() })

	err := c.SendData(context.Background(), irc.Outgoing{Command: irc.PRIVMSG, Target: "#go", Text: "late"})
	errutil.AssertErrorCode(t, err, CodeNotConnected)
}

func TestConn_Quit(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, fs := dialFake(t, Config{})
	fs.next(t)
	fs.next(t)

	require.NoError(t, c.Quit(context.Background(), "Shutting down"))
	assert.Equal(t, "QUIT :Shutting down", fs.next(t))
	assert.False(t, c.Connected())
}
