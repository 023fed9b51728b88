// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package irc manages the bot's connection to an IRC server.
package irc

import (
	"bufio"
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/convex/internal/observability"
	"github.com/holomush/convex/pkg/irc"
)

// Error codes for connection failures.
const (
	CodeNotConnected = "NOT_CONNECTED"
	CodeDialFailed   = "DIAL_FAILED"
	CodeWriteFailed  = "WRITE_FAILED"
)

// maxLineLength bounds inbound lines, tags included.
const maxLineLength = 8191 + 512

// DialFunc opens the transport. It matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config describes how to reach and register with a server.
type Config struct {
	Addr           string
	TLS            bool
	ServerPassword string
	Nickname       string
	Realname       string

	MaxAttempts uint64        // retries after the first dial
	BaseDelay   time.Duration // first backoff interval

	Dial    DialFunc               // nil uses net.Dialer or tls.Dialer
	Metrics *observability.Metrics // optional
	OnFlush func(line string)      // called after each line is written
}

// Conn is a registered connection. Inbound messages arrive on Messages;
// PING is answered internally.
type Conn struct {
	cfg      Config
	conn     net.Conn
	writeMu  sync.Mutex
	messages chan irc.Message

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	readDone  chan struct{}
}

// Dial connects with exponential backoff and sends the registration lines.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	dial := cfg.Dial
	if dial == nil {
		dial = defaultDialer(cfg.TLS)
	}
	base := cfg.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	backoff := retry.WithMaxRetries(cfg.MaxAttempts, retry.WithCappedDuration(time.Minute, retry.NewExponential(base)))

	var nc net.Conn
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var dialErr error
		nc, dialErr = dial(ctx, "tcp", cfg.Addr)
		if dialErr != nil {
			cfg.recordAttempt(observability.ConnectFailure)
			slog.WarnContext(ctx, "irc dial failed", "addr", cfg.Addr, "attempt", attempt, "error", dialErr)
			return retry.RetryableError(dialErr)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code(CodeDialFailed).
			With("addr", cfg.Addr).
			With("attempts", attempt).
			Wrapf(err, "connecting to irc server")
	}
	cfg.recordAttempt(observability.ConnectSuccess)

	c := newConn(nc, cfg)
	if err := c.register(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "irc connection established", "addr", cfg.Addr, "nickname", cfg.Nickname)
	return c, nil
}

func newConn(nc net.Conn, cfg Config) *Conn {
	c := &Conn{
		cfg:      cfg,
		conn:     nc,
		messages: make(chan irc.Message, 64),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func defaultDialer(useTLS bool) DialFunc {
	d := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 2 * time.Minute}
	if !useTLS {
		return d.DialContext
	}
	td := &tls.Dialer{NetDialer: d, Config: &tls.Config{MinVersion: tls.VersionTLS12}}
	return td.DialContext
}

func (cfg Config) recordAttempt(result string) {
	if cfg.Metrics != nil {
		cfg.Metrics.ConnectAttempts.WithLabelValues(result).Inc()
	}
}

func (cfg Config) recordLine(direction string) {
	if cfg.Metrics != nil {
		cfg.Metrics.LinesTotal.WithLabelValues(direction).Inc()
	}
}

func (c *Conn) register(ctx context.Context) error {
	var lines []irc.Outgoing
	if c.cfg.ServerPassword != "" {
		lines = append(lines, irc.Outgoing{Command: irc.PASS, Text: c.cfg.ServerPassword})
	}
	realname := c.cfg.Realname
	if realname == "" {
		realname = c.cfg.Nickname
	}
	lines = append(lines,
		irc.Outgoing{Command: irc.NICK, Text: c.cfg.Nickname},
		irc.Outgoing{Command: irc.USER, Text: c.cfg.Nickname + " 0 * :" + realname},
	)
	for _, out := range lines {
		if err := c.SendData(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

// Messages returns the inbound message stream. It is closed when the
// connection ends.
func (c *Conn) Messages() <-chan irc.Message {
	return c.messages
}

// Connected reports whether the connection is open.
func (c *Conn) Connected() bool {
	return !c.closed.Load()
}

// Done is closed when the connection ends for any reason.
func (c *Conn) Done() <-chan struct{} {
	return c.readDone
}

// SendData writes one protocol line. Writes are serialised; the context
// deadline, if any, bounds the write.
func (c *Conn) SendData(ctx context.Context, out irc.Outgoing) error {
	if c.closed.Load() {
		return oops.Code(CodeNotConnected).
			With("command", string(out.Command)).
			Errorf("connection closed")
	}

	line, err := out.Line()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline() // zero clears any earlier deadline
	_ = c.conn.SetWriteDeadline(deadline)

	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		return oops.Code(CodeWriteFailed).
			With("command", string(out.Command)).
			Wrapf(err, "writing line")
	}
	c.cfg.recordLine("out")
	slog.DebugContext(ctx, ">> "+line)
	if c.cfg.OnFlush != nil {
		c.cfg.OnFlush(line)
	}
	return nil
}

func (c *Conn) readLoop() {
	defer close(c.readDone)
	defer close(c.messages)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	for scanner.Scan() {
		raw := scanner.Text()
		if raw == "" {
			continue
		}
		c.cfg.recordLine("in")

		msg, err := irc.Parse(raw)
		if err != nil {
			slog.Warn("dropping malformed line", "line", raw, "error", err)
			continue
		}

		if msg.Command == irc.PING {
			pong := irc.Outgoing{Command: irc.PONG, Text: ":" + msg.Args}
			if len(msg.Params) == 0 {
				pong.Text = ""
			}
			if err := c.SendData(context.Background(), pong); err != nil {
				slog.Warn("failed to answer ping", "error", err)
			}
			continue
		}

		select {
		case c.messages <- msg:
		case <-c.done:
			return
		}
	}

	if err := scanner.Err(); err != nil && !c.closed.Load() {
		slog.Warn("irc read loop ended", "error", err)
	}
	c.closed.Store(true)
}

// Quit sends QUIT with reason and closes the connection.
func (c *Conn) Quit(ctx context.Context, reason string) error {
	err := c.SendData(ctx, irc.Outgoing{Command: irc.QUIT, Text: ":" + reason})
	if closeErr := c.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Close shuts the connection and waits for the read loop to exit. It is
// safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		if cerr := c.conn.Close(); cerr != nil {
			err = oops.Wrapf(cerr, "closing connection")
		}
	})
	<-c.readDone
	return err
}
