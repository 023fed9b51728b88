// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/convex/internal/logging"
	"github.com/holomush/convex/pkg/errutil"
	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/pkg/plugin"
	"github.com/holomush/convex/pkg/plugin/plugintest"
)

const waitFor = 2 * time.Second

func newTestDispatcher(t *testing.T, reg *Registry, opts ...DispatcherOption) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(reg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(context.Background()) })
	return d
}

func invocations(pluginName, command, status string) float64 {
	return testutil.ToFloat64(HandlerInvocations.WithLabelValues(pluginName, command, status))
}

func TestNewDispatcher_RequiresRegistry(t *testing.T) {
	_, err := NewDispatcher(nil)
	errutil.AssertErrorCode(t, err, CodeNilRegistry)
}

func TestDispatcher_EvaluatesGuardsInInsertionOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry()
	core := owner(t, "OrderCore")

	var (
		mu    sync.Mutex
		order []string
		ran   sync.WaitGroup
	)
	guard := func(name string, accept bool) plugin.Guard {
		return func(*plugin.Event) bool {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return accept
		}
	}
	handler := func(context.Context, *plugin.Event) error {
		ran.Done()
		return nil
	}

	require.NoError(t, reg.Register(core, listed("First", guard("first", true), handler)))
	require.NoError(t, reg.Register(core, listed("Second", guard("second", false), handler)))
	require.NoError(t, reg.Register(core, listed("Third", guard("third", true), handler)))
	require.NoError(t, reg.Register(core, plugin.Registration{Handler: handler, Command: irc.PRIVMSG}))

	d, err := NewDispatcher(reg)
	require.NoError(t, err)

	ran.Add(3)
	require.NoError(t, d.Dispatch(context.Background(), message("eve first")))
	ran.Wait()

	assert.Equal(t, []string{"first", "second", "third"}, order)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_UnmatchedEventIsDropped(t *testing.T) {
	reg := NewRegistry()
	var called atomic.Bool
	require.NoError(t, reg.Register(owner(t, "DropCore"), listed("Quit",
		func(*plugin.Event) bool { return false },
		func(context.Context, *plugin.Event) error { called.Store(true); return nil })))

	rec := plugintest.NewRecorder()
	d := newTestDispatcher(t, reg, WithFailureEmitter(rec))

	require.NoError(t, d.Dispatch(context.Background(), message("eve dance")))
	require.NoError(t, d.Dispatch(context.Background(),
		plugintest.NewCaller("Eve").EventFor(irc.JOIN, "alice", "#testgrounds", "")))
	d.Wait()

	assert.False(t, called.Load())
	assert.Empty(t, rec.Actions())
}

func TestDispatcher_DoesNotWaitForHandlers(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry()
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, reg.Register(owner(t, "SlowCore"), listed("Slow", nil,
		func(context.Context, *plugin.Event) error {
			close(started)
			<-release
			return nil
		})))

	d, err := NewDispatcher(reg)
	require.NoError(t, err)

	returned := make(chan error, 1)
	go func() { returned <- d.Dispatch(context.Background(), message("eve slow")) }()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Dispatch blocked on a running handler")
	}

	<-started
	assert.Equal(t, 1, d.Running())
	close(release)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_HandlerErrorIsIsolated(t *testing.T) {
	reg := NewRegistry()
	core := owner(t, "ErrCore")

	var ok atomic.Bool
	require.NoError(t, reg.Register(core, listed("Broken", nil,
		func(context.Context, *plugin.Event) error { return errors.New("upstream exploded") })))
	require.NoError(t, reg.Register(core, listed("Fine", nil,
		func(context.Context, *plugin.Event) error { ok.Store(true); return nil })))

	rec := plugintest.NewRecorder()
	d := newTestDispatcher(t, reg, WithFailureEmitter(rec))

	before := invocations("ErrCore", "Broken", StatusError)
	require.NoError(t, d.Dispatch(context.Background(), message("eve broken")))
	d.Wait()

	assert.True(t, ok.Load(), "the other handler still ran")
	assert.Equal(t, []string{"That command failed. Try again later."}, rec.Texts())

	msg, _ := rec.OfKind(plugin.ActionSendMessage)[0].Message()
	assert.Equal(t, "#testgrounds", msg.Target)
	assert.InDelta(t, before+1, invocations("ErrCore", "Broken", StatusError), 0)
	assert.InDelta(t, 1, invocations("ErrCore", "Fine", StatusSuccess), 0)
}

func TestDispatcher_HandlerPanicIsContained(t *testing.T) {
	reg := NewRegistry()
	var calls atomic.Int32
	require.NoError(t, reg.Register(owner(t, "PanicCore"), listed("Boom", nil,
		func(context.Context, *plugin.Event) error {
			calls.Add(1)
			panic("boom")
		})))

	rec := plugintest.NewRecorder()
	d := newTestDispatcher(t, reg, WithFailureEmitter(rec))

	require.NoError(t, d.Dispatch(context.Background(), message("eve boom")))
	d.Wait()
	require.NoError(t, d.Dispatch(context.Background(), message("eve boom")))
	d.Wait()

	assert.Equal(t, int32(2), calls.Load(), "dispatcher keeps working after a panic")
	assert.Len(t, rec.Texts(), 2)
	assert.InDelta(t, 2, invocations("PanicCore", "Boom", StatusPanic), 0)
}

func TestDispatcher_GuardPanicRejectsOnlyThatEntry(t *testing.T) {
	reg := NewRegistry()
	core := owner(t, "GuardCore")

	var ok atomic.Bool
	require.NoError(t, reg.Register(core, listed("Bad",
		func(*plugin.Event) bool { panic("bad guard") },
		func(context.Context, *plugin.Event) error { t.Error("handler of panicking guard ran"); return nil })))
	require.NoError(t, reg.Register(core, listed("Good", nil,
		func(context.Context, *plugin.Event) error { ok.Store(true); return nil })))

	d := newTestDispatcher(t, reg)
	require.NoError(t, d.Dispatch(context.Background(), message("eve good")))
	d.Wait()

	assert.True(t, ok.Load())
}

func TestDispatcher_SkipsStoppedPlugins(t *testing.T) {
	reg := NewRegistry()
	stopped := owner(t, "StoppedCore")
	require.NoError(t, stopped.Stop(context.Background()))

	var called atomic.Bool
	require.NoError(t, reg.Register(stopped, listed("Quit", nil,
		func(context.Context, *plugin.Event) error { called.Store(true); return nil })))

	d := newTestDispatcher(t, reg)
	require.NoError(t, d.Dispatch(context.Background(), message("eve quit")))
	d.Wait()

	assert.False(t, called.Load())
}

func TestDispatcher_FailureRepliesOnlyForMessages(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(owner(t, "MotdCore"), plugin.Registration{
		Command: irc.MotdReplyEnd,
		Handler: func(context.Context, *plugin.Event) error { return errors.New("nope") },
	}))

	rec := plugintest.NewRecorder()
	d := newTestDispatcher(t, reg, WithFailureEmitter(rec))

	ev := plugintest.NewCaller("Eve").EventFor(irc.MotdReplyEnd, "irc.test", "Eve", "End of MOTD")
	require.NoError(t, d.Dispatch(context.Background(), ev))
	d.Wait()

	assert.Empty(t, rec.Actions())
}

func TestDispatcher_PoolOverloadRepliesBusy(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, reg.Register(owner(t, "BusyCore"), listed("Slow", nil,
		func(context.Context, *plugin.Event) error {
			started <- struct{}{}
			<-release
			return nil
		})))

	rec := plugintest.NewRecorder()
	d, err := NewDispatcher(reg, WithPoolSize(1), WithFailureEmitter(rec))
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), message("eve slow")))
	<-started
	require.NoError(t, d.Dispatch(context.Background(), message("eve slow")))

	assert.Equal(t, []string{"I'm too busy right now. Try again shortly."}, rec.Texts())
	assert.InDelta(t, 1, invocations("BusyCore", "Slow", StatusRejected), 0)

	close(release)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_RateLimitsAddressedSenders(t *testing.T) {
	reg := NewRegistry()
	var calls atomic.Int32
	require.NoError(t, reg.Register(owner(t, "FloodCore"), listed("Eval", nil,
		func(context.Context, *plugin.Event) error { calls.Add(1); return nil })))

	rl := NewRateLimiter(RateLimiterConfig{BurstCapacity: 1, SustainedRate: MinSustainedRate}, nil)
	rec := plugintest.NewRecorder()
	d := newTestDispatcher(t, reg, WithRateLimiter(rl), WithFailureEmitter(rec))

	caller := plugintest.NewCaller("Eve")
	for range 3 {
		require.NoError(t, d.Dispatch(context.Background(), caller.Event("alice", "#testgrounds", "eve eval 1+1")))
	}
	d.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, rec.Actions(), "throttled senders get no reply")

	// chatter that does not address the bot is never throttled
	for range 3 {
		require.NoError(t, d.Dispatch(context.Background(), caller.Event("alice", "#testgrounds", "hello there")))
	}
	d.Wait()
	assert.Equal(t, int32(4), calls.Load())
}

func TestDispatcher_OperatorsAreNotRateLimited(t *testing.T) {
	reg := NewRegistry()
	var calls atomic.Int32
	require.NoError(t, reg.Register(owner(t, "OperCore"), listed("Eval", nil,
		func(context.Context, *plugin.Event) error { calls.Add(1); return nil })))

	rl := NewRateLimiter(RateLimiterConfig{BurstCapacity: 1, SustainedRate: MinSustainedRate}, nil)
	d := newTestDispatcher(t, reg, WithRateLimiter(rl))

	caller := plugintest.NewCaller("Eve")
	caller.RosterV.PutUser(irc.User{Realname: "alice", Access: 0})
	for range 3 {
		require.NoError(t, d.Dispatch(context.Background(), caller.Event("alice", "#testgrounds", "eve eval 1+1")))
	}
	d.Wait()

	assert.Equal(t, int32(3), calls.Load())
}

func TestDispatcher_CloseDrainsInFlightHandlers(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry()
	started := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, reg.Register(owner(t, "DrainCore"), listed("Slow", nil,
		func(context.Context, *plugin.Event) error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
			return nil
		})))

	d, err := NewDispatcher(reg)
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(context.Background(), message("eve slow")))
	<-started

	require.NoError(t, d.Close(context.Background()))
	assert.True(t, finished.Load())

	err = d.Dispatch(context.Background(), message("eve slow"))
	errutil.AssertErrorCode(t, err, CodeDispatcherClosed)
	assert.NoError(t, d.Close(context.Background()), "Close is idempotent")
}

func TestDispatcher_CloseTimesOutAndCancelsHandlers(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry()
	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, reg.Register(owner(t, "StuckCore"), listed("Stuck", nil,
		func(ctx context.Context, _ *plugin.Event) error {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return nil
		})))

	d, err := NewDispatcher(reg)
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(context.Background(), message("eve stuck")))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = d.Close(ctx)
	errutil.AssertErrorCode(t, err, CodeDrainTimeout)

	select {
	case <-cancelled:
	case <-time.After(waitFor):
		t.Fatal("handler context was not cancelled")
	}
	d.Wait()
}

func TestDispatcher_HandlerContextOutlivesDispatchContext(t *testing.T) {
	reg := NewRegistry()
	ctxErr := make(chan error, 1)
	proceed := make(chan struct{})
	require.NoError(t, reg.Register(owner(t, "CtxCore"), listed("Wait", nil,
		func(ctx context.Context, _ *plugin.Event) error {
			<-proceed
			ctxErr <- ctx.Err()
			return nil
		})))

	d := newTestDispatcher(t, reg)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(ctx, message("eve wait")))
	cancel()
	close(proceed)

	select {
	case err := <-ctxErr:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("handler did not run")
	}
}

func TestDispatcher_HandlerLogsNameTheirOrigin(t *testing.T) {
	defer goleak.VerifyNone(t)

	var buf bytes.Buffer
	logger := logging.Setup(logging.Options{Writer: &buf})

	reg := NewRegistry()
	done := make(chan struct{})
	require.NoError(t, reg.Register(owner(t, "Core"), listed("Define", nil,
		func(ctx context.Context, _ *plugin.Event) error {
			logger.InfoContext(ctx, "inside handler")
			close(done)
			return nil
		})))

	d := newTestDispatcher(t, reg)
	require.NoError(t, d.Dispatch(context.Background(), message("eve define word")))

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("handler did not run")
	}
	require.NoError(t, d.Close(context.Background()))

	assert.Contains(t, buf.String(), `"plugin":"Core"`)
	assert.Contains(t, buf.String(), `"command":"Define"`)
}
