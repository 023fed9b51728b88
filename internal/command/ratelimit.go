// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default flood control values.
const (
	// DefaultBurstCapacity is the number of commands a sender may issue in a
	// burst before being throttled.
	DefaultBurstCapacity = 5

	// DefaultSustainedRate is the token refill rate in commands per second.
	DefaultSustainedRate = 0.5

	// MinSustainedRate keeps a throttled sender from being locked out.
	MinSustainedRate = 0.01

	// DefaultCleanupInterval is how often idle senders are forgotten.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultSenderMaxAge is how long a sender may stay idle before cleanup.
	DefaultSenderMaxAge = time.Hour
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// BurstCapacity defaults to DefaultBurstCapacity if zero or negative.
	BurstCapacity int

	// SustainedRate defaults to DefaultSustainedRate if zero or negative.
	SustainedRate float64

	CleanupInterval time.Duration
	SenderMaxAge    time.Duration
}

// bucket is one sender's token bucket.
type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter throttles commands per sender with a token bucket. It is safe
// for concurrent use.
//
// A background goroutine forgets idle senders; call Close to stop it.
type RateLimiter struct {
	mu            sync.Mutex
	senders       map[string]*bucket
	burstCapacity int
	sustainedRate float64 // tokens per second
	senderMaxAge  time.Duration
	now           func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup

	senderGauge prometheus.Gauge // nil without a registry
}

// NewRateLimiter creates a rate limiter. reg may be nil.
func NewRateLimiter(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	burstCapacity := cfg.BurstCapacity
	if burstCapacity <= 0 {
		burstCapacity = DefaultBurstCapacity
	}

	sustainedRate := cfg.SustainedRate
	if sustainedRate <= 0 {
		sustainedRate = DefaultSustainedRate
	}
	if sustainedRate < MinSustainedRate {
		sustainedRate = MinSustainedRate
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	senderMaxAge := cfg.SenderMaxAge
	if senderMaxAge <= 0 {
		senderMaxAge = DefaultSenderMaxAge
	}

	rl := &RateLimiter{
		senders:       make(map[string]*bucket),
		burstCapacity: burstCapacity,
		sustainedRate: sustainedRate,
		senderMaxAge:  senderMaxAge,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}

	if reg != nil {
		rl.senderGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "convex_ratelimiter_senders",
			Help: "Current number of senders tracked by the rate limiter",
		})
		reg.MustRegister(rl.senderGauge)
	}

	rl.wg.Add(1)
	go rl.cleanupLoop(cleanupInterval)

	return rl
}

// Allow consumes one token for sender. It returns false and the
// milliseconds until the next token when the bucket is empty. Senders
// compare without case.
func (rl *RateLimiter) Allow(sender string) (allowed bool, cooldownMs int64) {
	key := strings.ToLower(sender)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	b, exists := rl.senders[key]
	if !exists {
		b = &bucket{tokens: float64(rl.burstCapacity), lastCheck: now}
		rl.senders[key] = b
	}

	b.tokens += now.Sub(b.lastCheck).Seconds() * rl.sustainedRate
	if b.tokens > float64(rl.burstCapacity) {
		b.tokens = float64(rl.burstCapacity)
	}
	b.lastCheck = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true, 0
	}

	deficit := 1.0 - b.tokens
	return false, int64(deficit / rl.sustainedRate * 1000)
}

// SenderCount returns the number of tracked senders.
func (rl *RateLimiter) SenderCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.senders)
}

// Cleanup forgets senders idle for longer than maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.now().Add(-maxAge)
	for key, b := range rl.senders {
		if b.lastCheck.Before(threshold) {
			delete(rl.senders, key)
		}
	}

	if rl.senderGauge != nil {
		rl.senderGauge.Set(float64(len(rl.senders)))
	}
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.Cleanup(rl.senderMaxAge)
		}
	}
}

// Close stops the cleanup goroutine and waits for it to exit.
func (rl *RateLimiter) Close() {
	close(rl.stopChan)
	rl.wg.Wait()
}
