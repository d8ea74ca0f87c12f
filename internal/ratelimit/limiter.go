// Package ratelimit throttles theme-changing requests per client and per tenant.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration. A zero limit disables that layer.
type Config struct {
	Window          time.Duration // Length of one counting window (default: 1m)
	ClientPerWindow int           // Max writes per client IP per window
	TenantPerWindow int           // Max writes per tenant per window

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Window:          time.Minute,
		ClientPerWindow: 120,
		TenantPerWindow: 600,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry is a fixed counting window.
type entry struct {
	count   int
	firstAt time.Time
	lastAt  time.Time
}

// Limiter counts writes in fixed windows keyed by client IP and by tenant.
type Limiter struct {
	config   *Config
	clock    Clock
	mu       sync.Mutex
	byClient map[string]*entry
	byTenant map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		byClient:      make(map[string]*entry),
		byTenant:      make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// Allow checks both layers and, when the write is allowed, counts it against both.
func (l *Limiter) Allow(tenant, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	clientKey := l.hashKey("client:", ip)
	tenantKey := l.hashKey("tenant:", normalizeTenant(tenant))

	l.mu.Lock()
	defer l.mu.Unlock()

	if result := l.check(l.byClient[clientKey], l.config.ClientPerWindow, now, "client_limit"); !result.Allowed {
		return result
	}
	if result := l.check(l.byTenant[tenantKey], l.config.TenantPerWindow, now, "tenant_limit"); !result.Allowed {
		return result
	}

	l.record(l.byClient, clientKey, now)
	l.record(l.byTenant, tenantKey, now)
	return LimitResult{Allowed: true}
}

func (l *Limiter) check(e *entry, limit int, now time.Time, reason string) LimitResult {
	if limit <= 0 || e == nil {
		return LimitResult{Allowed: true}
	}
	elapsed := now.Sub(e.firstAt)
	if elapsed < l.config.Window && e.count >= limit {
		return LimitResult{
			Allowed:    false,
			RetryAfter: l.config.Window - elapsed,
			Reason:     reason,
		}
	}
	return LimitResult{Allowed: true}
}

func (l *Limiter) record(entries map[string]*entry, key string, now time.Time) {
	e := entries[key]
	if e == nil || now.Sub(e.firstAt) >= l.config.Window {
		entries[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

func (l *Limiter) hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

func normalizeTenant(tenant string) string {
	return strings.ToLower(strings.TrimSpace(tenant))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, entries := range []map[string]*entry{l.byClient, l.byTenant} {
		for k, e := range entries {
			if now.Sub(e.lastAt) > l.config.Window {
				delete(entries, k)
			}
		}
	}
}

// Len reports how many keys are currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byClient) + len(l.byTenant)
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost public IP from X-Forwarded-For.
// When trustProxy is false, X-Forwarded-For is ignored entirely.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			return strings.TrimSpace(parts[len(parts)-1])
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return ip
	}
	// RemoteAddr without a port (unix socket or malformed)
	if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		if candidate := r.RemoteAddr[:idx]; net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return r.RemoteAddr
}

var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// LogRateLimitExceeded logs a throttled write.
func LogRateLimitExceeded(r *http.Request, tenant, ip string, result LimitResult) {
	log.Ctx(r.Context()).Warn().
		Str("event", "rate_limit_exceeded").
		Str("tenant", tenant).
		Str("ip", ip).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("reason", result.Reason).
		Dur("retry_after", result.RetryAfter).
		Msg("Theme write rate limit exceeded")
}
