// Package session keeps one draft manager per tenant for the lifetime of an editing
// session.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/themestudio/internal/drafts"
	"github.com/codr1/themestudio/internal/store"
)

const defaultTenant = "default"

var (
	// ErrInvalidTenant reports a tenant id that is not a short slug.
	ErrInvalidTenant = errors.New("invalid tenant")
	// ErrTooManySessions reports that the registry is at its session cap.
	ErrTooManySessions = errors.New("too many open theme sessions")
)

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidateTenant accepts "" (default scope) or a slug of 1-64 letters, digits, dots,
// dashes or underscores that starts with a letter or digit.
func ValidateTenant(tenant string) error {
	if tenant == "" || tenantPattern.MatchString(tenant) {
		return nil
	}
	return fmt.Errorf("%w: tenant must be 1-64 letters, digits, dots, dashes or underscores", ErrInvalidTenant)
}

type Option func(*Registry)

// WithManagerOptions are applied to every manager the registry builds.
func WithManagerOptions(opts ...drafts.Option) Option {
	return func(r *Registry) { r.managerOpts = append(r.managerOpts, opts...) }
}

func WithClock(clock drafts.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithMaxSessions caps how many tenants may have an open session. Zero means no cap.
func WithMaxSessions(n int) Option {
	return func(r *Registry) { r.maxSessions = n }
}

// entry is ready once its manager has loaded. manager and err are set before ready closes.
type entry struct {
	ready    chan struct{}
	manager  *drafts.Manager
	err      error
	lastUsed time.Time
}

func (e *entry) loaded() bool {
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}

// Registry lazily builds and loads a drafts.Manager per tenant.
type Registry struct {
	mu          sync.Mutex
	store       store.Store
	managerOpts []drafts.Option
	clock       drafts.Clock
	maxSessions int
	sessions    map[string]*entry
}

func NewRegistry(s store.Store, opts ...Option) *Registry {
	r := &Registry{
		store:    s,
		clock:    wallClock{},
		sessions: map[string]*entry{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Get returns the tenant's manager, creating and loading it on first use. The catalog is
// loaded outside the registry lock; concurrent callers for the same tenant wait for the
// first load.
func (r *Registry) Get(ctx context.Context, tenant string) (*drafts.Manager, error) {
	tenant = strings.TrimSpace(tenant)
	if err := ValidateTenant(tenant); err != nil {
		return nil, err
	}
	if tenant == "" {
		tenant = defaultTenant
	}

	r.mu.Lock()
	e, ok := r.sessions[tenant]
	if !ok {
		if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
			r.mu.Unlock()
			log.Ctx(ctx).Warn().Str("tenant", tenant).Int("max_sessions", r.maxSessions).Msg("Theme session cap reached")
			return nil, ErrTooManySessions
		}
		e = &entry{ready: make(chan struct{})}
		r.sessions[tenant] = e
	}
	r.mu.Unlock()

	if !ok {
		// Other callers may be waiting on this load.
		r.load(context.WithoutCancel(ctx), tenant, e)
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}

	r.mu.Lock()
	e.lastUsed = r.clock.Now()
	r.mu.Unlock()
	return e.manager, nil
}

func (r *Registry) load(ctx context.Context, tenant string, e *entry) {
	opts := append([]drafts.Option{drafts.WithTenant(tenant)}, r.managerOpts...)
	manager := drafts.New(r.store, opts...)
	err := manager.LoadCatalog(ctx)

	r.mu.Lock()
	if err != nil {
		e.err = fmt.Errorf("load session for tenant %q: %w", tenant, err)
		if r.sessions[tenant] == e {
			delete(r.sessions, tenant)
		}
	} else {
		e.manager = manager
		e.lastUsed = r.clock.Now()
	}
	close(e.ready)
	r.mu.Unlock()

	if err == nil {
		log.Ctx(ctx).Debug().Str("tenant", tenant).Msg("Opened theme session")
	}
}

// EvictIdle drops sessions unused for longer than maxIdle and returns how many were
// dropped. Open drafts in those sessions are lost; committed themes are already stored.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-maxIdle)
	evicted := 0
	for tenant, e := range r.sessions {
		if e.loaded() && e.lastUsed.Before(cutoff) {
			delete(r.sessions, tenant)
			evicted++
			log.Debug().Str("tenant", tenant).Bool("had_draft", e.manager.IsPreviewMode()).Msg("Evicted idle theme session")
		}
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Tenants lists open sessions in name order.
func (r *Registry) Tenants() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sessions))
	for tenant := range r.sessions {
		out = append(out, tenant)
	}
	sort.Strings(out)
	return out
}
