// Package session implements the session guard: it holds the bearer token
// and current identity, and gates every network-touching component. No
// token, no network - the other components check here first.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/edurisk/atrisk-tracker/internal/domain/shared"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// Role is the signed-in user's role; it selects which view the UI renders.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleExamDept Role = "exam_department"
	RoleFaculty  Role = "faculty"
	RoleGuardian Role = "guardian"
)

// Identity describes the current user as carried in the token claims.
type Identity struct {
	ID   string
	Name string
	Role Role
}

// TeardownFunc runs when the session transitions authenticated→unauthenticated.
// The record store registers one to clear itself.
type TeardownFunc func()

// Guard holds the session token and identity.
type Guard struct {
	mu        sync.RWMutex
	token     string
	identity  Identity
	expiresAt time.Time
	teardowns []TeardownFunc

	bus    shared.EventPublisher
	logger *logger.Logger
	now    func() time.Time
}

// NewGuard creates an unauthenticated guard. The bus may be nil.
func NewGuard(bus shared.EventPublisher, log *logger.Logger) *Guard {
	if log == nil {
		log = logger.Default()
	}
	return &Guard{
		bus:    bus,
		logger: log.With(logger.Component("session")),
		now:    time.Now,
	}
}

// WithClock overrides the time source. Tests use this to simulate expiry.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// OnTeardown registers a hook fired on logout or detected expiry.
func (g *Guard) OnTeardown(fn TeardownFunc) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.teardowns = append(g.teardowns, fn)
	g.mu.Unlock()
}

// SetSession installs a bearer token. The token is parsed as a JWT without
// signature verification - verification is the server's job; the client
// only needs display identity and local expiry detection. A token that is
// not a JWT is still accepted (opaque token, no identity claims).
func (g *Guard) SetSession(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return shared.WrapError("session", "SetSession", shared.ErrEmptyValue, "empty token", nil)
	}

	identity, expiresAt := parseClaims(token)

	g.mu.Lock()
	g.token = token
	g.identity = identity
	g.expiresAt = expiresAt
	g.mu.Unlock()

	g.logger.Info("session started", logger.String("role", string(identity.Role)))
	g.publish(shared.NewBaseEvent(shared.EventSessionStarted, identity.ID))
	return nil
}

// Clear drops the session and fires teardown hooks.
func (g *Guard) Clear() {
	g.mu.Lock()
	wasAuthenticated := g.token != ""
	g.token = ""
	g.identity = Identity{}
	g.expiresAt = time.Time{}
	hooks := append([]TeardownFunc(nil), g.teardowns...)
	g.mu.Unlock()

	if !wasAuthenticated {
		return
	}
	g.logger.Info("session ended")
	for _, fn := range hooks {
		fn()
	}
	g.publish(shared.NewBaseEvent(shared.EventSessionEnded, ""))
}

// IsAuthenticated reports whether a live token is held. A token past its
// exp claim counts as absent; the first caller to notice triggers teardown.
func (g *Guard) IsAuthenticated() bool {
	g.mu.RLock()
	token := g.token
	expiresAt := g.expiresAt
	g.mu.RUnlock()

	if token == "" {
		return false
	}
	if !expiresAt.IsZero() && !g.now().Before(expiresAt) {
		g.Clear()
		return false
	}
	return true
}

// Token implements trackerapi.TokenSource. Returns "" when unauthenticated
// so the API client rejects the call before touching the network.
func (g *Guard) Token() string {
	if !g.IsAuthenticated() {
		return ""
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// CurrentUser returns the identity parsed from the token claims.
func (g *Guard) CurrentUser() Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity
}

func (g *Guard) publish(e shared.Event) {
	if g.bus == nil {
		return
	}
	_ = g.bus.Publish(e)
}

// parseClaims extracts identity and expiry from a JWT without verifying the
// signature. Opaque tokens yield an empty identity and no local expiry.
func parseClaims(token string) (Identity, time.Time) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Identity{}, time.Time{}
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, time.Time{}
	}

	identity := Identity{}
	if sub, ok := claims["sub"].(string); ok {
		identity.ID = sub
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		identity.Role = Role(role)
	}

	// exp decodes as float64 under encoding/json's default numeric mapping.
	var expiresAt time.Time
	if exp, ok := claims["exp"].(float64); ok && exp > 0 {
		expiresAt = time.Unix(int64(exp), 0)
	}
	return identity, expiresAt
}
