// Package syncer implements the synchronization controller: it decides when
// fetched data is valid to display, when the record store may be refreshed,
// and coalesces rapid manual refresh triggers. Background fetches are only
// allowed on a small allow-list of screens and only with a live session.
package syncer

import (
	"strings"
	"sync"
)

// DefaultAllowedRoutes are the screens on which background synchronization
// may run when no explicit allow-list is configured.
var DefaultAllowedRoutes = []string{"/", "/dashboard", "/settings"}

// RouteGate restricts synchronization to an allow-list of screens. A fetch
// requested while off-list must simply not execute - it is not queued.
type RouteGate struct {
	mu      sync.RWMutex
	allowed map[string]struct{}
}

// NewRouteGate builds a gate from the allowed paths. Paths are matched
// exactly after trailing-slash normalization.
func NewRouteGate(paths []string) *RouteGate {
	if len(paths) == 0 {
		paths = DefaultAllowedRoutes
	}
	allowed := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p = normalizePath(p); p != "" {
			allowed[p] = struct{}{}
		}
	}
	return &RouteGate{allowed: allowed}
}

// IsSyncAllowed reports whether background sync may run on the given path.
// An empty or unset path is never allowed; it does not mean home.
func (g *RouteGate) IsSyncAllowed(path string) bool {
	path = normalizePath(path)
	if path == "" {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.allowed[path]
	return ok
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p != "/" {
		p = strings.TrimRight(p, "/")
	}
	return p
}
