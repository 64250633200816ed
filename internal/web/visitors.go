package web

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"blogcms/internal/blogs"
	"blogcms/internal/gql"
	"blogcms/internal/web/appcore"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	visitorCookie = "blogcms_visitor"

	defaultVisitorIdleTimeout = 30 * time.Minute
	defaultVisitorLimit       = 1000
)

// VisitorConfig bounds the per-visitor GraphQL caches. Zero values select the defaults.
type VisitorConfig struct {
	IdleTimeout time.Duration
	// Limit caps the number of caches kept; the least recently seen visitor is dropped first.
	Limit int
}

type visitor struct {
	client *gql.Client
	seen   time.Time
}

// visitorCaches gives every browser its own fork of the root client, so a cached result lives
// as long as the visitor's page does. A reload starts the visitor over with an empty cache.
type visitorCaches struct {
	root       *gql.Client
	cookiePath string
	idle       time.Duration
	limit      int
	now        func() time.Time
	active     prometheus.Gauge

	mu       sync.Mutex
	visitors map[string]*visitor
}

func newVisitorCaches(
	root *gql.Client,
	cfg VisitorConfig,
	basePath string,
	registerer prometheus.Registerer,
) (*visitorCaches, error) {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultVisitorIdleTimeout
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultVisitorLimit
	}
	cookiePath := "/" + strings.Trim(strings.TrimSpace(basePath), "/")

	caches := &visitorCaches{
		root:       root,
		cookiePath: cookiePath,
		idle:       idle,
		limit:      limit,
		now:        time.Now,
		visitors:   make(map[string]*visitor),
	}

	if registerer != nil {
		caches.active = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blogcms_visitor_caches",
			Help: "Visitors holding their own GraphQL cache.",
		})
		if err := registerer.Register(caches.active); err != nil {
			return nil, fmt.Errorf("register visitor metrics: %w", err)
		}
	}
	return caches, nil
}

// wrap scopes each request to its visitor's client. The visitor is resolved on first use, so
// requests that never reach the GraphQL API, such as health checks, create no cache.
func (v *visitorCaches) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		source := sync.OnceValue(func() blogs.Client {
			return v.clientFor(w, r)
		})
		next.ServeHTTP(w, r.WithContext(appcore.WithClientSource(r.Context(), source)))
	})
}

func (v *visitorCaches) clientFor(w http.ResponseWriter, r *http.Request) *gql.Client {
	now := v.now()

	v.mu.Lock()
	defer v.mu.Unlock()

	if cookie, err := r.Cookie(visitorCookie); err == nil {
		if entry, ok := v.visitors[cookie.Value]; ok {
			if now.Sub(entry.seen) <= v.idle {
				entry.seen = now
				if isReload(r) {
					entry.client.Cache().Reset()
				}
				return entry.client
			}
			delete(v.visitors, cookie.Value)
		}
	}

	v.pruneLocked(now)
	id := uuid.NewString()
	entry := &visitor{client: v.root.Fork(), seen: now}
	v.visitors[id] = entry
	v.setGaugeLocked()

	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     v.cookiePath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return entry.client
}

// pruneLocked drops idle visitors, then the least recently seen ones until a new visitor fits.
func (v *visitorCaches) pruneLocked(now time.Time) {
	for id, entry := range v.visitors {
		if now.Sub(entry.seen) > v.idle {
			delete(v.visitors, id)
		}
	}

	for len(v.visitors) >= v.limit {
		oldestID := ""
		var oldest time.Time
		for id, entry := range v.visitors {
			if oldestID == "" || entry.seen.Before(oldest) {
				oldestID, oldest = id, entry.seen
			}
		}
		delete(v.visitors, oldestID)
	}
}

func (v *visitorCaches) setGaugeLocked() {
	if v.active != nil {
		v.active.Set(float64(len(v.visitors)))
	}
}

func (v *visitorCaches) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.visitors)
}

// isReload reports a browser reload of a whole page: a document GET that asks caches to
// revalidate. Datastar fetches and live streams never count.
func isReload(r *http.Request) bool {
	if r.Method != http.MethodGet || strings.EqualFold(r.Header.Get("Datastar-Request"), "true") {
		return false
	}

	cacheControl := strings.ToLower(r.Header.Get("Cache-Control"))
	return strings.Contains(cacheControl, "no-cache") ||
		strings.Contains(cacheControl, "max-age=0") ||
		strings.EqualFold(r.Header.Get("Pragma"), "no-cache")
}
