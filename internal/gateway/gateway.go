package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/terra-clan/student-portal/internal/config"
)

// Gateway forwards requests to upstream services by path prefix.
// It mirrors the development proxy the UI expects in front of the backends.
type Gateway struct {
	routes []*route
}

type route struct {
	prefix string
	target *url.URL
	proxy  *httputil.ReverseProxy
}

// New builds a gateway from route definitions
func New(routes []config.Route) (*Gateway, error) {
	g := &Gateway{}
	seen := make(map[string]bool)

	for _, r := range routes {
		target, err := url.Parse(r.Target)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("invalid target for prefix %s: %q", r.Prefix, r.Target)
		}

		prefix := config.NormalizePrefix(r.Prefix)
		if seen[prefix] {
			return nil, fmt.Errorf("duplicate gateway prefix: %s", prefix)
		}
		seen[prefix] = true

		g.routes = append(g.routes, &route{
			prefix: prefix,
			target: target,
			proxy:  newProxy(prefix, target),
		})
	}

	// Longest prefix first so /api/v2 can shadow /api
	sort.SliceStable(g.routes, func(i, j int) bool {
		return len(g.routes[i].prefix) > len(g.routes[j].prefix)
	})

	return g, nil
}

// Prefixes returns the configured prefixes, longest first
func (g *Gateway) Prefixes() []string {
	prefixes := make([]string, 0, len(g.routes))
	for _, r := range g.routes {
		prefixes = append(prefixes, r.prefix)
	}
	return prefixes
}

// Targets returns prefix to upstream base URL
func (g *Gateway) Targets() map[string]string {
	targets := make(map[string]string, len(g.routes))
	for _, r := range g.routes {
		targets[r.prefix] = r.target.String()
	}
	return targets
}

// Match returns the upstream for a path, or false when no prefix applies
func (g *Gateway) Match(path string) (*url.URL, bool) {
	r := g.match(path)
	if r == nil {
		return nil, false
	}
	return r.target, true
}

func (g *Gateway) match(path string) *route {
	for _, r := range g.routes {
		if r.prefix == "/" || path == r.prefix || strings.HasPrefix(path, r.prefix+"/") {
			return r
		}
	}
	return nil
}

// ServeHTTP forwards the request to the matching upstream
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt := g.match(r.URL.Path)
	if rt == nil {
		writeError(w, http.StatusNotFound, "no_route", "no gateway route for "+r.URL.Path)
		return
	}
	rt.proxy.ServeHTTP(w, r)
}

// newProxy forwards the path unchanged and rewrites Host to the upstream
func newProxy(prefix string, target *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("gateway upstream error",
				"prefix", prefix,
				"target", target.String(),
				"path", r.URL.Path,
				"error", err,
			)
			writeError(w, http.StatusBadGateway, "upstream_unavailable",
				fmt.Sprintf("upstream for %s is unavailable", prefix))
		},
	}
}

type errorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode gateway error", "error", err)
	}
}
