package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SecurityConfig controls the response hardening headers.
type SecurityConfig struct {
	// HSTS sends Strict-Transport-Security. Enable only behind TLS.
	HSTS bool
	// PublicPrefixes are path prefixes whose responses hold no account
	// data and may be cached for PublicMaxAge. Everything else is no-store.
	PublicPrefixes []string
	PublicMaxAge   time.Duration
}

// DefaultSecurityConfig returns the portal's header policy. The landing
// page and the catalog are cacheable; HSTS is on in production.
func DefaultSecurityConfig(production bool) SecurityConfig {
	return SecurityConfig{
		HSTS:           production,
		PublicPrefixes: []string{"/api/v1/catalog/"},
		PublicMaxAge:   5 * time.Minute,
	}
}

var staticSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "0"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=()"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
}

// Security applies hardening headers to every response.
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	publicCache := "no-store"
	if cfg.PublicMaxAge > 0 {
		publicCache = "public, max-age=" + strconv.Itoa(int(cfg.PublicMaxAge/time.Second))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range staticSecurityHeaders {
				h.Set(kv[0], kv[1])
			}
			if cfg.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			cache := "no-store"
			if r.Method == http.MethodGet && isPublicPath(r.URL.Path, cfg.PublicPrefixes) {
				cache = publicCache
			}
			h.Set("Cache-Control", cache)
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

func isPublicPath(path string, prefixes []string) bool {
	if path == "/" {
		return len(prefixes) > 0
	}
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// MaxBodySize rejects declared oversize bodies with 413 and caps reads of
// the rest at maxBytes.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
