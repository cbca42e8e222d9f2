package http

import (
	"net/http"
	"strings"
)

const (
	apiContentSecurityPolicy     = "default-src 'none'; frame-ancestors 'none'"
	swaggerContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
)

// SecurityHeaders sets response hardening headers. hsts adds
// Strict-Transport-Security and should only be enabled behind TLS.
func SecurityHeaders(hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")

			if hsts {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}

			if strings.HasPrefix(r.URL.Path, "/swagger/") {
				h.Set("Content-Security-Policy", swaggerContentSecurityPolicy)
			} else {
				h.Set("Content-Security-Policy", apiContentSecurityPolicy)
			}

			next.ServeHTTP(w, r)
		})
	}
}
