package middleware

import (
	"net/http"
	"strings"
)

type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
}

func (p corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// NewCORS answers preflight requests and echoes allowed origins. A "*"
// entry allows any origin. Content-Disposition is exposed so browsers can
// name CSV downloads.
func NewCORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := corsPolicy{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		switch origin = strings.TrimSpace(origin); origin {
		case "":
		case "*":
			policy.anyOrigin = true
		default:
			policy.origins[origin] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); policy.allows(origin) {
				h := w.Header()
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				h.Set("Access-Control-Expose-Headers", "Content-Disposition")
				h.Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
