package middlewarex

import (
	"crypto/hmac"
	"net/http"
	"strings"

	"paybridge/internal/config"
)

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

// ServiceAuth guards the storefront-facing API with the shared service token.
func ServiceAuth(cfg config.Cfg) func(http.Handler) http.Handler {
	return tokenAuth(cfg.Sec.ServiceToken)
}

// AdminAuth guards operational endpoints such as webhook replay.
func AdminAuth(cfg config.Cfg) func(http.Handler) http.Handler {
	return tokenAuth(cfg.Sec.AdminToken)
}

func tokenAuth(want string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			if want == "" || !hmac.Equal([]byte(got), []byte(want)) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
