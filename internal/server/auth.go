package server

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminRealm = `Basic realm="financing-wizard admin", charset="UTF-8"`

// adminAuth guards admin routes with HTTP basic auth against a bcrypt hash.
func (h *handler) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !h.checkAdmin(username, password) {
			h.logger.Warn("rejected admin credentials",
				zap.String("op", "server.adminAuth"),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
			)
			w.Header().Set("WWW-Authenticate", adminRealm)
			h.respondErrorWithOp(w, http.StatusUnauthorized, "authentication required", "server.adminAuth")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) checkAdmin(username, password string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(h.admin.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(password))
	return userMatch && passErr == nil
}

// HashPassword returns the bcrypt hash stored in the admin configuration.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
