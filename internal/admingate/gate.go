// Package admingate — доступ к операторским эндпоинтам по общему секрету.
package admingate

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"lander/internal/models"
)

const bearerPrefix = "Bearer "

// Verify проверяет заголовок Authorization ("Bearer <token>" или просто "<token>").
// Без настроенного секрета пускает только в dev-режиме.
func Verify(authorization, secret string, dev bool) bool {
	if secret == "" {
		return dev
	}
	token := strings.TrimSpace(strings.TrimPrefix(authorization, bearerPrefix))
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

// Gate — Verify с зафиксированной конфигурацией.
type Gate struct {
	Secret string
	Dev    bool
}

func (g Gate) Allow(r *http.Request) bool {
	return Verify(r.Header.Get("Authorization"), g.Secret, g.Dev)
}

// Middleware отвечает 401 UNAUTHORIZED, если Allow не прошёл.
func (g Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Allow(r) {
			models.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
