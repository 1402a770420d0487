package ratelimit

import (
	"net/http"
	"strings"
)

const unknownClient = "unknown"

// ClientIP определяет адрес клиента по заголовкам прокси.
// Порядок: CF-Connecting-IP, первый элемент X-Forwarded-For, X-Real-IP.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return unknownClient
}

// Key — составной ключ "клиент:маршрут".
func Key(client, route string) string { return client + ":" + route }
