// cors.go — CORS для браузерного клиента: страница загрузки открыта с любого origin.
package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS возвращает middleware с разрешёнными origins.
// Пустой список или "*" — любой origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length"},
		MaxAge:         86400,
	})
}
