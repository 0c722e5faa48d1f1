package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	apperror "beautypro/internal/errors"
	"beautypro/internal/pkg/cache"
	"beautypro/internal/pkg/logger"
)

// RateLimiter limita requisições por IP numa janela fixa guardada no Redis.
// Excedido o limite, responde 429 com o código too-many-requests.
// Falhas do Redis deixam a requisição passar.
func RateLimiter(client cache.Client, limit int, window, timeout time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			count, err := client.Incr(ctx, key, window)
			cancel()
			if err != nil {
				log.Warn("Rate limiter indisponível; liberando requisição.", map[string]interface{}{"error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeError(w, apperror.NewProviderError(apperror.CodeTooManyRequests, nil))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(limit)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}
