package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"academic-erp/pkg/utils"
)

// Recovery turns panics into 500 responses instead of dropping the connection.
func Recovery(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)
					utils.WriteInternalServerError(w, "Internal server error occurred")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
