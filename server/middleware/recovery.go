package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/kbukum/authtoken/errors"
	"github.com/kbukum/authtoken/logger"
)

// Recovery returns middleware that recovers from panics, logs the stack and
// answers with a generic INTERNAL_ERROR body.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).Error("Panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					logger.FieldPath, r.URL.Path,
					logger.FieldMethod, r.Method,
				))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(apperrors.Internal(fmt.Errorf("panic: %v", rec)).ToResponse())
			}()
			next.ServeHTTP(w, r)
		})
	}
}
