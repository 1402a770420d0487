package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"lander/internal/errsan"
	"lander/internal/models"
)

type panicError struct {
	val   any
	stack string
}

func (e *panicError) Error() string      { return fmt.Sprintf("panic: %v", e.val) }
func (e *panicError) StackTrace() string { return e.stack }

// Recoverer перехватывает панику и отдаёт 500 через errsan: вне dev-режима
// клиент видит только канонический текст.
func Recoverer(log logrus.FieldLogger, dev bool) func(http.Handler) http.Handler {
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
				perr := &panicError{val: rec, stack: string(debug.Stack())}
				log.WithError(perr).WithFields(logrus.Fields{
					"reqid":  GetRequestID(r),
					"method": r.Method,
					"uri":    r.RequestURI,
				}).Error("panic recovered")
				resp := errsan.ToResponse(perr, http.StatusInternalServerError, dev)
				models.WriteJSON(w, resp.Status, resp.Body)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
