package handlers

import (
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"strings"

	"billingDesk/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"
)

func (h *Handler) ErrorHandleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic occured", zap.Any("panic", rec), zap.String("stacktrace", string(debug.Stack())))
				http.Error(w, "something went wrong, contact with service administration", http.StatusBadGateway)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CSRFMiddleware hands out a csrftoken cookie on safe requests and
// requires it echoed in the X-CSRFToken header on everything else.
func (h *Handler) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(CSRFCookieName); err == nil {
			token = c.Value
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			if token == "" {
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    newCSRFToken(),
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(CSRFHeaderName)
		if token == "" || subtle.ConstantTimeCompare([]byte(header), []byte(token)) != 1 {
			h.logger.Warn("csrf check failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Bool("cookie", token != ""),
				zap.Bool("header", header != ""))
			h.writeJSON(w, http.StatusForbidden, models.InvoiceResponse{Success: false, Error: models.ErrForbidden.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newCSRFToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
