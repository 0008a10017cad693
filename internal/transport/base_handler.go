package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/i18n"
	"github.com/frahmantamala/campaign-portal/internal/notice"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
	View   *View
}

// NewBaseHandler creates a base handler with logger and an optional view
func NewBaseHandler(lg *slog.Logger, view *View) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg, View: view}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := map[string]interface{}{
		"code":    status,
		"message": message,
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// WriteAppError writes err as an AppError response, treating unknown errors as internal.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		appErr = internal.NewInternalError("internal server error", err)
	}
	status, body := appErr.ToHTTPResponse()
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed", "error", err)
	}
	h.WriteJSON(w, status, body)
}

// Render writes a full page or partial through the view.
func (h *BaseHandler) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if h.View == nil {
		h.WriteError(w, http.StatusInternalServerError, "no view configured")
		return
	}
	h.View.Render(w, r, status, name, data)
}

// T returns the translator negotiated for the request.
func (h *BaseHandler) T(r *http.Request) i18n.Translator {
	return h.View.Translator(r)
}

// Notify queues a localized notice for the current browser session.
func (h *BaseHandler) Notify(r *http.Request, severity notice.Severity, key string) {
	if h.View == nil || h.View.Notices == nil {
		return
	}
	msg := h.T(r).T(key)
	h.View.Notices.Show(internal.SessionIDFromContext(r.Context()), msg, severity)
}

// Redirect sends the browser to url. HTMX requests get an HX-Redirect header instead.
func (h *BaseHandler) Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// RenderError renders the error page matching err.
func (h *BaseHandler) RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	key := "common:alerts.error"

	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
		switch appErr.Type {
		case internal.ErrorTypeNotFound:
			key = "common:alerts.not-found"
		case internal.ErrorTypeForbidden:
			key = "common:alerts.forbidden"
		case internal.ErrorTypeExternal:
			status = http.StatusBadGateway
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Enrich(h.Logger, r.Context()).ErrorContext(r.Context(), "page failed", "error", err, "path", r.URL.Path)
	}
	h.Render(w, r, status, "error.html", map[string]string{"MessageKey": key})
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}
