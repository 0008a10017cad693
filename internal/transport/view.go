package transport

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/i18n"
	"github.com/frahmantamala/campaign-portal/internal/notice"
)

// View renders the embedded HTML templates with the request's locale,
// signed-in user and pending notices.
type View struct {
	templates *template.Template
	Bundle    *i18n.Bundle
	Notices   *notice.Queue
	logger    *slog.Logger
}

// PageData wraps handler data with what every template needs.
type PageData struct {
	Data    any
	T       i18n.Translator
	Locale  string
	User    *internal.Principal
	Notices []notice.Notice
	Path    string
}

func NewView(templates fs.FS, bundle *i18n.Bundle, notices *notice.Queue, logger *slog.Logger) (*View, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"percent": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		// withData hands a nested template the page with other data.
		"withData": func(p PageData, data any) PageData {
			p.Data = data
			return p
		},
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &View{templates: t, Bundle: bundle, Notices: notices, logger: logger}, nil
}

func (v *View) Translator(r *http.Request) i18n.Translator {
	return v.Bundle.Negotiate(r)
}

// Render executes the named template. HTMX requests receive the newest
// pending notice as an HX-Trigger header; full pages render all of them.
func (v *View) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tr := v.Translator(r)
	user, _ := internal.PrincipalFromContext(r.Context())
	page := PageData{
		Data:   data,
		T:      tr,
		Locale: tr.Locale(),
		User:   user,
		Path:   r.URL.Path,
	}

	var pending []notice.Notice
	if v.Notices != nil {
		pending = v.Notices.Pending(internal.SessionIDFromContext(r.Context()))
	}
	if r.Header.Get("HX-Request") == "true" {
		if len(pending) > 0 {
			w.Header().Set("HX-Trigger", notice.Trigger(pending[len(pending)-1]))
		}
	} else {
		page.Notices = pending
	}

	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, page); err != nil {
		v.logger.ErrorContext(r.Context(), "template render failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		v.logger.Warn("failed to write page", "template", name, "error", err)
	}
}
