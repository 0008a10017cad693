package rest

import (
	"net/http"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/frahmantamala/campaign-portal/internal/notice"
	"github.com/go-chi/chi"
)

type noticeHandler struct {
	queue *notice.Queue
}

// dismiss drops a notice the user closed before it expired.
func (h *noticeHandler) dismiss(w http.ResponseWriter, r *http.Request) {
	h.queue.Dismiss(internal.SessionIDFromContext(r.Context()), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusOK)
}
