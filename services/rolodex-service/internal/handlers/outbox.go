package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/rolodex/libs/httpx"
)

func (h *Handler) OutboxStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.outbox.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}
