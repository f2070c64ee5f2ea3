package handlers

import (
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/rolodex/libs/httpx"
)

func (h *Handler) ListExternalIdentifiers(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	ids, err := h.store.ListExternalIdentifiers(r.Context(), page)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	base := baseURL(r)
	out := make([]Resource, 0, len(ids))
	for _, e := range ids {
		out = append(out, Resource{Data: viewExternalIdentifier(e), Links: externalIdentifierLinks(base, e)})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetExternalIdentifier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "external_identifier_id")
	if !ok {
		return
	}
	e, err := h.store.GetExternalIdentifier(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "external identifier not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewExternalIdentifier(e), Links: externalIdentifierLinks(baseURL(r), e)})
}

func (h *Handler) CreateExternalIdentifier(w http.ResponseWriter, r *http.Request) {
	var req externalIdentifierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SystemName = strings.TrimSpace(req.SystemName)
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if !h.check(w, &req) {
		return
	}
	e, err := h.store.CreateExternalIdentifier(r.Context(), req.PartyID, req.SystemName, req.ExternalID)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, Resource{Data: viewExternalIdentifier(e), Links: externalIdentifierLinks(baseURL(r), e)})
}

func (h *Handler) DeleteExternalIdentifier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "external_identifier_id")
	if !ok {
		return
	}
	e, err := h.store.DeleteExternalIdentifier(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "external identifier not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewExternalIdentifier(e), Links: externalIdentifierLinks(baseURL(r), e)})
}
