package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/rolodex/libs/httpx"
)

func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	persons, err := h.store.ListPersons(r.Context(), page)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	base := baseURL(r)
	out := make([]Resource, 0, len(persons))
	for _, p := range persons {
		out = append(out, Resource{Data: viewPerson(p), Links: subtypeLinks(base, "persons", p.PartyID)})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	p, err := h.store.GetPerson(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "person not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewPerson(p), Links: subtypeLinks(baseURL(r), "persons", p.PartyID)})
}

func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.normalize()
	if !h.check(w, &req) {
		return
	}
	p, err := h.store.CreatePerson(r.Context(), req.model())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, Resource{Data: viewPerson(p), Links: subtypeLinks(baseURL(r), "persons", p.PartyID)})
}

func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	var req personRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.normalize()
	if !h.check(w, &req) {
		return
	}
	p, err := h.store.UpdatePerson(r.Context(), id, req.model())
	if err != nil {
		h.fail(w, r, err, "person not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewPerson(p), Links: subtypeLinks(baseURL(r), "persons", p.PartyID)})
}

func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	if err := h.store.DeletePerson(r.Context(), id); err != nil {
		h.fail(w, r, err, "person not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
