package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/rolodex/libs/httpx"
)

func (h *Handler) ListOrganisations(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	orgs, err := h.store.ListOrganisations(r.Context(), page)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	base := baseURL(r)
	out := make([]Resource, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, Resource{Data: viewOrganisation(o), Links: subtypeLinks(base, "organisations", o.PartyID)})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetOrganisation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	o, err := h.store.GetOrganisation(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "organisation not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewOrganisation(o), Links: subtypeLinks(baseURL(r), "organisations", o.PartyID)})
}

func (h *Handler) CreateOrganisation(w http.ResponseWriter, r *http.Request) {
	var req organisationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.normalize()
	if !h.check(w, &req) {
		return
	}
	o, err := h.store.CreateOrganisation(r.Context(), req.model())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, Resource{Data: viewOrganisation(o), Links: subtypeLinks(baseURL(r), "organisations", o.PartyID)})
}

func (h *Handler) UpdateOrganisation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	var req organisationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.normalize()
	if !h.check(w, &req) {
		return
	}
	o, err := h.store.UpdateOrganisation(r.Context(), id, req.model())
	if err != nil {
		h.fail(w, r, err, "organisation not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewOrganisation(o), Links: subtypeLinks(baseURL(r), "organisations", o.PartyID)})
}

func (h *Handler) DeleteOrganisation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	if err := h.store.DeleteOrganisation(r.Context(), id); err != nil {
		h.fail(w, r, err, "organisation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
