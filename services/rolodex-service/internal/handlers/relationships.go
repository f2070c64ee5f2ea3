package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/rolodex/libs/httpx"
)

func (h *Handler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	rels, err := h.store.ListRelationships(r.Context(), page)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	base := baseURL(r)
	out := make([]Resource, 0, len(rels))
	for _, rel := range rels {
		out = append(out, Resource{Data: viewRelationship(rel), Links: relationshipLinks(base, rel)})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "relationship_id")
	if !ok {
		return
	}
	rel, err := h.store.GetRelationship(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "party relationship not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewRelationship(rel), Links: relationshipLinks(baseURL(r), rel)})
}

func (h *Handler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := req.model()
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		http.Error(w, "end_date before start_date", http.StatusUnprocessableEntity)
		return
	}
	rel, err := h.store.CreateRelationship(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, Resource{Data: viewRelationship(rel), Links: relationshipLinks(baseURL(r), rel)})
}

func (h *Handler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "relationship_id")
	if !ok {
		return
	}
	rel, err := h.store.DeleteRelationship(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "party relationship not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewRelationship(rel), Links: relationshipLinks(baseURL(r), rel)})
}
