package handlers

import (
	"fmt"
	"net/http"

	"github.com/md-rashed-zaman/rolodex/libs/httpx"
)

func (h *Handler) ListParties(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	parties, err := h.store.ListParties(r.Context(), page)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	base := baseURL(r)
	out := make([]Resource, 0, len(parties))
	for _, p := range parties {
		out = append(out, Resource{Data: viewParty(p), Links: partyLinks(base, p)})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetParty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	p, err := h.store.GetParty(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "party not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewParty(p), Links: partyLinks(baseURL(r), p)})
}

func (h *Handler) ListPartyAddresses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	addresses, err := h.store.ListPartyAddresses(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "party not found")
		return
	}
	if len(addresses) == 0 {
		http.Error(w, "no addresses found for this party", http.StatusNotFound)
		return
	}
	base := baseURL(r)
	party := fmt.Sprintf("%s/parties/%d", base, id)
	items := make([]Resource, 0, len(addresses))
	for _, a := range addresses {
		items = append(items, Resource{
			Data:  viewAddress(a),
			Links: []Link{{"self", fmt.Sprintf("%s/addresses/%d", base, a.AddressID)}, {"party", party}},
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"party_id":  id,
		"addresses": items,
		"links":     collectionLinks(party+"/addresses", "party", party),
	})
}

func (h *Handler) ListPartyRelationships(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	rels, err := h.store.ListPartyRelationships(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "party not found")
		return
	}
	if len(rels) == 0 {
		http.Error(w, "no relationships found for this party", http.StatusNotFound)
		return
	}
	base := baseURL(r)
	party := fmt.Sprintf("%s/parties/%d", base, id)
	items := make([]Resource, 0, len(rels))
	for _, rel := range rels {
		items = append(items, Resource{Data: viewRelationship(rel), Links: relationshipLinks(base, rel)})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"party_id":      id,
		"relationships": items,
		"links":         collectionLinks(party+"/relationships", "party", party),
	})
}

func (h *Handler) ListPartyExternalIdentifiers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "party_id")
	if !ok {
		return
	}
	ids, err := h.store.ListPartyExternalIdentifiers(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "party not found")
		return
	}
	if len(ids) == 0 {
		http.Error(w, "no external identifiers found for this party", http.StatusNotFound)
		return
	}
	base := baseURL(r)
	party := fmt.Sprintf("%s/parties/%d", base, id)
	items := make([]Resource, 0, len(ids))
	for _, e := range ids {
		items = append(items, Resource{Data: viewExternalIdentifier(e), Links: externalIdentifierLinks(base, e)})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"party_id":             id,
		"external_identifiers": items,
		"links":                collectionLinks(party+"/external-identifiers", "party", party),
	})
}
