package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/md-rashed-zaman/rolodex/libs/httpx"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/storage"
)

func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	addresses, err := h.store.ListAddresses(r.Context(), page)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	base := baseURL(r)
	out := make([]Resource, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, Resource{Data: viewAddress(a), Links: addressLinks(base, a.AddressID)})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "address_id")
	if !ok {
		return
	}
	a, err := h.store.GetAddress(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "address not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, Resource{Data: viewAddress(a), Links: addressLinks(baseURL(r), a.AddressID)})
}

func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.store.CreateAddress(r.Context(), req.model())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, Resource{Data: viewAddress(a), Links: addressLinks(baseURL(r), a.AddressID)})
}

func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "address_id")
	if !ok {
		return
	}
	if err := h.store.DeleteAddress(r.Context(), id); err != nil {
		h.fail(w, r, err, "address not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"detail": "address deleted"})
}

func (h *Handler) ListAddressParties(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "address_id")
	if !ok {
		return
	}
	parties, err := h.store.ListAddressParties(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "address not found")
		return
	}
	if len(parties) == 0 {
		http.Error(w, "no parties found for this address", http.StatusNotFound)
		return
	}
	base := baseURL(r)
	address := fmt.Sprintf("%s/addresses/%d", base, id)
	items := make([]Resource, 0, len(parties))
	for _, p := range parties {
		items = append(items, Resource{
			Data:  viewParty(p),
			Links: []Link{{"self", fmt.Sprintf("%s/parties/%d", base, p.PartyID)}, {"address", address}},
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"address_id": id,
		"parties":    items,
		"links":      collectionLinks(address+"/parties", "address", address),
	})
}

// ListPartyAddressLinks lists links, or returns the single link when both
// party_id and address_id are given.
func (h *Handler) ListPartyAddressLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("party_id") && q.Has("address_id") {
		req, ok := partyAddressFromQuery(w, r)
		if !ok {
			return
		}
		pa, err := h.store.GetPartyAddressLink(r.Context(), req.PartyID, req.AddressID)
		if err != nil {
			h.fail(w, r, err, "party address not found")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, partyAddressResource(baseURL(r), pa))
		return
	}

	page, ok := pageFrom(w, r)
	if !ok {
		return
	}
	links, err := h.store.ListPartyAddressLinks(r.Context(), page)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	base := baseURL(r)
	out := make([]Resource, 0, len(links))
	for _, pa := range links {
		out = append(out, partyAddressResource(base, pa))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) LinkPartyAddress(w http.ResponseWriter, r *http.Request) {
	var req partyAddressRequest
	if !h.decode(w, r, &req) {
		return
	}
	pa, err := h.store.LinkPartyAddress(r.Context(), req.PartyID, req.AddressID)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, partyAddressResource(baseURL(r), pa))
}

// UnlinkPartyAddress takes the pair from the query string or a JSON body.
func (h *Handler) UnlinkPartyAddress(w http.ResponseWriter, r *http.Request) {
	var req partyAddressRequest
	if r.URL.Query().Has("party_id") {
		var ok bool
		if req, ok = partyAddressFromQuery(w, r); !ok {
			return
		}
	} else if !h.decode(w, r, &req) {
		return
	}
	if err := h.store.UnlinkPartyAddress(r.Context(), req.PartyID, req.AddressID); err != nil {
		h.fail(w, r, err, "party address not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, partyAddressResource(baseURL(r), storage.PartyAddress{PartyID: req.PartyID, AddressID: req.AddressID}))
}

func partyAddressFromQuery(w http.ResponseWriter, r *http.Request) (partyAddressRequest, bool) {
	q := r.URL.Query()
	partyID, err1 := strconv.ParseInt(q.Get("party_id"), 10, 64)
	addressID, err2 := strconv.ParseInt(q.Get("address_id"), 10, 64)
	if err1 != nil || err2 != nil || partyID <= 0 || addressID <= 0 {
		http.Error(w, "invalid party_id or address_id", http.StatusBadRequest)
		return partyAddressRequest{}, false
	}
	return partyAddressRequest{PartyID: partyID, AddressID: addressID}, true
}

func partyAddressResource(base string, pa storage.PartyAddress) Resource {
	return Resource{
		Data:  partyAddressView{PartyID: pa.PartyID, AddressID: pa.AddressID},
		Links: partyAddressLinks(base, pa),
	}
}
