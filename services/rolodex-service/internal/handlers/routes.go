package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/rolodex/libs/auth"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Register mounts the API on mux. Everything except login and the OpenAPI
// document requires a bearer token; directory routes need the user role and
// outbox stats need admin.
func Register(mux *http.ServeMux, h *Handler, a *AuthHandler, verifier auth.Verifier) {
	authed := auth.RequireRoles(verifier)
	user := auth.RequireRoles(verifier, RoleUser)
	admin := auth.RequireRoles(verifier, RoleAdmin)

	handle := func(pattern string, mw func(http.Handler) http.Handler, fn http.HandlerFunc) {
		mux.Handle(pattern, mw(fn))
	}

	mux.HandleFunc("GET /openapi.yaml", OpenAPI)
	mux.HandleFunc("POST /auth/login", a.Login)
	handle("GET /auth/me", authed, a.Me)

	handle("GET /parties", user, h.ListParties)
	handle("GET /parties/{party_id}", user, h.GetParty)
	handle("GET /parties/{party_id}/addresses", user, h.ListPartyAddresses)
	handle("GET /parties/{party_id}/relationships", user, h.ListPartyRelationships)
	handle("GET /parties/{party_id}/external-identifiers", user, h.ListPartyExternalIdentifiers)

	handle("GET /persons", user, h.ListPersons)
	handle("POST /persons", user, h.CreatePerson)
	handle("GET /persons/{party_id}", user, h.GetPerson)
	handle("PUT /persons/{party_id}", user, h.UpdatePerson)
	handle("DELETE /persons/{party_id}", user, h.DeletePerson)

	handle("GET /organisations", user, h.ListOrganisations)
	handle("POST /organisations", user, h.CreateOrganisation)
	handle("GET /organisations/{party_id}", user, h.GetOrganisation)
	handle("PUT /organisations/{party_id}", user, h.UpdateOrganisation)
	handle("DELETE /organisations/{party_id}", user, h.DeleteOrganisation)

	handle("GET /addresses", user, h.ListAddresses)
	handle("POST /addresses", user, h.CreateAddress)
	handle("GET /addresses/{address_id}", user, h.GetAddress)
	handle("DELETE /addresses/{address_id}", user, h.DeleteAddress)
	handle("GET /addresses/{address_id}/parties", user, h.ListAddressParties)

	handle("GET /party-addresses", user, h.ListPartyAddressLinks)
	handle("POST /party-addresses", user, h.LinkPartyAddress)
	handle("DELETE /party-addresses", user, h.UnlinkPartyAddress)

	handle("GET /party-relationships", user, h.ListRelationships)
	handle("POST /party-relationships", user, h.CreateRelationship)
	handle("GET /party-relationships/{relationship_id}", user, h.GetRelationship)
	handle("DELETE /party-relationships/{relationship_id}", user, h.DeleteRelationship)

	handle("GET /external-identifiers", user, h.ListExternalIdentifiers)
	handle("POST /external-identifiers", user, h.CreateExternalIdentifier)
	handle("GET /external-identifiers/{external_identifier_id}", user, h.GetExternalIdentifier)
	handle("DELETE /external-identifiers/{external_identifier_id}", user, h.DeleteExternalIdentifier)

	handle("GET /outbox/stats", admin, h.OutboxStats)
}
