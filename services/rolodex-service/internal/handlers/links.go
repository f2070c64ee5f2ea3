package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/storage"
)

type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Resource is the hypermedia envelope every entity is returned in.
type Resource struct {
	Data  any    `json:"data"`
	Links []Link `json:"links"`
}

// baseURL is the absolute origin the request was made against, honouring
// proxy forwarding headers.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ = strings.Cut(proto, ",")
		scheme = strings.TrimSpace(scheme)
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host, _, _ = strings.Cut(fwd, ",")
		host = strings.TrimSpace(host)
	}
	return scheme + "://" + host
}

func partyLinks(base string, p storage.Party) []Link {
	links := []Link{
		{"self", fmt.Sprintf("%s/parties/%d", base, p.PartyID)},
		{"addresses", fmt.Sprintf("%s/parties/%d/addresses", base, p.PartyID)},
		{"relationships", fmt.Sprintf("%s/parties/%d/relationships", base, p.PartyID)},
		{"external-identifiers", fmt.Sprintf("%s/parties/%d/external-identifiers", base, p.PartyID)},
	}
	switch p.PartyType {
	case storage.PartyTypePerson:
		links = append(links, Link{"person", fmt.Sprintf("%s/persons/%d", base, p.PartyID)})
	case storage.PartyTypeOrganisation:
		links = append(links, Link{"organisation", fmt.Sprintf("%s/organisations/%d", base, p.PartyID)})
	}
	return links
}

// subtypeLinks serves persons and organisations; kind is the collection
// path segment.
func subtypeLinks(base, kind string, partyID int64) []Link {
	return []Link{
		{"self", fmt.Sprintf("%s/%s/%d", base, kind, partyID)},
		{"party", fmt.Sprintf("%s/parties/%d", base, partyID)},
		{"addresses", fmt.Sprintf("%s/parties/%d/addresses", base, partyID)},
		{"relationships", fmt.Sprintf("%s/parties/%d/relationships", base, partyID)},
		{"external-identifiers", fmt.Sprintf("%s/parties/%d/external-identifiers", base, partyID)},
	}
}

func addressLinks(base string, addressID int64) []Link {
	return []Link{
		{"self", fmt.Sprintf("%s/addresses/%d", base, addressID)},
		{"parties", fmt.Sprintf("%s/addresses/%d/parties", base, addressID)},
	}
}

func partyAddressLinks(base string, pa storage.PartyAddress) []Link {
	return []Link{
		{"self", fmt.Sprintf("%s/party-addresses?party_id=%d&address_id=%d", base, pa.PartyID, pa.AddressID)},
		{"party", fmt.Sprintf("%s/parties/%d", base, pa.PartyID)},
		{"address", fmt.Sprintf("%s/addresses/%d", base, pa.AddressID)},
	}
}

func relationshipLinks(base string, rel storage.Relationship) []Link {
	return []Link{
		{"self", fmt.Sprintf("%s/party-relationships/%d", base, rel.RelationshipID)},
		{"from_party", fmt.Sprintf("%s/parties/%d", base, rel.FromPartyID)},
		{"to_party", fmt.Sprintf("%s/parties/%d", base, rel.ToPartyID)},
	}
}

func externalIdentifierLinks(base string, e storage.ExternalIdentifier) []Link {
	return []Link{
		{"self", fmt.Sprintf("%s/external-identifiers/%d", base, e.ExternalIdentifierID)},
		{"party", fmt.Sprintf("%s/parties/%d", base, e.PartyID)},
	}
}

// collectionLinks are the links on a party or address sub-collection.
func collectionLinks(self, ownerRel, owner string) []Link {
	return []Link{{"self", self}, {ownerRel, owner}}
}
