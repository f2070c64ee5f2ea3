package handlers

import (
	"strings"
	"time"

	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/storage"
)

const dateLayout = "2006-01-02"

type partyView struct {
	PartyID     int64     `json:"party_id"`
	PartyType   string    `json:"party_type"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func viewParty(p storage.Party) partyView {
	return partyView{p.PartyID, p.PartyType, p.DisplayName, p.CreatedAt, p.UpdatedAt}
}

type personRequest struct {
	FirstName      string  `json:"first_name" validate:"required,max=50"`
	LastName       string  `json:"last_name" validate:"required,max=50"`
	DateOfBirth    *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Email          string  `json:"email" validate:"required,email,max=100"`
	PhonePrimary   string  `json:"phone_primary" validate:"required,max=20"`
	PhoneSecondary *string `json:"phone_secondary" validate:"omitempty,max=20"`
}

func (p *personRequest) normalize() {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	p.PhonePrimary = strings.TrimSpace(p.PhonePrimary)
	p.PhoneSecondary = trimOptional(p.PhoneSecondary)
	p.DateOfBirth = trimOptional(p.DateOfBirth)
}

func (p personRequest) model() storage.Person {
	return storage.Person{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		DateOfBirth:    parseDate(p.DateOfBirth),
		Email:          p.Email,
		PhonePrimary:   p.PhonePrimary,
		PhoneSecondary: p.PhoneSecondary,
	}
}

type personView struct {
	PartyID        int64   `json:"party_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	DateOfBirth    *string `json:"date_of_birth"`
	Email          string  `json:"email"`
	PhonePrimary   string  `json:"phone_primary"`
	PhoneSecondary *string `json:"phone_secondary"`
}

func viewPerson(p storage.Person) personView {
	return personView{
		PartyID:        p.PartyID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		DateOfBirth:    formatDate(p.DateOfBirth),
		Email:          p.Email,
		PhonePrimary:   p.PhonePrimary,
		PhoneSecondary: p.PhoneSecondary,
	}
}

type organisationRequest struct {
	OrganisationName   string  `json:"organisation_name" validate:"required,max=100"`
	OrganisationType   string  `json:"organisation_type" validate:"required,max=50"`
	RegistrationNumber *string `json:"registration_number" validate:"omitempty,max=50"`
	Email              string  `json:"email" validate:"required,email,max=100"`
	PhonePrimary       string  `json:"phone_primary" validate:"required,max=20"`
	PhoneSecondary     *string `json:"phone_secondary" validate:"omitempty,max=20"`
}

func (o *organisationRequest) normalize() {
	o.OrganisationName = strings.TrimSpace(o.OrganisationName)
	o.OrganisationType = strings.TrimSpace(o.OrganisationType)
	o.RegistrationNumber = trimOptional(o.RegistrationNumber)
	o.Email = strings.TrimSpace(o.Email)
	o.PhonePrimary = strings.TrimSpace(o.PhonePrimary)
	o.PhoneSecondary = trimOptional(o.PhoneSecondary)
}

func (o organisationRequest) model() storage.Organisation {
	return storage.Organisation{
		OrganisationName:   o.OrganisationName,
		OrganisationType:   o.OrganisationType,
		RegistrationNumber: o.RegistrationNumber,
		Email:              o.Email,
		PhonePrimary:       o.PhonePrimary,
		PhoneSecondary:     o.PhoneSecondary,
	}
}

type organisationView struct {
	PartyID            int64   `json:"party_id"`
	OrganisationName   string  `json:"organisation_name"`
	OrganisationType   string  `json:"organisation_type"`
	RegistrationNumber *string `json:"registration_number"`
	Email              string  `json:"email"`
	PhonePrimary       string  `json:"phone_primary"`
	PhoneSecondary     *string `json:"phone_secondary"`
}

func viewOrganisation(o storage.Organisation) organisationView {
	return organisationView{o.PartyID, o.OrganisationName, o.OrganisationType, o.RegistrationNumber, o.Email, o.PhonePrimary, o.PhoneSecondary}
}

type addressRequest struct {
	AddressLine1 string  `json:"address_line_1" validate:"required,max=100"`
	AddressLine2 *string `json:"address_line_2" validate:"omitempty,max=100"`
	City         string  `json:"city" validate:"required,max=50"`
	Region       *string `json:"region" validate:"omitempty,max=50"`
	PostalCode   string  `json:"postal_code" validate:"required,max=20"`
	Country      string  `json:"country" validate:"required,max=50"`
	AddressType  string  `json:"address_type" validate:"required,max=20"`
}

func (a addressRequest) model() storage.Address {
	return storage.Address{
		AddressLine1: strings.TrimSpace(a.AddressLine1),
		AddressLine2: trimOptional(a.AddressLine2),
		City:         strings.TrimSpace(a.City),
		Region:       trimOptional(a.Region),
		PostalCode:   strings.TrimSpace(a.PostalCode),
		Country:      strings.TrimSpace(a.Country),
		AddressType:  strings.TrimSpace(a.AddressType),
	}
}

type addressView struct {
	AddressID    int64   `json:"address_id"`
	AddressLine1 string  `json:"address_line_1"`
	AddressLine2 *string `json:"address_line_2"`
	City         string  `json:"city"`
	Region       *string `json:"region"`
	PostalCode   string  `json:"postal_code"`
	Country      string  `json:"country"`
	AddressType  string  `json:"address_type"`
}

func viewAddress(a storage.Address) addressView {
	return addressView{a.AddressID, a.AddressLine1, a.AddressLine2, a.City, a.Region, a.PostalCode, a.Country, a.AddressType}
}

type partyAddressRequest struct {
	PartyID   int64 `json:"party_id" validate:"required,gt=0"`
	AddressID int64 `json:"address_id" validate:"required,gt=0"`
}

type partyAddressView struct {
	PartyID   int64 `json:"party_id"`
	AddressID int64 `json:"address_id"`
}

type relationshipRequest struct {
	FromPartyID      int64   `json:"from_party_id" validate:"required,gt=0"`
	ToPartyID        int64   `json:"to_party_id" validate:"required,gt=0,nefield=FromPartyID"`
	RelationshipType string  `json:"relationship_type" validate:"required,max=50"`
	StartDate        *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate          *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Notes            *string `json:"notes" validate:"omitempty,max=250"`
}

func (rr relationshipRequest) model() storage.Relationship {
	return storage.Relationship{
		FromPartyID:      rr.FromPartyID,
		ToPartyID:        rr.ToPartyID,
		RelationshipType: strings.TrimSpace(rr.RelationshipType),
		StartDate:        parseDate(rr.StartDate),
		EndDate:          parseDate(rr.EndDate),
		Notes:            trimOptional(rr.Notes),
	}
}

type relationshipView struct {
	RelationshipID   int64   `json:"relationship_id"`
	FromPartyID      int64   `json:"from_party_id"`
	ToPartyID        int64   `json:"to_party_id"`
	RelationshipType string  `json:"relationship_type"`
	StartDate        *string `json:"start_date"`
	EndDate          *string `json:"end_date"`
	Notes            *string `json:"notes"`
}

func viewRelationship(rel storage.Relationship) relationshipView {
	return relationshipView{
		RelationshipID:   rel.RelationshipID,
		FromPartyID:      rel.FromPartyID,
		ToPartyID:        rel.ToPartyID,
		RelationshipType: rel.RelationshipType,
		StartDate:        formatDate(rel.StartDate),
		EndDate:          formatDate(rel.EndDate),
		Notes:            rel.Notes,
	}
}

type externalIdentifierRequest struct {
	PartyID    int64  `json:"party_id" validate:"required,gt=0"`
	SystemName string `json:"system_name" validate:"required,max=100"`
	ExternalID string `json:"external_id" validate:"required,max=255"`
}

type externalIdentifierView struct {
	ExternalIdentifierID int64      `json:"external_identifier_id"`
	PartyID              int64      `json:"party_id"`
	SystemName           string     `json:"system_name"`
	ExternalID           string     `json:"external_id"`
	LastSynced           *time.Time `json:"last_synced"`
	CreatedAt            time.Time  `json:"created_at"`
}

func viewExternalIdentifier(e storage.ExternalIdentifier) externalIdentifierView {
	return externalIdentifierView{e.ExternalIdentifierID, e.PartyID, e.SystemName, e.ExternalID, e.LastSynced, e.CreatedAt}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// parseDate expects a value already validated against dateLayout.
func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
