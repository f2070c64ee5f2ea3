package storage

import "time"

const (
	PartyTypePerson       = "person"
	PartyTypeOrganisation = "organisation"
)

type Party struct {
	PartyID     int64
	PartyType   string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Person struct {
	PartyID        int64
	FirstName      string
	LastName       string
	DateOfBirth    *time.Time
	Email          string
	PhonePrimary   string
	PhoneSecondary *string
}

func (p Person) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

type Organisation struct {
	PartyID            int64
	OrganisationName   string
	OrganisationType   string
	RegistrationNumber *string
	Email              string
	PhonePrimary       string
	PhoneSecondary     *string
}

type Address struct {
	AddressID    int64
	AddressLine1 string
	AddressLine2 *string
	City         string
	Region       *string
	PostalCode   string
	Country      string
	AddressType  string
}

type PartyAddress struct {
	PartyID   int64
	AddressID int64
}

type Relationship struct {
	RelationshipID   int64
	FromPartyID      int64
	ToPartyID        int64
	RelationshipType string
	StartDate        *time.Time
	EndDate          *time.Time
	Notes            *string
}

type ExternalIdentifier struct {
	ExternalIdentifierID int64
	PartyID              int64
	SystemName           string
	ExternalID           string
	LastSynced           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
