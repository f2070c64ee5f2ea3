package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const (
	addressColumns          = `address_id, address_line_1, address_line_2, city, region, postal_code, country, address_type`
	qualifiedAddressColumns = `a.address_id, a.address_line_1, a.address_line_2, a.city, a.region, a.postal_code, a.country, a.address_type`
)

func scanAddress(row pgx.Row, a *Address) error {
	return row.Scan(&a.AddressID, &a.AddressLine1, &a.AddressLine2, &a.City, &a.Region, &a.PostalCode, &a.Country, &a.AddressType)
}

func (r *Repository) ListAddresses(ctx context.Context, page Page) ([]Address, error) {
	page = page.normalize()
	rows, err := r.pool.Query(ctx, `
		SELECT `+addressColumns+`
		FROM addresses
		ORDER BY address_id
		OFFSET $1 LIMIT $2
	`, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, a *Address) error { return scanAddress(rows, a) })
}

func (r *Repository) GetAddress(ctx context.Context, addressID int64) (Address, error) {
	var a Address
	err := scanAddress(r.pool.QueryRow(ctx, `
		SELECT `+addressColumns+`
		FROM addresses
		WHERE address_id = $1
	`, addressID), &a)
	return a, classify(err)
}

func (r *Repository) CreateAddress(ctx context.Context, in Address) (Address, error) {
	var a Address
	err := scanAddress(r.pool.QueryRow(ctx, `
		INSERT INTO addresses (address_line_1, address_line_2, city, region, postal_code, country, address_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+addressColumns+`
	`, in.AddressLine1, in.AddressLine2, in.City, in.Region, in.PostalCode, in.Country, in.AddressType), &a)
	return a, classify(err)
}

func (r *Repository) DeleteAddress(ctx context.Context, addressID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE address_id = $1`, addressID)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAddressParties returns ErrNotFound when the address does not exist.
func (r *Repository) ListAddressParties(ctx context.Context, addressID int64) ([]Party, error) {
	if _, err := r.GetAddress(ctx, addressID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.party_id, p.party_type, p.display_name, p.created_at, p.updated_at
		FROM parties p
		JOIN party_addresses pa ON pa.party_id = p.party_id
		WHERE pa.address_id = $1
		ORDER BY p.party_id
	`, addressID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, p *Party) error { return scanParty(rows, p) })
}

func (r *Repository) ListPartyAddressLinks(ctx context.Context, page Page) ([]PartyAddress, error) {
	page = page.normalize()
	rows, err := r.pool.Query(ctx, `
		SELECT party_id, address_id
		FROM party_addresses
		ORDER BY party_id, address_id
		OFFSET $1 LIMIT $2
	`, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, pa *PartyAddress) error { return rows.Scan(&pa.PartyID, &pa.AddressID) })
}

func (r *Repository) GetPartyAddressLink(ctx context.Context, partyID, addressID int64) (PartyAddress, error) {
	var pa PartyAddress
	err := r.pool.QueryRow(ctx, `
		SELECT party_id, address_id
		FROM party_addresses
		WHERE party_id = $1 AND address_id = $2
	`, partyID, addressID).Scan(&pa.PartyID, &pa.AddressID)
	return pa, classify(err)
}

// LinkPartyAddress fails with ErrConflict for an existing link and
// ErrUnknownReference when either side is missing.
func (r *Repository) LinkPartyAddress(ctx context.Context, partyID, addressID int64) (PartyAddress, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO party_addresses (party_id, address_id)
		VALUES ($1, $2)
	`, partyID, addressID)
	if err != nil {
		return PartyAddress{}, classify(err)
	}
	return PartyAddress{PartyID: partyID, AddressID: addressID}, nil
}

func (r *Repository) UnlinkPartyAddress(ctx context.Context, partyID, addressID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM party_addresses
		WHERE party_id = $1 AND address_id = $2
	`, partyID, addressID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
