package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const partyColumns = `party_id, party_type, display_name, created_at, updated_at`

func scanParty(row pgx.Row, p *Party) error {
	return row.Scan(&p.PartyID, &p.PartyType, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt)
}

func (r *Repository) ListParties(ctx context.Context, page Page) ([]Party, error) {
	page = page.normalize()
	rows, err := r.pool.Query(ctx, `
		SELECT `+partyColumns+`
		FROM parties
		ORDER BY party_id
		OFFSET $1 LIMIT $2
	`, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, p *Party) error { return scanParty(rows, p) })
}

func (r *Repository) GetParty(ctx context.Context, partyID int64) (Party, error) {
	var p Party
	err := scanParty(r.pool.QueryRow(ctx, `
		SELECT `+partyColumns+`
		FROM parties
		WHERE party_id = $1
	`, partyID), &p)
	return p, classify(err)
}

// ListPartyAddresses returns ErrNotFound when the party does not exist.
func (r *Repository) ListPartyAddresses(ctx context.Context, partyID int64) ([]Address, error) {
	if _, err := r.GetParty(ctx, partyID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+qualifiedAddressColumns+`
		FROM addresses a
		JOIN party_addresses pa ON pa.address_id = a.address_id
		WHERE pa.party_id = $1
		ORDER BY a.address_id
	`, partyID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, a *Address) error { return scanAddress(rows, a) })
}

// ListPartyRelationships returns relationships in either direction.
func (r *Repository) ListPartyRelationships(ctx context.Context, partyID int64) ([]Relationship, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+relationshipColumns+`
		FROM party_relationships
		WHERE from_party_id = $1 OR to_party_id = $1
		ORDER BY relationship_id
	`, partyID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, rel *Relationship) error { return scanRelationship(rows, rel) })
}

// ListPartyExternalIdentifiers returns ErrNotFound when the party does not
// exist.
func (r *Repository) ListPartyExternalIdentifiers(ctx context.Context, partyID int64) ([]ExternalIdentifier, error) {
	if _, err := r.GetParty(ctx, partyID); err != nil {
		return nil, err
	}
	return listExternalIdentifiersByParty(ctx, r.pool, partyID)
}

func insertParty(ctx context.Context, q querier, partyType, displayName string) (Party, error) {
	var p Party
	err := scanParty(q.QueryRow(ctx, `
		INSERT INTO parties (party_type, display_name)
		VALUES ($1, $2)
		RETURNING `+partyColumns+`
	`, partyType, displayName), &p)
	return p, err
}

func renameParty(ctx context.Context, q querier, partyID int64, displayName string) error {
	_, err := q.Exec(ctx, `
		UPDATE parties
		SET display_name = $2, updated_at = now()
		WHERE party_id = $1
	`, partyID, displayName)
	return err
}

func deleteParty(ctx context.Context, q querier, partyID int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM parties WHERE party_id = $1`, partyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
