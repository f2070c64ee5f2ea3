package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const relationshipColumns = `relationship_id, from_party_id, to_party_id, relationship_type, start_date, end_date, notes`

func scanRelationship(row pgx.Row, rel *Relationship) error {
	return row.Scan(&rel.RelationshipID, &rel.FromPartyID, &rel.ToPartyID, &rel.RelationshipType, &rel.StartDate, &rel.EndDate, &rel.Notes)
}

func (r *Repository) ListRelationships(ctx context.Context, page Page) ([]Relationship, error) {
	page = page.normalize()
	rows, err := r.pool.Query(ctx, `
		SELECT `+relationshipColumns+`
		FROM party_relationships
		ORDER BY relationship_id
		OFFSET $1 LIMIT $2
	`, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, rel *Relationship) error { return scanRelationship(rows, rel) })
}

func (r *Repository) GetRelationship(ctx context.Context, id int64) (Relationship, error) {
	var rel Relationship
	err := scanRelationship(r.pool.QueryRow(ctx, `
		SELECT `+relationshipColumns+`
		FROM party_relationships
		WHERE relationship_id = $1
	`, id), &rel)
	return rel, classify(err)
}

func (r *Repository) CreateRelationship(ctx context.Context, in Relationship) (Relationship, error) {
	var rel Relationship
	err := scanRelationship(r.pool.QueryRow(ctx, `
		INSERT INTO party_relationships (from_party_id, to_party_id, relationship_type, start_date, end_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+relationshipColumns+`
	`, in.FromPartyID, in.ToPartyID, in.RelationshipType, in.StartDate, in.EndDate, in.Notes), &rel)
	return rel, classify(err)
}

// DeleteRelationship returns the removed row.
func (r *Repository) DeleteRelationship(ctx context.Context, id int64) (Relationship, error) {
	var rel Relationship
	err := scanRelationship(r.pool.QueryRow(ctx, `
		DELETE FROM party_relationships
		WHERE relationship_id = $1
		RETURNING `+relationshipColumns+`
	`, id), &rel)
	return rel, classify(err)
}
