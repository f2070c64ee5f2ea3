package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/rolodex/libs/redisx"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/outbox"
)

const externalIdentifierColumns = `external_identifier_id, party_id, system_name, external_id, last_synced, created_at, updated_at`

func scanExternalIdentifier(row pgx.Row, e *ExternalIdentifier) error {
	return row.Scan(&e.ExternalIdentifierID, &e.PartyID, &e.SystemName, &e.ExternalID, &e.LastSynced, &e.CreatedAt, &e.UpdatedAt)
}

func (r *Repository) ListExternalIdentifiers(ctx context.Context, page Page) ([]ExternalIdentifier, error) {
	page = page.normalize()
	rows, err := r.pool.Query(ctx, `
		SELECT `+externalIdentifierColumns+`
		FROM external_identifiers
		ORDER BY external_identifier_id
		OFFSET $1 LIMIT $2
	`, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, e *ExternalIdentifier) error { return scanExternalIdentifier(rows, e) })
}

func (r *Repository) GetExternalIdentifier(ctx context.Context, id int64) (ExternalIdentifier, error) {
	var e ExternalIdentifier
	err := scanExternalIdentifier(r.pool.QueryRow(ctx, `
		SELECT `+externalIdentifierColumns+`
		FROM external_identifiers
		WHERE external_identifier_id = $1
	`, id), &e)
	return e, classify(err)
}

// CreateExternalIdentifier fails with ErrConflict when the party already has
// an identifier for the system.
func (r *Repository) CreateExternalIdentifier(ctx context.Context, partyID int64, systemName, externalID string) (ExternalIdentifier, error) {
	var e ExternalIdentifier
	err := scanExternalIdentifier(r.pool.QueryRow(ctx, `
		INSERT INTO external_identifiers (party_id, system_name, external_id)
		VALUES ($1, $2, $3)
		RETURNING `+externalIdentifierColumns+`
	`, partyID, systemName, externalID), &e)
	return e, classify(err)
}

func (r *Repository) DeleteExternalIdentifier(ctx context.Context, id int64) (ExternalIdentifier, error) {
	var e ExternalIdentifier
	err := scanExternalIdentifier(r.pool.QueryRow(ctx, `
		DELETE FROM external_identifiers
		WHERE external_identifier_id = $1
		RETURNING `+externalIdentifierColumns+`
	`, id), &e)
	return e, classify(err)
}

// UpsertExternalIdentifier sets the identifier for (party, system) from the
// stream entry source, creating the row on first sight. Repeating an entry
// only refreshes the sync timestamps. An entry older than the one last
// applied to the row changes nothing and reports applied=false.
func (r *Repository) UpsertExternalIdentifier(ctx context.Context, partyID int64, systemName, externalID string, source redisx.StreamID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO external_identifiers (party_id, system_name, external_id, last_synced, source_entry_ms, source_entry_seq)
		VALUES ($1, $2, $3, now(), $4, $5)
		ON CONFLICT (party_id, system_name) DO UPDATE
		SET external_id = EXCLUDED.external_id,
			last_synced = now(),
			updated_at = now(),
			source_entry_ms = EXCLUDED.source_entry_ms,
			source_entry_seq = EXCLUDED.source_entry_seq
		WHERE external_identifiers.source_entry_ms IS NULL
			OR (external_identifiers.source_entry_ms, external_identifiers.source_entry_seq)
				<= (EXCLUDED.source_entry_ms, EXCLUDED.source_entry_seq)
	`, partyID, systemName, externalID, source.Millis, source.Seq)
	if err != nil {
		return false, classify(err)
	}
	return tag.RowsAffected() > 0, nil
}

func listExternalIdentifiersByParty(ctx context.Context, q querier, partyID int64) ([]ExternalIdentifier, error) {
	rows, err := q.Query(ctx, `
		SELECT `+externalIdentifierColumns+`
		FROM external_identifiers
		WHERE party_id = $1
		ORDER BY system_name
	`, partyID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, e *ExternalIdentifier) error { return scanExternalIdentifier(rows, e) })
}

// identifierSnapshot is the external identifier view carried on update and
// delete events.
func identifierSnapshot(ctx context.Context, q querier, partyID int64) ([]outbox.IdentifierSnapshot, error) {
	ids, err := listExternalIdentifiersByParty(ctx, q, partyID)
	if err != nil {
		return nil, err
	}
	out := make([]outbox.IdentifierSnapshot, 0, len(ids))
	for _, e := range ids {
		out = append(out, outbox.IdentifierSnapshot{SystemName: e.SystemName, ExternalID: e.ExternalID})
	}
	return out, nil
}
