package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/outbox"
)

const organisationColumns = `party_id, organisation_name, organisation_type, registration_number, email, phone_primary, phone_secondary`

func scanOrganisation(row pgx.Row, o *Organisation) error {
	return row.Scan(&o.PartyID, &o.OrganisationName, &o.OrganisationType, &o.RegistrationNumber, &o.Email, &o.PhonePrimary, &o.PhoneSecondary)
}

func (r *Repository) ListOrganisations(ctx context.Context, page Page) ([]Organisation, error) {
	page = page.normalize()
	rows, err := r.pool.Query(ctx, `
		SELECT `+organisationColumns+`
		FROM organisations
		ORDER BY party_id
		OFFSET $1 LIMIT $2
	`, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, o *Organisation) error { return scanOrganisation(rows, o) })
}

func (r *Repository) GetOrganisation(ctx context.Context, partyID int64) (Organisation, error) {
	var o Organisation
	err := scanOrganisation(r.pool.QueryRow(ctx, `
		SELECT `+organisationColumns+`
		FROM organisations
		WHERE party_id = $1
	`, partyID), &o)
	return o, classify(err)
}

func (r *Repository) CreateOrganisation(ctx context.Context, in Organisation) (Organisation, error) {
	var out Organisation
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		party, err := insertParty(ctx, tx, PartyTypeOrganisation, in.OrganisationName)
		if err != nil {
			return err
		}
		err = scanOrganisation(tx.QueryRow(ctx, `
			INSERT INTO organisations (party_id, organisation_name, organisation_type, registration_number, email, phone_primary, phone_secondary)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+organisationColumns+`
		`, party.PartyID, in.OrganisationName, in.OrganisationType, in.RegistrationNumber, in.Email, in.PhonePrimary, in.PhoneSecondary), &out)
		if err != nil {
			return err
		}
		_, err = r.events.Record(ctx, tx, outbox.OrganisationCreated, map[string]any{
			"party_id":          out.PartyID,
			"organisation_name": out.OrganisationName,
		})
		return err
	})
	return out, classify(err)
}

func (r *Repository) UpdateOrganisation(ctx context.Context, partyID int64, in Organisation) (Organisation, error) {
	var out Organisation
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		err := scanOrganisation(tx.QueryRow(ctx, `
			UPDATE organisations
			SET organisation_name = $2,
				organisation_type = $3,
				registration_number = $4,
				email = $5,
				phone_primary = $6,
				phone_secondary = $7
			WHERE party_id = $1
			RETURNING `+organisationColumns+`
		`, partyID, in.OrganisationName, in.OrganisationType, in.RegistrationNumber, in.Email, in.PhonePrimary, in.PhoneSecondary), &out)
		if err != nil {
			return err
		}
		if err := renameParty(ctx, tx, partyID, out.OrganisationName); err != nil {
			return err
		}
		snapshot, err := identifierSnapshot(ctx, tx, partyID)
		if err != nil {
			return err
		}
		_, err = r.events.Record(ctx, tx, outbox.OrganisationUpdated, map[string]any{
			"party_id":             partyID,
			"organisation_name":    out.OrganisationName,
			"external_identifiers": snapshot,
		})
		return err
	})
	return out, classify(err)
}

func (r *Repository) DeleteOrganisation(ctx context.Context, partyID int64) error {
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT party_id FROM organisations WHERE party_id = $1 FOR UPDATE`, partyID).Scan(&id)
		if err != nil {
			return err
		}
		snapshot, err := identifierSnapshot(ctx, tx, partyID)
		if err != nil {
			return err
		}
		if _, err := r.events.Record(ctx, tx, outbox.OrganisationDeleted, map[string]any{
			"party_id":             partyID,
			"external_identifiers": snapshot,
		}); err != nil {
			return err
		}
		return deleteParty(ctx, tx, partyID)
	})
	return classify(err)
}
