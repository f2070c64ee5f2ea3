package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/outbox"
)

const personColumns = `party_id, first_name, last_name, date_of_birth, email, phone_primary, phone_secondary`

func scanPerson(row pgx.Row, p *Person) error {
	return row.Scan(&p.PartyID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Email, &p.PhonePrimary, &p.PhoneSecondary)
}

func (r *Repository) ListPersons(ctx context.Context, page Page) ([]Person, error) {
	page = page.normalize()
	rows, err := r.pool.Query(ctx, `
		SELECT `+personColumns+`
		FROM persons
		ORDER BY party_id
		OFFSET $1 LIMIT $2
	`, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(rows pgx.Rows, p *Person) error { return scanPerson(rows, p) })
}

func (r *Repository) GetPerson(ctx context.Context, partyID int64) (Person, error) {
	var p Person
	err := scanPerson(r.pool.QueryRow(ctx, `
		SELECT `+personColumns+`
		FROM persons
		WHERE party_id = $1
	`, partyID), &p)
	return p, classify(err)
}

// CreatePerson inserts the party, the person and a PersonCreated event in
// one transaction. in.PartyID is ignored.
func (r *Repository) CreatePerson(ctx context.Context, in Person) (Person, error) {
	var out Person
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		party, err := insertParty(ctx, tx, PartyTypePerson, in.DisplayName())
		if err != nil {
			return err
		}
		err = scanPerson(tx.QueryRow(ctx, `
			INSERT INTO persons (party_id, first_name, last_name, date_of_birth, email, phone_primary, phone_secondary)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+personColumns+`
		`, party.PartyID, in.FirstName, in.LastName, in.DateOfBirth, in.Email, in.PhonePrimary, in.PhoneSecondary), &out)
		if err != nil {
			return err
		}
		_, err = r.events.Record(ctx, tx, outbox.PersonCreated, map[string]any{
			"party_id":   out.PartyID,
			"first_name": out.FirstName,
			"last_name":  out.LastName,
			"email":      out.Email,
		})
		return err
	})
	return out, classify(err)
}

// UpdatePerson replaces the person's fields, renames the party and records
// PersonUpdated with the party's external identifiers, all in one
// transaction.
func (r *Repository) UpdatePerson(ctx context.Context, partyID int64, in Person) (Person, error) {
	var out Person
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		err := scanPerson(tx.QueryRow(ctx, `
			UPDATE persons
			SET first_name = $2,
				last_name = $3,
				date_of_birth = $4,
				email = $5,
				phone_primary = $6,
				phone_secondary = $7
			WHERE party_id = $1
			RETURNING `+personColumns+`
		`, partyID, in.FirstName, in.LastName, in.DateOfBirth, in.Email, in.PhonePrimary, in.PhoneSecondary), &out)
		if err != nil {
			return err
		}
		if err := renameParty(ctx, tx, partyID, out.DisplayName()); err != nil {
			return err
		}
		snapshot, err := identifierSnapshot(ctx, tx, partyID)
		if err != nil {
			return err
		}
		_, err = r.events.Record(ctx, tx, outbox.PersonUpdated, map[string]any{
			"party_id":             partyID,
			"first_name":           out.FirstName,
			"last_name":            out.LastName,
			"email":                out.Email,
			"external_identifiers": snapshot,
		})
		return err
	})
	return out, classify(err)
}

// DeletePerson removes the person and its party and records PersonDeleted
// carrying the identifiers the party had.
func (r *Repository) DeletePerson(ctx context.Context, partyID int64) error {
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT party_id FROM persons WHERE party_id = $1 FOR UPDATE`, partyID).Scan(&id)
		if err != nil {
			return err
		}
		snapshot, err := identifierSnapshot(ctx, tx, partyID)
		if err != nil {
			return err
		}
		if _, err := r.events.Record(ctx, tx, outbox.PersonDeleted, map[string]any{
			"party_id":             partyID,
			"external_identifiers": snapshot,
		}); err != nil {
			return err
		}
		return deleteParty(ctx, tx, partyID)
	})
	return classify(err)
}
