package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"switchboard/internal/directory/models"
	id "switchboard/pkg/domain"
	"switchboard/pkg/platform/sentinel"
	txcontext "switchboard/pkg/platform/tx"
)

// Postgres persists the contact aggregate in PostgreSQL. Owned
// phone/skype rows are replaced wholesale on update; the database
// cascades them on delete.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed contact store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.pool
}

func (s *Postgres) Create(ctx context.Context, contact *models.Contact) error {
	q := s.q(ctx)
	_, err := q.Exec(ctx,
		`INSERT INTO contacts (id, name, company_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		contact.ID.String(), contact.Name, companyIDArg(contact.CompanyID),
		contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return s.replaceOwnedRows(ctx, q, contact)
}

func (s *Postgres) Update(ctx context.Context, contact *models.Contact) error {
	q := s.q(ctx)
	tag, err := q.Exec(ctx,
		`UPDATE contacts SET name = $2, company_id = $3, updated_at = $4 WHERE id = $1`,
		contact.ID.String(), contact.Name, companyIDArg(contact.CompanyID), contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	if _, err := q.Exec(ctx, `DELETE FROM phone_numbers WHERE contact_id = $1`, contact.ID.String()); err != nil {
		return fmt.Errorf("clear phone numbers: %w", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM skype_contacts WHERE contact_id = $1`, contact.ID.String()); err != nil {
		return fmt.Errorf("clear skype contacts: %w", err)
	}
	return s.replaceOwnedRows(ctx, q, contact)
}

func (s *Postgres) replaceOwnedRows(ctx context.Context, q querier, contact *models.Contact) error {
	for _, phone := range contact.PhoneNumbers {
		_, err := q.Exec(ctx,
			`INSERT INTO phone_numbers (id, contact_id, raw_number, phone_type)
			 VALUES ($1, $2, $3, $4)`,
			phone.ID.String(), contact.ID.String(), phone.RawNumber, string(phone.Type))
		if err != nil {
			return fmt.Errorf("insert phone number: %w", err)
		}
	}
	for _, skype := range contact.SkypeContacts {
		_, err := q.Exec(ctx,
			`INSERT INTO skype_contacts (id, contact_id, username) VALUES ($1, $2, $3)`,
			skype.ID.String(), contact.ID.String(), skype.Username)
		if err != nil {
			return fmt.Errorf("insert skype contact: %w", err)
		}
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error) {
	q := s.q(ctx)
	var contact models.Contact
	err := q.QueryRow(ctx,
		`SELECT id, name, company_id, created_at, updated_at FROM contacts WHERE id = $1`,
		contactID.String()).
		Scan(&contact.ID, &contact.Name, &contact.CompanyID, &contact.CreatedAt, &contact.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	if err := s.loadOwnedRows(ctx, q, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *Postgres) loadOwnedRows(ctx context.Context, q querier, contact *models.Contact) error {
	rows, err := q.Query(ctx,
		`SELECT id, contact_id, raw_number, phone_type FROM phone_numbers WHERE contact_id = $1`,
		contact.ID.String())
	if err != nil {
		return fmt.Errorf("load phone numbers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var phone models.PhoneNumber
		if err := rows.Scan(&phone.ID, &phone.ContactID, &phone.RawNumber, &phone.Type); err != nil {
			return fmt.Errorf("scan phone number: %w", err)
		}
		contact.PhoneNumbers = append(contact.PhoneNumbers, phone)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	skypeRows, err := q.Query(ctx,
		`SELECT id, contact_id, username FROM skype_contacts WHERE contact_id = $1`,
		contact.ID.String())
	if err != nil {
		return fmt.Errorf("load skype contacts: %w", err)
	}
	defer skypeRows.Close()
	for skypeRows.Next() {
		var skype models.SkypeContact
		if err := skypeRows.Scan(&skype.ID, &skype.ContactID, &skype.Username); err != nil {
			return fmt.Errorf("scan skype contact: %w", err)
		}
		contact.SkypeContacts = append(contact.SkypeContacts, skype)
	}
	return skypeRows.Err()
}

func (s *Postgres) Delete(ctx context.Context, contactID id.ContactID) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM contacts WHERE id = $1`, contactID.String())
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByRawNumber(ctx context.Context, raw string) ([]*models.Contact, error) {
	q := s.q(ctx)
	rows, err := q.Query(ctx,
		`SELECT DISTINCT c.id, c.created_at FROM contacts c
		 JOIN phone_numbers p ON p.contact_id = c.id
		 WHERE p.raw_number = $1 ORDER BY c.created_at`,
		raw)
	if err != nil {
		return nil, fmt.Errorf("find contacts by number: %w", err)
	}
	var ids []id.ContactID
	for rows.Next() {
		var contactID id.ContactID
		var createdAt any
		if err := rows.Scan(&contactID, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan contact id: %w", err)
		}
		ids = append(ids, contactID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Contact, 0, len(ids))
	for _, contactID := range ids {
		contact, err := s.FindByID(ctx, contactID)
		if err != nil {
			return nil, err
		}
		out = append(out, contact)
	}
	return out, nil
}

func (s *Postgres) FindPhoneNumber(ctx context.Context, phoneID id.PhoneNumberID) (*models.PhoneNumber, error) {
	var phone models.PhoneNumber
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, contact_id, raw_number, phone_type FROM phone_numbers WHERE id = $1`,
		phoneID.String()).
		Scan(&phone.ID, &phone.ContactID, &phone.RawNumber, &phone.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find phone number: %w", err)
	}
	return &phone, nil
}

func (s *Postgres) SearchByName(ctx context.Context, text string) ([]*models.Contact, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT id FROM contacts WHERE name ILIKE '%' || $1 || '%' ORDER BY name`,
		text)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	var ids []id.ContactID
	for rows.Next() {
		var contactID id.ContactID
		if err := rows.Scan(&contactID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan contact id: %w", err)
		}
		ids = append(ids, contactID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Contact, 0, len(ids))
	for _, contactID := range ids {
		contact, err := s.FindByID(ctx, contactID)
		if err != nil {
			return nil, err
		}
		out = append(out, contact)
	}
	return out, nil
}

func (s *Postgres) CountByCompany(ctx context.Context, companyID id.CompanyID) (int, error) {
	var count int
	err := s.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM contacts WHERE company_id = $1`, companyID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count contacts by company: %w", err)
	}
	return count, nil
}

func companyIDArg(companyID *id.CompanyID) any {
	if companyID == nil {
		return nil
	}
	return companyID.String()
}
