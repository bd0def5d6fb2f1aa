package tag

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

// Postgres persists tags and join rows in PostgreSQL. Attachment order
// is kept in an explicit position column.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed tag store.
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

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, tag *models.Tag) error {
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO tags (id, name, created_at) VALUES ($1, $2, $3)`,
		tag.ID.String(), tag.Name, tag.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrDuplicateName
		}
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, tagID id.TagID) (*models.Tag, error) {
	return s.findOne(ctx, `SELECT id, name, created_at FROM tags WHERE id = $1`, tagID.String())
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	return s.findOne(ctx, `SELECT id, name, created_at FROM tags WHERE name = $1`, name)
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.Tag, error) {
	var tag models.Tag
	err := s.q(ctx).QueryRow(ctx, query, arg).Scan(&tag.ID, &tag.Name, &tag.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return &tag, nil
}

func (s *Postgres) Delete(ctx context.Context, tagID id.TagID) error {
	// Join rows go with the tag via ON DELETE CASCADE.
	if _, err := s.q(ctx).Exec(ctx, `DELETE FROM tags WHERE id = $1`, tagID.String()); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

func (s *Postgres) Attach(ctx context.Context, contactID id.ContactID, tagID id.TagID) error {
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO contact_tags (contact_id, tag_id, position)
		 SELECT $1, $2, COALESCE(MAX(position), 0) + 1 FROM contact_tags WHERE contact_id = $1
		 ON CONFLICT (contact_id, tag_id) DO NOTHING`,
		contactID.String(), tagID.String())
	if err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

func (s *Postgres) Detach(ctx context.Context, contactID id.ContactID, tagID id.TagID) error {
	_, err := s.q(ctx).Exec(ctx,
		`DELETE FROM contact_tags WHERE contact_id = $1 AND tag_id = $2`,
		contactID.String(), tagID.String())
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	return nil
}

func (s *Postgres) ListByContact(ctx context.Context, contactID id.ContactID) ([]*models.Tag, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT t.id, t.name, t.created_at
		 FROM tags t JOIN contact_tags ct ON ct.tag_id = t.id
		 WHERE ct.contact_id = $1 ORDER BY ct.position`,
		contactID.String())
	if err != nil {
		return nil, fmt.Errorf("list tags by contact: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

func (s *Postgres) ContactCount(ctx context.Context, tagID id.TagID) (int, error) {
	var count int
	err := s.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM contact_tags WHERE tag_id = $1`, tagID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tag references: %w", err)
	}
	return count, nil
}

func (s *Postgres) SearchByPrefix(ctx context.Context, prefix string) ([]*models.Tag, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT id, name, created_at FROM tags WHERE name ILIKE $1 || '%' ORDER BY name`,
		prefix)
	if err != nil {
		return nil, fmt.Errorf("search tags: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

func scanTags(rows pgx.Rows) ([]*models.Tag, error) {
	var out []*models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, &tag)
	}
	return out, rows.Err()
}
