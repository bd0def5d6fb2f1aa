package company

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

// Postgres persists companies in PostgreSQL. Queries join the
// save-scoped transaction when one travels in the context.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed company store.
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

func (s *Postgres) Create(ctx context.Context, company *models.Company) error {
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO companies (id, name, created_at) VALUES ($1, $2, $3)`,
		company.ID.String(), company.Name, company.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrDuplicateName
		}
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	return s.findOne(ctx, `SELECT id, name, created_at FROM companies WHERE id = $1`, companyID.String())
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.Company, error) {
	return s.findOne(ctx, `SELECT id, name, created_at FROM companies WHERE name = $1`, name)
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.Company, error) {
	var company models.Company
	err := s.q(ctx).QueryRow(ctx, query, arg).Scan(&company.ID, &company.Name, &company.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find company: %w", err)
	}
	return &company, nil
}

func (s *Postgres) Delete(ctx context.Context, companyID id.CompanyID) error {
	if _, err := s.q(ctx).Exec(ctx, `DELETE FROM companies WHERE id = $1`, companyID.String()); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

func (s *Postgres) SearchByPrefix(ctx context.Context, prefix string) ([]*models.Company, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT id, name, created_at FROM companies WHERE name ILIKE $1 || '%' ORDER BY name`,
		prefix)
	if err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		var company models.Company
		if err := rows.Scan(&company.ID, &company.Name, &company.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, &company)
	}
	return out, rows.Err()
}
