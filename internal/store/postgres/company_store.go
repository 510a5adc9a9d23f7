package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// CompanyStore implements store.CompanyStore using PostgreSQL.
type CompanyStore struct {
	pool *pgxpool.Pool
}

// NewCompanyStore creates a new PostgreSQL-backed company store.
// It shares the connection pool with other stores.
func NewCompanyStore(pool *pgxpool.Pool) *CompanyStore {
	return &CompanyStore{
		pool: pool,
	}
}

// Upsert inserts a company or updates the row with the same business identifier.
func (s *CompanyStore) Upsert(ctx context.Context, company *models.Company) error {
	query := `
		INSERT INTO "Company" (
			"companyName", "businessIdentifier", rfc, email, phone
		) VALUES (
			$1, NULLIF($2, ''), $3, $4, $5
		)
		ON CONFLICT ("businessIdentifier") DO UPDATE SET
			"companyName" = EXCLUDED."companyName",
			rfc = EXCLUDED.rfc,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			"updatedAt" = now()
		RETURNING id, "createdAt", "updatedAt"
	`

	err := s.pool.QueryRow(ctx, query,
		company.Name,
		company.BusinessIdentifier,
		company.RFC,
		company.Email,
		company.Phone,
	).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert company: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("company_id", company.ID).
		Str("business_identifier", company.BusinessIdentifier).
		Msg("Upserted company")

	return nil
}

// Get retrieves a company by ID.
func (s *CompanyStore) Get(ctx context.Context, id int64) (*models.Company, error) {
	query := `
		SELECT id, "companyName", COALESCE("businessIdentifier", ''), COALESCE(rfc, ''),
			COALESCE(email, ''), COALESCE(phone, ''), "createdAt", "updatedAt"
		FROM "Company"
		WHERE id = $1
	`

	var company models.Company
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.BusinessIdentifier,
		&company.RFC,
		&company.Email,
		&company.Phone,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", mapPostgresError(err))
	}

	return &company, nil
}

// FindIDByColumn returns the first company whose column equals value. The
// column name is quoted as an identifier; a column missing from the schema
// surfaces as store.ErrUnknownColumn.
func (s *CompanyStore) FindIDByColumn(ctx context.Context, column, value string) (int64, error) {
	query := fmt.Sprintf(`SELECT id FROM "Company" WHERE %s = $1 ORDER BY id LIMIT 1`,
		pgx.Identifier{column}.Sanitize())

	var id int64
	err := s.pool.QueryRow(ctx, query, value).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, store.ErrCompanyNotFound
		}
		return 0, fmt.Errorf("failed to find company by %s: %w", column, mapPostgresError(err))
	}

	return id, nil
}
