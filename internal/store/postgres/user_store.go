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

// UserStore implements store.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL-backed user store.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{
		pool: pool,
	}
}

// Upsert inserts a user or updates the row with the same email.
func (s *UserStore) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO "User" ("fullName", email, "companyId")
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			"fullName" = EXCLUDED."fullName",
			"companyId" = EXCLUDED."companyId"
		RETURNING id, "createdAt"
	`

	err := s.pool.QueryRow(ctx, query, user.FullName, user.Email, user.CompanyID).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", mapPostgresError(err))
	}

	log.Debug().Int64("user_id", user.ID).Str("email", user.Email).Msg("Upserted user")

	return nil
}

// FindCompanyIDByEmail returns the company of the user with exactly this email.
func (s *UserStore) FindCompanyIDByEmail(ctx context.Context, email string) (int64, error) {
	query := `SELECT "companyId" FROM "User" WHERE email = $1 LIMIT 1`

	var companyID *int64
	err := s.pool.QueryRow(ctx, query, email).Scan(&companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, store.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to find user company: %w", mapPostgresError(err))
	}

	if companyID == nil {
		return 0, store.ErrUserNotFound
	}

	return *companyID, nil
}
