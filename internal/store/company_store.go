package store

import (
	"context"
	"errors"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
)

// Sentinel errors for company and user store operations
var (
	ErrCompanyNotFound      = errors.New("company not found")
	ErrCompanyAlreadyExists = errors.New("company already exists")
	ErrUserNotFound         = errors.New("user not found")

	// ErrUnknownColumn is returned when a lookup names a column that does not
	// exist in the current schema version.
	ErrUnknownColumn = errors.New("unknown column")
)

// CompanyIdentifierColumns are the columns that may hold a company's business
// identifier, in the order they are probed. Deployments have carried different
// schema versions so not every column exists everywhere.
var CompanyIdentifierColumns = []string{"businessIdentifier", "rfc", "taxId", "tax_id"}

// CompanyStore defines storage operations for companies (tenants).
type CompanyStore interface {
	// Upsert creates the company, or updates the one sharing its business
	// identifier. The company's ID is set on return.
	Upsert(ctx context.Context, company *models.Company) error

	// Get retrieves a company by ID.
	// Returns ErrCompanyNotFound if the company doesn't exist.
	Get(ctx context.Context, id int64) (*models.Company, error)

	// FindIDByColumn returns the ID of the first company whose column equals value.
	// Returns ErrUnknownColumn if the column does not exist and
	// ErrCompanyNotFound if no row matches.
	FindIDByColumn(ctx context.Context, column, value string) (int64, error)
}

// UserStore defines storage operations for users.
type UserStore interface {
	// Upsert creates the user, or updates the one sharing its email.
	Upsert(ctx context.Context, user *models.User) error

	// FindCompanyIDByEmail returns the company of the user with exactly this email.
	// Returns ErrUserNotFound if there is no such user or it has no company.
	FindCompanyIDByEmail(ctx context.Context, email string) (int64, error)
}
