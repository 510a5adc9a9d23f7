package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/store"
)

// columnValues maps the identifier columns this store understands to the
// company field backing them.
var columnValues = map[string]func(*models.Company) string{
	"businessIdentifier": func(c *models.Company) string { return c.BusinessIdentifier },
	"rfc":                func(c *models.Company) string { return c.RFC },
}

// CompanyStore implements store.CompanyStore using in-memory storage.
// This implementation is for testing and local development - data is lost on restart.
type CompanyStore struct {
	mu sync.RWMutex

	companies map[int64]*models.Company // id -> Company
	nextID    int64
}

// NewCompanyStore creates a new in-memory company store.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{
		companies: make(map[int64]*models.Company),
		nextID:    1,
	}
}

// Upsert creates a company or updates the one with the same business identifier.
func (s *CompanyStore) Upsert(ctx context.Context, company *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	for _, existing := range s.companies {
		if company.BusinessIdentifier != "" && existing.BusinessIdentifier == company.BusinessIdentifier {
			company.ID = existing.ID
			company.CreatedAt = existing.CreatedAt
			company.UpdatedAt = now

			clone := *company
			s.companies[existing.ID] = &clone
			return nil
		}
	}

	if company.ID == 0 {
		company.ID = s.nextID
	}
	if _, exists := s.companies[company.ID]; exists {
		return store.ErrCompanyAlreadyExists
	}
	if company.ID >= s.nextID {
		s.nextID = company.ID + 1
	}
	company.CreatedAt = now
	company.UpdatedAt = now

	// Clone to avoid external modifications
	clone := *company
	s.companies[company.ID] = &clone

	return nil
}

// Get retrieves a company by ID.
func (s *CompanyStore) Get(ctx context.Context, id int64) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	company, exists := s.companies[id]
	if !exists {
		return nil, store.ErrCompanyNotFound
	}

	clone := *company
	return &clone, nil
}

// FindIDByColumn returns the lowest company ID whose column matches value.
func (s *CompanyStore) FindIDByColumn(ctx context.Context, column, value string) (int64, error) {
	field, ok := columnValues[column]
	if !ok {
		return 0, store.ErrUnknownColumn
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.companies))
	for id := range s.companies {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if field(s.companies[id]) == value {
			return id, nil
		}
	}

	return 0, store.ErrCompanyNotFound
}

// UserStore implements store.UserStore using in-memory storage.
type UserStore struct {
	mu sync.RWMutex

	users  map[string]*models.User // email -> User
	nextID int64
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:  make(map[string]*models.User),
		nextID: 1,
	}
}

// Upsert creates a user or replaces the one with the same email.
func (s *UserStore) Upsert(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.users[user.Email]; exists {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	} else {
		user.ID = s.nextID
		user.CreatedAt = time.Now()
		s.nextID++
	}

	clone := *user
	if user.CompanyID != nil {
		companyID := *user.CompanyID
		clone.CompanyID = &companyID
	}
	s.users[user.Email] = &clone

	return nil
}

// FindCompanyIDByEmail returns the company of the user with this exact email.
func (s *UserStore) FindCompanyIDByEmail(ctx context.Context, email string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[email]
	if !exists || user.CompanyID == nil {
		return 0, store.ErrUserNotFound
	}

	return *user.CompanyID, nil
}
