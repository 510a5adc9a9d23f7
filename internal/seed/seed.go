// Package seed loads companies and their users from YAML and upserts them into
// the record store. Applying the same file twice leaves the store unchanged.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/store"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSeed = errors.New("invalid seed file")

// File is the top-level seed document.
type File struct {
	Companies []Company `yaml:"companies"`
}

type Company struct {
	Name               string `yaml:"companyName"`
	BusinessIdentifier string `yaml:"businessIdentifier"`
	RFC                string `yaml:"rfc"`
	Email              string `yaml:"email"`
	Phone              string `yaml:"phone"`
	Users              []User `yaml:"users"`
}

type User struct {
	FullName string `yaml:"fullName"`
	Email    string `yaml:"email"`
}

// Load decodes and validates a seed document.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

// Validate requires a business identifier per company, unique across the
// file, and an email per user.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Companies))
	for i, c := range f.Companies {
		bi := strings.TrimSpace(c.BusinessIdentifier)
		if bi == "" {
			return fmt.Errorf("%w: company %d has no businessIdentifier", ErrInvalidSeed, i)
		}
		if seen[bi] {
			return fmt.Errorf("%w: duplicate businessIdentifier %q", ErrInvalidSeed, bi)
		}
		seen[bi] = true

		for j, u := range c.Users {
			if strings.TrimSpace(u.Email) == "" {
				return fmt.Errorf("%w: user %d of company %q has no email", ErrInvalidSeed, j, bi)
			}
		}
	}
	return nil
}

// Result counts what Apply wrote.
type Result struct {
	Companies int
	Users     int
}

// Apply upserts every company, then links its users to it.
func Apply(ctx context.Context, companies store.CompanyStore, users store.UserStore, f *File) (Result, error) {
	var res Result

	for _, c := range f.Companies {
		company := &models.Company{
			Name:               c.Name,
			BusinessIdentifier: strings.TrimSpace(c.BusinessIdentifier),
			RFC:                c.RFC,
			Email:              c.Email,
			Phone:              c.Phone,
		}
		if err := companies.Upsert(ctx, company); err != nil {
			return res, fmt.Errorf("failed to upsert company %q: %w", company.BusinessIdentifier, err)
		}
		res.Companies++

		for _, u := range c.Users {
			companyID := company.ID
			user := &models.User{
				FullName:  u.FullName,
				Email:     strings.TrimSpace(u.Email),
				CompanyID: &companyID,
			}
			if err := users.Upsert(ctx, user); err != nil {
				return res, fmt.Errorf("failed to upsert user %q: %w", user.Email, err)
			}
			res.Users++
		}

		log.Ctx(ctx).Debug().
			Int64("company_id", company.ID).
			Str("business_identifier", company.BusinessIdentifier).
			Int("users", len(c.Users)).
			Msg("company seeded")
	}

	return res, nil
}
