// Package resolver determines which company (tenant) a login belongs to from
// the optional hints carried by the authentication payload.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/store"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/telemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrNoHint is returned by a strategy whose hint was not supplied.
var ErrNoHint = errors.New("hint not supplied")

// Hints are the optional identity clues supplied at login.
type Hints struct {
	BusinessIdentifier string
	UserEmail          string
}

// Strategy is one candidate source of a company ID. Resolve returns ErrNoHint
// when it does not apply, a not-found sentinel on a miss, or any other error
// when the lookup itself failed.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, hints Hints) (int64, error)
}

// ColumnStrategy matches the business identifier against one company column.
type ColumnStrategy struct {
	Companies store.CompanyStore
	Column    string
}

func (c ColumnStrategy) Name() string { return "company." + c.Column }

func (c ColumnStrategy) Resolve(ctx context.Context, hints Hints) (int64, error) {
	bi := strings.TrimSpace(hints.BusinessIdentifier)
	if bi == "" {
		return 0, ErrNoHint
	}
	return c.Companies.FindIDByColumn(ctx, c.Column, bi)
}

// EmailStrategy uses the company of the user with the given email.
type EmailStrategy struct {
	Users store.UserStore
}

func (EmailStrategy) Name() string { return "user.email" }

func (e EmailStrategy) Resolve(ctx context.Context, hints Hints) (int64, error) {
	email := strings.TrimSpace(hints.UserEmail)
	if email == "" {
		return 0, ErrNoHint
	}
	return e.Users.FindCompanyIDByEmail(ctx, email)
}

// Resolver walks its strategies in order and returns the first hit.
type Resolver struct {
	strategies []Strategy
}

// New builds the default chain: every identifier column in
// store.CompanyIdentifierColumns, then the user email.
func New(companies store.CompanyStore, users store.UserStore) *Resolver {
	strategies := make([]Strategy, 0, len(store.CompanyIdentifierColumns)+1)
	for _, col := range store.CompanyIdentifierColumns {
		strategies = append(strategies, ColumnStrategy{Companies: companies, Column: col})
	}
	strategies = append(strategies, EmailStrategy{Users: users})

	return NewWithStrategies(strategies...)
}

// NewWithStrategies builds a resolver from an explicit chain.
func NewWithStrategies(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve returns the company ID and the name of the strategy that found it.
// Strategies run strictly one after another; misses and failures are logged
// and the next strategy is tried. ok is false when every strategy came up empty.
func (r *Resolver) Resolve(ctx context.Context, hints Hints) (id int64, source string, ok bool) {
	logger := log.Ctx(ctx)
	probes := telemetry.GetMetrics().ResolverProbesTotal

	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Msg("Company resolution abandoned")
			return 0, "", false
		}

		id, err := s.Resolve(ctx, hints)
		outcome := probeOutcome(err)
		probes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("strategy", s.Name()),
			attribute.String("outcome", outcome),
		))

		switch outcome {
		case "hit":
			logger.Debug().Str("strategy", s.Name()).Int64("company_id", id).Msg("Company resolved")
			return id, s.Name(), true
		case "error":
			logger.Warn().Err(err).Str("strategy", s.Name()).Msg("Company lookup failed, trying next source")
		case "miss":
			logger.Debug().Str("strategy", s.Name()).Msg("No company matched")
		case "unsupported":
			logger.Debug().Str("strategy", s.Name()).Msg("Column not present in schema, skipping")
		}
	}

	return 0, "", false
}

func probeOutcome(err error) string {
	switch {
	case err == nil:
		return "hit"
	case errors.Is(err, ErrNoHint):
		return "skipped"
	case errors.Is(err, store.ErrCompanyNotFound), errors.Is(err, store.ErrUserNotFound):
		return "miss"
	case errors.Is(err, store.ErrUnknownColumn):
		return "unsupported"
	default:
		return "error"
	}
}
