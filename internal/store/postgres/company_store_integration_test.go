//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connector := NewConnector(&PoolConfig{
		ConnString: fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MinConns:   1,
	})

	pool, err := connector.Pool(ctx)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		connector.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestIntegration_CompanyLookups(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	companies := NewCompanyStore(pool)
	users := NewUserStore(pool)

	company := &models.Company{Name: "Prueba", BusinessIdentifier: "AGM150318F76", RFC: "RFC-PRUEBA"}
	require.NoError(t, companies.Upsert(ctx, company))
	require.NotZero(t, company.ID)

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, Migrate(ctx, pool))
	})

	t.Run("upsert keeps id", func(t *testing.T) {
		again := &models.Company{Name: "Prueba SA", BusinessIdentifier: "AGM150318F76"}
		require.NoError(t, companies.Upsert(ctx, again))
		require.Equal(t, company.ID, again.ID)

		got, err := companies.Get(ctx, company.ID)
		require.NoError(t, err)
		require.Equal(t, "Prueba SA", got.Name)
	})

	t.Run("probe by business identifier", func(t *testing.T) {
		id, err := companies.FindIDByColumn(ctx, "businessIdentifier", "AGM150318F76")
		require.NoError(t, err)
		require.Equal(t, company.ID, id)
	})

	t.Run("missing column is reported as unknown", func(t *testing.T) {
		_, err := companies.FindIDByColumn(ctx, "taxId", "AGM150318F76")
		require.ErrorIs(t, err, store.ErrUnknownColumn)

		// the pool stays usable after a failed probe
		_, err = companies.FindIDByColumn(ctx, "rfc", "nope")
		require.ErrorIs(t, err, store.ErrCompanyNotFound)
	})

	t.Run("user email lookup", func(t *testing.T) {
		require.NoError(t, users.Upsert(ctx, &models.User{FullName: "QA 130", Email: "qa+130@example.com", CompanyID: &company.ID}))

		id, err := users.FindCompanyIDByEmail(ctx, "qa+130@example.com")
		require.NoError(t, err)
		require.Equal(t, company.ID, id)

		_, err = users.FindCompanyIDByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("get missing company", func(t *testing.T) {
		_, err := companies.Get(ctx, 999999)
		require.ErrorIs(t, err, store.ErrCompanyNotFound)
	})
}
