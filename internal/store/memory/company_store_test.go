package memory

import (
	"context"
	"testing"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/store"
	"github.com/stretchr/testify/require"
)

func TestNewCompanyStore(t *testing.T) {
	st := NewCompanyStore()
	require.NotNil(t, st)
}

func TestCompanyStore_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns sequential ids", func(t *testing.T) {
		st := NewCompanyStore()

		first := &models.Company{Name: "Prueba", BusinessIdentifier: "AGM150318F76"}
		second := &models.Company{Name: "Globex", BusinessIdentifier: "88299321-0"}
		require.NoError(t, st.Upsert(ctx, first))
		require.NoError(t, st.Upsert(ctx, second))

		require.Equal(t, int64(1), first.ID)
		require.Equal(t, int64(2), second.ID)
	})

	t.Run("same business identifier updates", func(t *testing.T) {
		st := NewCompanyStore()

		company := &models.Company{Name: "Prueba", BusinessIdentifier: "AGM150318F76"}
		require.NoError(t, st.Upsert(ctx, company))

		renamed := &models.Company{Name: "Prueba SA", BusinessIdentifier: "AGM150318F76"}
		require.NoError(t, st.Upsert(ctx, renamed))
		require.Equal(t, company.ID, renamed.ID)

		got, err := st.Get(ctx, company.ID)
		require.NoError(t, err)
		require.Equal(t, "Prueba SA", got.Name)
	})

	t.Run("explicit id collision", func(t *testing.T) {
		st := NewCompanyStore()
		require.NoError(t, st.Upsert(ctx, &models.Company{ID: 42, Name: "a"}))
		err := st.Upsert(ctx, &models.Company{ID: 42, Name: "b"})
		require.ErrorIs(t, err, store.ErrCompanyAlreadyExists)
	})
}

func TestCompanyStore_Get_notFound(t *testing.T) {
	st := NewCompanyStore()
	_, err := st.Get(context.Background(), 99)
	require.ErrorIs(t, err, store.ErrCompanyNotFound)
}

func TestCompanyStore_FindIDByColumn(t *testing.T) {
	ctx := context.Background()
	st := NewCompanyStore()
	require.NoError(t, st.Upsert(ctx, &models.Company{Name: "Prueba", BusinessIdentifier: "BI-1", RFC: "RFC-1"}))
	require.NoError(t, st.Upsert(ctx, &models.Company{Name: "Globex", BusinessIdentifier: "BI-2", RFC: "RFC-2"}))

	id, err := st.FindIDByColumn(ctx, "businessIdentifier", "BI-2")
	require.NoError(t, err)
	require.Equal(t, int64(2), id)

	id, err = st.FindIDByColumn(ctx, "rfc", "RFC-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	_, err = st.FindIDByColumn(ctx, "rfc", "missing")
	require.ErrorIs(t, err, store.ErrCompanyNotFound)

	_, err = st.FindIDByColumn(ctx, "taxId", "BI-1")
	require.ErrorIs(t, err, store.ErrUnknownColumn)
}

func TestUserStore_FindCompanyIDByEmail(t *testing.T) {
	ctx := context.Background()
	st := NewUserStore()

	companyID := int64(7)
	require.NoError(t, st.Upsert(ctx, &models.User{FullName: "QA", Email: "qa@example.com", CompanyID: &companyID}))
	require.NoError(t, st.Upsert(ctx, &models.User{FullName: "Orphan", Email: "orphan@example.com"}))

	id, err := st.FindCompanyIDByEmail(ctx, "qa@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(7), id)

	_, err = st.FindCompanyIDByEmail(ctx, "QA@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = st.FindCompanyIDByEmail(ctx, "orphan@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserStore_Upsert_copiesCompanyID(t *testing.T) {
	ctx := context.Background()
	st := NewUserStore()

	companyID := int64(7)
	require.NoError(t, st.Upsert(ctx, &models.User{Email: "ana@beta.mx", CompanyID: &companyID}))

	companyID = 99

	id, err := st.FindCompanyIDByEmail(ctx, "ana@beta.mx")
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
}
