package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSecrets(t *testing.T) {
	t.Setenv("COTIZADOR_TEST_EXISTING", "keep")
	t.Setenv("COTIZADOR_TEST_NEW", "")
	os.Unsetenv("COTIZADOR_TEST_NEW")
	t.Cleanup(func() { os.Unsetenv("COTIZADOR_TEST_NEW") })

	set, err := LoadSecrets(`{"COTIZADOR_TEST_EXISTING":"replace","COTIZADOR_TEST_NEW":"value","COTIZADOR_TEST_NUMBER":5}`)
	require.NoError(t, err)
	require.Equal(t, []string{"COTIZADOR_TEST_NEW"}, set)
	require.Equal(t, "keep", os.Getenv("COTIZADOR_TEST_EXISTING"))
	require.Equal(t, "value", os.Getenv("COTIZADOR_TEST_NEW"))
	_, exists := os.LookupEnv("COTIZADOR_TEST_NUMBER")
	require.False(t, exists)
}

func TestLoadSecrets_invalid(t *testing.T) {
	set, err := LoadSecrets("not-json")
	require.Error(t, err)
	require.Nil(t, set)

	set, err = LoadSecrets("")
	require.NoError(t, err)
	require.Nil(t, set)
}
