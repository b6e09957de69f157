package ninjarmm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfigurationFromEnv(t *testing.T) {
	t.Setenv(hostEnvVar, "https://eu.ninjarmm.com")
	t.Setenv(clientIDEnvVar, "id")
	t.Setenv(clientSecretEnvVar, "secret")
	t.Setenv(tokenScopeEnvVar, "monitoring management")

	cfg, err := NewConfigurationFromEnv()
	require.NoError(t, err)
	require.Equal(t, "https://eu.ninjarmm.com", cfg.Host)
	require.Equal(t, "id", cfg.ClientID)
	require.Equal(t, "secret", cfg.ClientSecret)
	require.Equal(t, "monitoring management", cfg.TokenScope)
	require.Empty(t, cfg.AccessToken())
}

func TestNewConfigurationFromEnv_DotEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set.
	for _, v := range []string{hostEnvVar, clientIDEnvVar, clientSecretEnvVar, tokenScopeEnvVar} {
		t.Setenv(v, "")
		require.NoError(t, os.Unsetenv(v))
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NINJA_CLIENT_ID=file-id\nNINJA_CLIENT_SECRET=file-secret\n"), 0o600))

	cfg, err := NewConfigurationFromEnv(filepath.Join(t.TempDir(), "missing.env"), path)
	require.NoError(t, err)
	require.Equal(t, DefaultHost, cfg.Host)
	require.Equal(t, "file-id", cfg.ClientID)
	require.Equal(t, "file-secret", cfg.ClientSecret)

	c, err := NewClient(cfg, Options{})
	require.NoError(t, err)
	require.Equal(t, TokenAbsent, c.AuthState())
}

func TestConfiguration_OAuthEnabled(t *testing.T) {
	enabled, err := (&Configuration{}).oauthEnabled()
	require.NoError(t, err)
	require.False(t, enabled)

	enabled, err = (&Configuration{ClientID: "a", ClientSecret: "b"}).oauthEnabled()
	require.NoError(t, err)
	require.True(t, enabled)

	_, err = (&Configuration{ClientID: "a"}).oauthEnabled()
	require.EqualError(t, err, "ninjarmm: configuration error: Client ID and client secret are required")
}
