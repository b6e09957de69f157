package ninjarmm

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// DefaultHost is the default NinjaOne API host.
const DefaultHost = "https://app.ninjarmm.com"

const (
	hostEnvVar         = "NINJA_HOST"
	clientIDEnvVar     = "NINJA_CLIENT_ID"
	clientSecretEnvVar = "NINJA_CLIENT_SECRET"
	tokenScopeEnvVar   = "NINJA_TOKEN_SCOPE"
)

// Configuration holds connection and authentication settings.
//
// A Configuration is shared by reference with the Client built from it. The
// client is the only writer of the access token.
type Configuration struct {
	// Host is the API base URL, e.g. "https://app.ninjarmm.com". Required.
	Host string

	// ClientID and ClientSecret enable OAuth2. Supply both or neither.
	ClientID     string
	ClientSecret string

	// TokenScope is sent with the grant request when non-empty.
	TokenScope string

	mu          sync.RWMutex
	accessToken string
}

// NewConfigurationFromEnv builds a Configuration from the NINJA_* environment
// variables. Each dotenv file in files is loaded first when it exists;
// variables already set in the environment win.
func NewConfigurationFromEnv(files ...string) (*Configuration, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &ConfigurationError{Message: "load " + f + ": " + err.Error()}
		}
	}

	return &Configuration{
		Host:         getEnv(hostEnvVar, DefaultHost),
		ClientID:     getEnv(clientIDEnvVar, ""),
		ClientSecret: getEnv(clientSecretEnvVar, ""),
		TokenScope:   getEnv(tokenScopeEnvVar, ""),
	}, nil
}

// AccessToken returns the last bearer token obtained by the client, or ""
// when none is held.
func (c *Configuration) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Configuration) setAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// oauthEnabled validates the credential pair and reports whether OAuth2 is
// configured.
func (c *Configuration) oauthEnabled() (bool, error) {
	id := strings.TrimSpace(c.ClientID)
	secret := strings.TrimSpace(c.ClientSecret)
	if id == "" && secret == "" {
		return false, nil
	}
	if id == "" || secret == "" {
		return false, &ConfigurationError{Message: "Client ID and client secret are required"}
	}
	return true, nil
}

func getEnv(envVar, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	return value
}
