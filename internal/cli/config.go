package cli

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Identity is the chat user a command acts as
type Identity struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	TokenFile string
	Output    string
	Chat      string
	Identity  Identity
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("DICEDUEL_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("DICEDUEL_TOKEN"),
		TokenFile: getEnvOrDefault("DICEDUEL_TOKEN_FILE", defaultTokenFile()),
		Output:    "text",
		Chat:      getEnvOrDefault("DICEDUEL_CHAT", "cli"),
		Identity: Identity{
			ID:          os.Getenv("DICEDUEL_USER_ID"),
			Username:    os.Getenv("DICEDUEL_USERNAME"),
			DisplayName: os.Getenv("DICEDUEL_DISPLAY_NAME"),
		},
	}
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No token file is fine
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.TokenFile, []byte(token), 0600)
}

// Actor returns the identity to act as, failing when no user ID was given
func (c *Config) Actor() (Identity, error) {
	if c.Identity.ID == "" {
		return Identity{}, errors.New("acting user required: set --as-id (or DICEDUEL_USER_ID)")
	}
	return c.Identity, nil
}

// ChatPath builds an API path under the configured chat
func (c *Config) ChatPath(suffix string) string {
	return "/api/v1/chats/" + url.PathEscape(c.Chat) + suffix
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".diceduel/token"
	}
	return filepath.Join(home, ".diceduel", "token")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
