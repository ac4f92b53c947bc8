package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/diceduel/internal/dependencies/clock"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingSecret      = errors.New("token signing secret is required when api keys are configured")
)

// Token is an access token issued to a chat adapter
type Token struct {
	Value     string
	Subject   string
	ExpiresAt time.Time
}

// Claims are the validated claims of an access token
type Claims struct {
	jwt.RegisteredClaims
}

// Service exchanges adapter API keys for signed access tokens
type Service struct {
	clock     clock.Clock
	secret    []byte
	keyHashes [][]byte
	tokenTTL  time.Duration
	issuer    string
}

// Config holds configuration for the auth service
type Config struct {
	// Secret signs access tokens (HS256)
	Secret string
	// KeyHashes are bcrypt hashes of the accepted API keys. With none
	// configured the service runs open and every request is allowed.
	KeyHashes []string
	TokenTTL  time.Duration
	Issuer    string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: time.Hour,
		Issuer:   "diceduel",
	}
}

// New creates a new AuthService
func New(clock clock.Clock, cfg Config) (*Service, error) {
	defaults := DefaultConfig()
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}

	var hashes [][]byte
	for _, h := range cfg.KeyHashes {
		if h = strings.TrimSpace(h); h != "" {
			hashes = append(hashes, []byte(h))
		}
	}
	if len(hashes) > 0 && cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	return &Service{
		clock:     clock,
		secret:    []byte(cfg.Secret),
		keyHashes: hashes,
		tokenTTL:  cfg.TokenTTL,
		issuer:    cfg.Issuer,
	}, nil
}

// Open reports whether the API accepts unauthenticated requests
func (s *Service) Open() bool {
	return len(s.keyHashes) == 0
}

// IssueToken verifies an API key and returns a signed access token
func (s *Service) IssueToken(apiKey string) (*Token, error) {
	if apiKey == "" || s.Open() {
		return nil, ErrInvalidCredentials
	}

	index := -1
	for i, hash := range s.keyHashes {
		if bcrypt.CompareHashAndPassword(hash, []byte(apiKey)) == nil {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.tokenTTL)
	subject := fmt.Sprintf("adapter-%d", index)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{Value: signed, Subject: subject, ExpiresAt: expiresAt}, nil
}

// ValidateToken checks the signature, issuer and expiry of an access token
func (s *Service) ValidateToken(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}

// HashAPIKey returns the bcrypt hash to configure for an API key
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
