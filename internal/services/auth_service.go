package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"predictflow/internal/config"
	"predictflow/internal/infrastructure"
)

// Claims are the JWT claims issued at login
type Claims struct {
	jwt.RegisteredClaims
}

// IssuedToken is a signed token and its expiry
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	Subject   string
}

// AuthService verifies configured users and issues HS256 tokens
type AuthService struct {
	users   map[string]string
	secret  []byte
	issuer  string
	ttl     time.Duration
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthService creates an auth service. An empty JWT secret gets a random
// per-process secret, so tokens do not survive a restart.
func NewAuthService(cfg config.AuthConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "auth_service"))

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = []byte(uuid.NewString() + uuid.NewString())
		logger.Warn("no JWT secret configured, using an ephemeral secret")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}

	users := make(map[string]string, len(cfg.Users))
	for name, hash := range cfg.Users {
		users[name] = hash
	}

	return &AuthService{
		users:   users,
		secret:  secret,
		issuer:  cfg.Issuer,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Login checks a username and password and issues a token
func (s *AuthService) Login(ctx context.Context, username, password string) (*IssuedToken, error) {
	if len(s.users) == 0 {
		infrastructure.RecordLoginAttempt(ctx, s.metrics, false)
		return nil, ErrAuthDisabled
	}

	hash, ok := s.users[username]
	if !ok {
		// unknown users still pay one bcrypt comparison
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		infrastructure.RecordLoginAttempt(ctx, s.metrics, false)
		s.logger.WarnContext(ctx, "login failed", slog.String("username", username), slog.String("reason", "unknown user"))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		infrastructure.RecordLoginAttempt(ctx, s.metrics, false)
		s.logger.WarnContext(ctx, "login failed", slog.String("username", username), slog.String("reason", "bad password"))
		return nil, ErrInvalidCredentials
	}

	issued, err := s.issue(username)
	if err != nil {
		infrastructure.RecordLoginAttempt(ctx, s.metrics, false)
		logServiceError(ctx, s.logger, "login", "failed to sign token", slog.String("error", err.Error()))
		return nil, err
	}

	infrastructure.RecordLoginAttempt(ctx, s.metrics, true)
	s.logger.InfoContext(ctx, "login succeeded",
		slog.String("username", username),
		slog.Time("expires_at", issued.ExpiresAt))
	return issued, nil
}

func (s *AuthService) issue(subject string) (*IssuedToken, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &IssuedToken{Token: signed, ExpiresAt: expiresAt, Subject: subject}, nil
}

// ValidateToken verifies signature, algorithm, expiry and issuer and returns
// the token's subject
func (s *AuthService) ValidateToken(ctx context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	if _, ok := s.users[claims.Subject]; !ok {
		return "", fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// HashPassword returns a bcrypt hash suitable for the auth users config
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// dummyHash is computed on first use
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	return hash
})
