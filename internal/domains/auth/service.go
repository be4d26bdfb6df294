package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"golang.org/x/crypto/bcrypt"
)

// Common errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// TokenRequest exchanges an API key for an access token
// @Description Request body for obtaining an access token
type TokenRequest struct {
	UserID string `json:"user_id" binding:"required,min=1,max=128" example:"candidate-42"`
	APIKey string `json:"api_key" binding:"required" example:"dev-key"`
}

// AuthTokens represents an issued access token
// @Description JWT access token
type AuthTokens struct {
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt time.Time `json:"expires_at" example:"2025-01-02T12:00:00Z"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// AuthService issues and validates access tokens
type AuthService interface {
	IssueToken(ctx context.Context, req TokenRequest) (*AuthTokens, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

type authService struct {
	apiKeyHash []byte
	jwtSecret  string
	tokenTTL   time.Duration
	logger     *Logger.Logger
	now        func() time.Time
}

// NewAuthService builds the token service. apiKeyHash is a bcrypt hash; when
// empty no token can be issued.
func NewAuthService(jwtSecret string, tokenTTL time.Duration, apiKeyHash string, logger *Logger.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		apiKeyHash: []byte(apiKeyHash),
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		logger:     Logger.OrNop(logger).Named("auth"),
		now:        time.Now,
	}
}

// HashAPIKey returns the bcrypt hash to put in auth.api_key_hash.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}
	return string(hash), nil
}

// IssueToken implements AuthService
func (s *authService) IssueToken(ctx context.Context, req TokenRequest) (*AuthTokens, error) {
	if len(s.apiKeyHash) == 0 {
		s.logger.Warn("token requested but no api key hash is configured")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.apiKeyHash, []byte(req.APIKey)); err != nil {
		s.logger.Infof("rejected api key for user %s", req.UserID)
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &Claims{
		UserID: req.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   req.UserID,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		s.logger.Errorf("error signing token: %v", err)
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AuthTokens{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateToken implements AuthService
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
