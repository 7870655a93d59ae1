package service

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/repository"
)

const (
	ownerKey     = "auth.owner"
	ownerSubject = "owner"
)

type owner struct {
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthService guards the API for the single local owner of the timer.
type AuthService struct {
	kv        KVStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(kv KVStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		kv:        kv,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Setup sets the owner password. It can only be done once.
func (s *AuthService) Setup(ctx context.Context, password string) (*AuthResult, *apperrors.APIError) {
	if len(password) < 6 {
		return nil, apperrors.BadRequest("invalid_password", "password must be at least 6 characters")
	}

	var existing owner
	err := s.kv.Get(ctx, ownerKey, &existing)
	if err == nil {
		return nil, apperrors.Conflict("owner_exists", "owner already configured", nil)
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("failed to query owner")
	}

	passwordHashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to secure password")
	}

	record := owner{
		PasswordHash: string(passwordHashBytes),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.kv.Set(ctx, ownerKey, record); err != nil {
		return nil, apperrors.Internal("failed to save owner")
	}

	return s.issueToken()
}

func (s *AuthService) Login(ctx context.Context, password string) (*AuthResult, *apperrors.APIError) {
	if password == "" {
		return nil, apperrors.BadRequest("invalid_credentials", "password is required")
	}

	record, apiErr := s.loadOwner(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Unauthorized("invalid password")
	}

	return s.issueToken()
}

func (s *AuthService) ParseToken(tokenString string) (string, *apperrors.APIError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", apperrors.Unauthorized("invalid token")
	}

	if claims.Subject != ownerSubject {
		return "", apperrors.Unauthorized("invalid token subject")
	}

	return claims.Subject, nil
}

func (s *AuthService) loadOwner(ctx context.Context) (*owner, *apperrors.APIError) {
	var record owner
	err := s.kv.Get(ctx, ownerKey, &record)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("owner not configured")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to query owner")
	}
	return &record, nil
}

func (s *AuthService) issueToken() (*AuthResult, *apperrors.APIError) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   ownerSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperrors.Internal("failed to sign token")
	}
	return &AuthResult{Token: signed, ExpiresAt: expiresAt}, nil
}
