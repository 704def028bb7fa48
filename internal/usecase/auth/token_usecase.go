package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// TokenUseCase verifies the bearer tokens issued by the main application and resolves the caller.
// Issuing exists for local tooling and tests; sessions are managed elsewhere.
type TokenUseCase struct {
	secret   []byte
	userRepo repository.UserRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenUseCase(secret string, userRepo repository.UserRepository) *TokenUseCase {
	return &TokenUseCase{
		secret:   []byte(secret),
		userRepo: userRepo,
		ttl:      defaultTokenTTL,
		now:      time.Now,
	}
}

// IssueToken signs an HS256 token carrying the user_id claim.
func (uc *TokenUseCase) IssueToken(userID int) (string, time.Time, error) {
	now := uc.now()
	expiresAt := now.Add(uc.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	})
	signed, err := token.SignedString(uc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken checks the signature and expiry and returns the user id claim.
func (uc *TokenUseCase) VerifyToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return uc.secret, nil
	}, jwt.WithTimeFunc(uc.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, domain.ErrUnauthorized
	}
	return int(userID), nil
}

// CurrentUser resolves a token to an active user.
func (uc *TokenUseCase) CurrentUser(ctx context.Context, tokenString string) (*domain.User, error) {
	userID, err := uc.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrForbidden
	}
	return user, nil
}
