// Package auth issues and verifies the JWT pair used by the API: a
// short-lived access token and a longer-lived refresh token, signed with
// separate HS256 secrets.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// TokenManager signs and parses both token kinds.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
}

func NewTokenManager(accessSecret, refreshSecret string) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// AccessToken issues an access token carrying the user id.
func (m *TokenManager) AccessToken(userID int64) (string, error) {
	return sign(userID, AccessTokenTTL, m.accessSecret)
}

// RefreshToken issues a refresh token carrying the user id.
func (m *TokenManager) RefreshToken(userID int64) (string, error) {
	return sign(userID, RefreshTokenTTL, m.refreshSecret)
}

// ParseAccessToken verifies an access token and returns the user id.
func (m *TokenManager) ParseAccessToken(tokenStr string) (int64, error) {
	return parse(tokenStr, m.accessSecret)
}

// ParseRefreshToken verifies a refresh token and returns the user id.
func (m *TokenManager) ParseRefreshToken(tokenStr string) (int64, error) {
	return parse(tokenStr, m.refreshSecret)
}

func sign(userID int64, ttl time.Duration, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func parse(tokenStr string, secret []byte) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	if !token.Valid {
		return 0, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrTokenInvalid
	}
	rawID, ok := claims["id"].(float64)
	if !ok {
		return 0, ErrTokenInvalid
	}
	return int64(rawID), nil
}
