package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTokenExpiry = 30 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// AuthService issues and checks the anonymous session tokens that scope portfolio state.
type AuthService struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

func NewAuthService(secret string, expiry time.Duration) *AuthService {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &AuthService{
		JWTSecret:   secret,
		TokenExpiry: expiry,
	}
}

// NewSession creates a fresh session id and its signed token.
func (a *AuthService) NewSession() (sessionID, token string, err error) {
	sessionID = uuid.NewString()
	token, err = a.GenerateToken(sessionID)
	if err != nil {
		return "", "", err
	}
	return sessionID, token, nil
}

func (a *AuthService) GenerateToken(sessionID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.TokenExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

// ValidateToken returns the session id carried by a valid token.
func (a *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	// Ensure 'sub' claim is a session id we issued
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("%w: 'sub' claim is not a session id", ErrInvalidToken)
	}
	return claims.Subject, nil
}
