// Package auth issues and checks the HS256 tokens that gate the
// administrative surface (cleanup trigger, debug actions).
package auth

import (
	"errors"
	"time"

	"github.com/dpetrovs/localsync/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the role claim required by admin-only endpoints.
const AdminRole = "admin"

// Claims carries the registered claims plus the caller's role.
type Claims struct {
	jwt.RegisteredClaims
	Role string
}

// GenerateToken signs a token for the given role with the shared secret.
func GenerateToken(role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetRoleFromToken validates the token signature and expiry and returns the
// embedded role claim.
func GetRoleFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrInvalidToken
		}
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Role, nil
}

// CheckAdmin returns ErrorUnauthorized unless the token is valid and grants
// the admin role.
func CheckAdmin(tokenString string, secretKey []byte) error {
	role, err := GetRoleFromToken(tokenString, secretKey)
	if err != nil {
		return common.ErrorUnauthorized
	}
	if role != AdminRole {
		return common.ErrorUnauthorized
	}
	return nil
}
