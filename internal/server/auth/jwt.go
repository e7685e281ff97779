package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the authenticated user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// GenerateToken signs an HS256 access token for userID valid for validityDuration.
func GenerateToken(userID int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// GetUserIDFromToken validates tokenString and returns the embedded user id.
// Expired tokens yield common.ErrTokenExpired; any other failure yields
// common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, common.ErrTokenExpired
		}
		return 0, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == 0 {
		return 0, common.ErrInvalidToken
	}

	return claims.UserID, nil
}
