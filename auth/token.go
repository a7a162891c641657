package auth

import (
	"errors"
	"time"

	"qrono/config"

	"github.com/golang-jwt/jwt/v5"
)

// TokenHeader carries the bearer token on every authenticated request.
const TokenHeader = "x-auth-token"

// TokenValidity matches the original session length.
const TokenValidity = 5 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user id as the only custom claim.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint64 `json:"user_id"`
}

func IssueToken(userID uint64) (string, error) {
	return IssueTokenAt(userID, time.Now())
}

// IssueTokenAt exists so expiry behaviour can be exercised without waiting.
func IssueTokenAt(userID uint64, issuedAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenValidity)),
		},
		UserID: userID,
	})
	return token.SignedString([]byte(config.JWT_SECRET))
}

// ParseToken validates the signature and expiry and returns the user id.
// Every failure mode collapses to ErrInvalidToken.
func ParseToken(tokenString string) (uint64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(config.JWT_SECRET), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
