package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleStoreOwner Role = "store_owner"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStoreOwner, RoleAdmin:
		return true
	}
	return false
}

// Claims mirrors the access token issued by the external auth service.
type Claims struct {
	UserID     string  `json:"user_id"`
	Email      string  `json:"email"`
	Role       Role    `json:"role"`
	MerchantID *string `json:"merchant_id,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrMissingToken    = errors.New("missing access token")
	ErrInvalidToken    = errors.New("invalid access token")
	ErrMissingUserID   = errors.New("access token has no user id")
	ErrUnexpectedAlgor = errors.New("unexpected signing method")
)

// ParseClaims reads the claims of an access token. The signature is verified
// when secret is non-empty; otherwise the token is only decoded and its expiry
// checked, leaving verification to the remote API.
func ParseClaims(token, secret string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, errors.Join(ErrInvalidToken, err)
		}
		if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			return nil, errors.Join(ErrInvalidToken, jwt.ErrTokenExpired)
		}
	} else {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrUnexpectedAlgor
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, errors.Join(ErrInvalidToken, err)
		}
		if !parsed.Valid {
			return nil, ErrInvalidToken
		}
	}

	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if !claims.Role.Valid() {
		claims.Role = RoleCustomer
	}
	return claims, nil
}
