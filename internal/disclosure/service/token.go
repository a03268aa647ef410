package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"aidgate/pkg/derrors"
)

// TokenClaims are the claims carried by a disclosure token. The token proves
// a recent PIN verification so follow-up reads skip re-entering the PIN.
type TokenClaims struct {
	BeneficiaryID string `json:"beneficiary_id"`
	NationalID    string `json:"national_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates short-lived disclosure tokens.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

func NewTokenIssuer(signingKey string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

func (t *TokenIssuer) Issue(beneficiaryID, nationalID string, now time.Time) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		BeneficiaryID: beneficiaryID,
		NationalID:    nationalID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "aidgate",
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(t.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func (t *TokenIssuer) Validate(tokenString string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, derrors.New(derrors.CodeUnauthorized, "token has expired")
		}
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
