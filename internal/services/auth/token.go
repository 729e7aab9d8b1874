package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
)

const issuer = "campusgo"

// claims is the JWT payload of a bearer token
type claims struct {
	jwt.RegisteredClaims
}

// issueToken signs a token for acct valid from now for ttl
func (s *Service) issueToken(acct *model.Account, now time.Time) (*Token, error) {
	expiresAt := now.Add(s.tokenTTL)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(acct.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Token{
		Value:     signed,
		TokenID:   c.ID,
		AccountID: acct.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// parseToken verifies the signature and expiry of raw against the service clock
func (s *Service) parseToken(raw string) (*claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)

	var c claims
	_, err := parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, errors.Join(model.ErrInvalidToken, err)
	}
	if c.ID == "" || c.Subject == "" {
		return nil, model.ErrInvalidToken
	}
	return &c, nil
}
