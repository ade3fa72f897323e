package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the marketplace access token claims. Subject is the user id;
// ProfessionalID is present for users who manage an agenda.
type Claims struct {
	jwt.RegisteredClaims
	ProfessionalID string `json:"professional_id,omitempty"`
}

type TokenVerifier interface {
	ParseToken(token string) (*Claims, error)
}

// JWTService verifies HS256 tokens issued by the marketplace auth service.
// IssueToken exists for local tooling and tests.
type JWTService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTService(secret, issuer string) *JWTService {
	return &JWTService{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (s *JWTService) ParseToken(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	if claims.ProfessionalID != "" {
		if _, err := uuid.Parse(claims.ProfessionalID); err != nil {
			return nil, fmt.Errorf("%w: malformed professional_id", ErrInvalidToken)
		}
	}
	return claims, nil
}

func (s *JWTService) IssueToken(userID uuid.UUID, professionalID *uuid.UUID, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if professionalID != nil {
		claims.ProfessionalID = professionalID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
