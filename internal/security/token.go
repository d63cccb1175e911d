package security

import (
	"errors"
	"strconv"
	"time"

	"rentdesk-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const TokenTypeAccess TokenType = "access"

const (
	issuer   = "rentdesk-auth"
	audience = "rentdesk-api"
)

// StaffClaims are the claims of a store staff access token.
type StaffClaims struct {
	UserID  int64       `json:"user_id"`
	StoreID int64       `json:"store_id,omitempty"` // empty for super admins
	Role    domain.Role `json:"role"`
	Type    TokenType   `json:"type"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the caller identity used by the services.
func (c *StaffClaims) Principal() domain.Principal {
	return domain.Principal{UserID: c.UserID, StoreID: c.StoreID, Role: c.Role}
}

type TokenManager interface {
	GenerateAccessToken(p domain.Principal) (string, error)
	ValidateToken(tokenString string) (*StaffClaims, error)
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &tokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *tokenManager) GenerateAccessToken(p domain.Principal) (string, error) {
	if !p.Role.Valid() {
		return "", ErrInvalidToken
	}
	now := m.now()
	claims := StaffClaims{
		UserID:  p.UserID,
		StoreID: p.StoreID,
		Role:    p.Role,
		Type:    TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithAudience(audience), jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	// store staff must carry a store
	if claims.Role != domain.RoleSuperAdmin && claims.StoreID <= 0 {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 && claims.Subject != "" {
		uid, _ := strconv.ParseInt(claims.Subject, 10, 64)
		claims.UserID = uid
	}
	return claims, nil
}
