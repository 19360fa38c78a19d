package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carried by viewer tokens
type Claims struct {
	UserID string `json:"user_id"`
	jwtlib.RegisteredClaims
}

// Verifier resolves a bearer token to a viewer
type Verifier interface {
	Verify(token string) (domain.User, error)
}

// HMACService signs and verifies HS256 tokens. Tokens are normally issued by
// the account service; Issue exists for tooling and tests.
type HMACService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewHMACService creates an HMACService
func NewHMACService(secret, issuer string) *HMACService {
	return &HMACService{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue signs a token for userID valid for ttl
func (s *HMACService) Issue(userID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the token and returns the authenticated viewer
func (s *HMACService) Verify(tokenString string) (domain.User, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwtlib.ParseWithClaims(tokenString, &claims, func(*jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return domain.User{}, ErrTokenExpired
		}
		return domain.User{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.UserID == "" {
		return domain.User{}, fmt.Errorf("%w: missing user_id", ErrTokenInvalid)
	}

	return domain.User{ID: claims.UserID, IsAuthenticated: true}, nil
}
