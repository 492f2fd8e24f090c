package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"atrium/internal/shared/biztime"
	"atrium/internal/shared/constants"

	vo "atrium/internal/domain/user/valueobjects"
)

// Sentinel errors for token verification. Callers map these onto the shared
// auth error taxonomy.
var (
	ErrTokenExpired          = errors.New("access token has expired")
	ErrTokenInvalid          = errors.New("access token is invalid")
	ErrTokenProviderMismatch = errors.New("access token was issued by a different provider")
)

// Claims carried by an access token: enough to identify subject, email and
// issuing provider without a storage round trip.
type Claims struct {
	Email    string `json:"email"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// TokenPair is the access/refresh pair handed to callers on sign-in,
// sign-up and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// TokenIssuer signs short-lived HS256 access tokens and generates the opaque
// refresh tokens persisted on session rows. Refresh tokens carry no claims;
// they can be revoked instantly by retiring the session.
type TokenIssuer struct {
	secret           []byte
	accessExpMinutes int
}

func NewTokenIssuer(secret string, accessExpMinutes int) *TokenIssuer {
	if accessExpMinutes <= 0 {
		accessExpMinutes = 15
	}
	return &TokenIssuer{
		secret:           []byte(secret),
		accessExpMinutes: accessExpMinutes,
	}
}

// IssueAccessToken signs an access token for the given subject under the
// given provider tag.
func (s *TokenIssuer) IssueAccessToken(userSID, email string, provider constants.Provider) (string, int64, error) {
	now := biztime.NowUTC()
	exp := now.Add(time.Duration(s.accessExpMinutes) * time.Minute)

	claims := &Claims{
		Email:    email,
		Provider: provider.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userSID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, int64(s.accessExpMinutes * 60), nil
}

// VerifyAccessToken checks signature and expiry, then enforces that the
// token was minted by the expected provider. A token issued by one provider
// must never validate against another provider's verification path; that
// confusion is rejected explicitly, never silently accepted.
func (s *TokenIssuer) VerifyAccessToken(tokenString string, expected constants.Provider) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Provider != expected.String() {
		return nil, ErrTokenProviderMismatch
	}

	return claims, nil
}

// NewRefreshToken generates an opaque refresh token. The plain value goes to
// the caller; only the hash is persisted on the session row.
func (s *TokenIssuer) NewRefreshToken() (*vo.Token, error) {
	token, err := vo.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return token, nil
}

// AccessExpMinutes returns the access token expiration time in minutes.
func (s *TokenIssuer) AccessExpMinutes() int {
	return s.accessExpMinutes
}
