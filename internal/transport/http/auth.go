package httptransport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vigia/pkg/platform/httputil"
)

const tokenIssuer = "vigia"

// Claims are the access-token claims for analyst sessions.
type Claims struct {
	Analyst string `json:"analyst"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 access tokens for the batch
// endpoints.
type TokenService struct {
	signingKey []byte
}

func NewTokenService(signingKey string) *TokenService {
	return &TokenService{signingKey: []byte(signingKey)}
}

func (s *TokenService) Generate(analyst string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Analyst: analyst,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token has expired")
		}
		return nil, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

type contextKey string

const analystKey contextKey = "analyst"

// Analyst returns the authenticated analyst name, empty when unauthenticated.
func Analyst(ctx context.Context) string {
	analyst, _ := ctx.Value(analystKey).(string)
	return analyst
}

// RequireAuth gates mutating endpoints behind a bearer token.
func (s *TokenService) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			httputil.WriteUnauthorized(w, "bearer token required")
			return
		}
		claims, err := s.Validate(token)
		if err != nil {
			httputil.WriteUnauthorized(w, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), analystKey, claims.Analyst)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
