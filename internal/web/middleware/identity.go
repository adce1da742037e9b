package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the caller identified by a bearer token.
type User struct {
	ID    string
	Email string
}

// Claims is the payload of tokens issued by the auth service:
// {"user_id": "...", "email": "...", "exp": ...} signed with HS256.
type Claims struct {
	UserID any    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// UserIDString returns user_id as a string. Numeric IDs are accepted too.
func (c *Claims) UserIDString() string {
	switch v := c.UserID.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

var (
	errNoSecret     = errors.New("token verification is not configured")
	errMissingUser  = errors.New("token has no user_id")
	errBadAuthzType = errors.New("authorization header is not a bearer token")
)

type ctxKey int

const (
	userKey ctxKey = iota
	userSlotKey
)

// userSlot lets Identity report the user back to Logger, which wraps the
// request before Identity runs.
type userSlot struct {
	user User
}

func withUserSlot(ctx context.Context, s *userSlot) context.Context {
	return context.WithValue(ctx, userSlotKey, s)
}

// UserFromContext returns the user stored by Identity.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok && u.ID != ""
}

// ContextWithUser stores u as the authenticated user.
func ContextWithUser(ctx context.Context, u User) context.Context {
	if slot, ok := ctx.Value(userSlotKey).(*userSlot); ok {
		slot.user = u
	}
	return context.WithValue(ctx, userKey, u)
}

// TokenVerifier checks HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewTokenVerifier returns a verifier for secret. An empty secret rejects
// every token.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), leeway: 30 * time.Second}
}

// Verify parses and validates a token string and returns its user.
func (v *TokenVerifier) Verify(token string) (User, error) {
	if len(v.secret) == 0 {
		return User{}, errNoSecret
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return User{}, err
	}

	id := claims.UserIDString()
	if id == "" {
		return User{}, errMissingUser
	}
	return User{ID: id, Email: claims.Email}, nil
}

// Identity authenticates requests that carry an Authorization header.
// Requests without one pass through anonymously; a present but invalid
// token is rejected with 401.
func Identity(v *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(header)
			if err == nil {
				var user User
				if user, err = v.Verify(token); err == nil {
					next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
					return
				}
			}

			writeError(w, http.StatusUnauthorized, "AUTH002", "Invalid or expired token", "Sign in again to get a new token")
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "AUTH001", "No token provided", "Sign in and send the token as a Bearer Authorization header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errBadAuthzType
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errBadAuthzType
	}
	return token, nil
}
