package access

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/gestion/core/logger"
)

// DefaultTokenValidity is the lifetime of issued tokens unless configured otherwise
const DefaultTokenValidity = time.Hour

// ErrInvalidToken is returned by Verify for tokens with a bad signature, an
// unexpected signing method, or which have expired
var ErrInvalidToken = errors.New("invalid token")

// Claims are the claims carried by a token
type Claims struct {
	Username string `json:"username"`
	Rol      string `json:"rol"`
	jwt.StandardClaims
}

// Authorization returns the authorization for the claims
func (c *Claims) Authorization() *Authorization {
	auth := &Authorization{Username: c.Username}
	if len(c.Rol) > 0 {
		auth.Roles = []string{c.Rol}
	}
	return auth
}

// Issuer signs and verifies HS256 tokens with a shared secret
type Issuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewIssuer returns an issuer for secret. A validity of zero selects DefaultTokenValidity.
func NewIssuer(secret string, validity time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token secret must not be empty")
	}
	if validity <= 0 {
		validity = DefaultTokenValidity
	}
	return &Issuer{secret: []byte(secret), validity: validity, now: time.Now}, nil
}

// Sign returns a signed token for username with role rol
func (i *Issuer) Sign(username, rol string) (string, error) {
	now := i.now()
	claims := Claims{
		Username: username,
		Rol:      rol,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.validity).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks signature and expiry of tokenString and returns its claims
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// bearerToken extracts the token from the Authorization header. Both
// "Bearer <token>" and a plain token are accepted.
func bearerToken(r *http.Request) string {
	bearer := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(bearer) == 0 || bearer == "null" {
		return ""
	}
	if len(bearer) >= 7 && strings.EqualFold(bearer[:7], "bearer ") {
		return strings.TrimSpace(bearer[7:])
	}
	return bearer
}

// RequireToken returns a middleware which rejects requests without a valid
// bearer token.
//
// A missing token is answered with http.StatusUnauthorized, an invalid or
// expired token with http.StatusForbidden. Otherwise the authorization is added
// to the request context and the request logger carries the username.
func (i *Issuer) RequireToken() mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if len(tokenString) == 0 {
				writeError(w, http.StatusUnauthorized, "token missing")
				return
			}
			claims, err := i.Verify(tokenString)
			if err != nil {
				logger.FromContext(r.Context()).WithError(err).Infoln("rejected token")
				writeError(w, http.StatusForbidden, "invalid token")
				return
			}
			ctx, _ := logger.ContextWithLoggerIdentity(r.Context(), claims.Username)
			ctx = claims.Authorization().ContextWithAuthorization(ctx)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware which only lets requests pass whose
// authorization carries role. It must run after RequireToken.
func RequireRole(role string) mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !AuthorizationFromContext(r.Context()).HasRole(role) {
				writeError(w, http.StatusForbidden, "access denied")
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}
