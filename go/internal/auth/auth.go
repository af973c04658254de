// Package auth resolves the operator id from a bearer token issued by the
// identity provider. Only the subject claim is read.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// DevOwnerHeader names the owner when no signing secret is configured.
const DevOwnerHeader = "X-Owner-ID"

// DevOwner is used in development mode when no owner header is sent.
const DevOwner = "local"

var (
	ErrNoToken      = errors.New("no authorization token")
	ErrInvalidToken = errors.New("invalid token")
)

type ownerKey struct{}

// WithOwner returns a context carrying the owner id.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext returns the owner id attached by the middleware.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

// Verifier validates HS256 tokens. With an empty secret it runs in
// development mode and trusts the X-Owner-ID header.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	if secret == "" {
		log.Warn().Msg("JWT secret not set, trusting X-Owner-ID header")
	}
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// DevMode reports whether tokens are skipped.
func (v *Verifier) DevMode() bool {
	return len(v.secret) == 0
}

// Owner extracts the owner id from a raw token string.
func (v *Verifier) Owner(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return "", ErrNoToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err == nil && !token.Valid {
		err = errors.New("token not valid")
	}
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "parse token"), ErrInvalidToken)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.Mark(errors.New("invalid map claims"), ErrInvalidToken)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.Mark(errors.New("subject not found"), ErrInvalidToken)
	}
	return sub, nil
}

// OwnerFromRequest reads the Authorization header, falling back to the
// access_token query parameter that browser websockets have to use.
func (v *Verifier) OwnerFromRequest(r *http.Request) (string, error) {
	if v.DevMode() {
		if owner := r.Header.Get(DevOwnerHeader); owner != "" {
			return owner, nil
		}
		return DevOwner, nil
	}
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("access_token")
	}
	return v.Owner(token)
}

// Middleware rejects requests without a valid token and stores the owner
// id on the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := v.OwnerFromRequest(r)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("unauthorized request")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}

// Sign issues a token for ownerID. Used by tooling and tests.
func Sign(secret, issuer, ownerID string, claims jwt.MapClaims) (string, error) {
	if claims == nil {
		claims = jwt.MapClaims{}
	}
	claims["sub"] = ownerID
	if issuer != "" {
		claims["iss"] = issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
