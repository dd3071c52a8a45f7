package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"rafflehouse/domain/entities"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// AdminSecretHeader carries the shared admin secret
const AdminSecretHeader = "X-Admin-Secret"

type contextKey int

const identityKey contextKey = iota

// UserClaims are the identity provider's token claims
type UserClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// identityFrom returns the authenticated caller
func identityFrom(ctx context.Context) (entities.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(entities.Identity)
	return identity, ok
}

// withIdentity stores the caller on the context
func withIdentity(ctx context.Context, identity entities.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// parseBearerToken verifies an HS256 token and returns the caller it names
func parseBearerToken(header, secret string) (entities.Identity, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return entities.Identity{}, errors.New("missing bearer token")
	}

	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return entities.Identity{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return entities.Identity{}, errors.New("token has no subject")
	}

	return entities.Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// requireUser authenticates the caller and makes sure they exist as a user
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := parseBearerToken(r.Header.Get("Authorization"), s.jwtSecret)
		if err != nil {
			respondStatus(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		if _, err := s.accounts.EnsureUser(r.Context(), identity); err != nil {
			respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// requireAdmin checks the shared admin secret in constant time
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get(AdminSecretHeader)
		if s.adminSecret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(s.adminSecret)) != 1 {
			log.WithFields(log.Fields{
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Warn("Rejected admin request")
			respondStatus(w, http.StatusUnauthorized, "unauthorized", "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
