package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/cupid-code/internal/database"
	logpkg "github.com/benvon/cupid-code/internal/logger"
	"github.com/benvon/cupid-code/internal/models"
	"github.com/benvon/cupid-code/internal/request"
	"go.uber.org/zap"
)

// TokenVerifier checks an access token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

var errNoToken = errors.New("missing bearer token")

// authenticator resolves the bearer token of a request to a user
type authenticator struct {
	verifier TokenVerifier
	users    database.UserRepositoryInterface
	logger   *zap.Logger
}

// resolve returns the user for the request token. Token problems are
// reported as errNoToken or a verification error; repository failures are
// returned with isServerErr set.
func (a *authenticator) resolve(r *http.Request) (user *models.User, isServerErr bool, err error) {
	token, ok := request.BearerToken(r)
	if !ok {
		return nil, false, errNoToken
	}

	ctx := r.Context()
	claims, err := a.verifier.Verify(ctx, token)
	if err != nil {
		a.logger.Debug("token_verification_failed",
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return nil, false, err
	}

	user, err = a.users.GetByProviderID(ctx, claims.Sub)
	switch {
	case errors.Is(err, database.ErrNotFound):
		user, err = a.users.UpsertFromClaims(ctx, claims)
	case err == nil && profileChanged(user, claims):
		user, err = a.users.UpsertFromClaims(ctx, claims)
	}
	if err != nil {
		a.logger.Error("user_lookup_failed",
			zap.String("provider_id", logpkg.SanitizeUserID(claims.Sub)),
			zap.Error(err),
		)
		return nil, true, err
	}
	return user, false, nil
}

func profileChanged(user *models.User, claims *models.JWTClaims) bool {
	if claims.Email != "" && user.Email != claims.Email {
		return true
	}
	if claims.Name != "" && (user.Name == nil || *user.Name != claims.Name) {
		return true
	}
	return false
}

// Auth rejects requests without a valid bearer token and puts the user in the context
func Auth(verifier TokenVerifier, users database.UserRepositoryInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	a := &authenticator{verifier: verifier, users: users, logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, isServerErr, err := a.resolve(r)
			if err != nil {
				switch {
				case isServerErr:
					respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to load user", logger)
				case errors.Is(err, errNoToken):
					respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing or malformed Authorization header", logger)
				default:
					respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token", logger)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the user when the request carries a valid token and
// otherwise passes the request through unchanged
func OptionalAuth(verifier TokenVerifier, users database.UserRepositoryInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	a := &authenticator{verifier: verifier, users: users, logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, _, err := a.resolve(r); err == nil {
				r = r.WithContext(request.WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}
