package middleware

import (
	"context"
	"errors"
	"net/http"

	"dockyard/internal/common"
	"dockyard/internal/common/security"
	"dockyard/internal/domain/model"
	"dockyard/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const userCtxKey contextKey = "currentUser"

// Authenticator validates the bearer token placed in context by the
// jwtauth verifier and re-resolves the subject against the credential
// store: a structurally valid token for a deleted account still fails.
func Authenticator(userRepo repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			username, err := security.GetSubjectFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}
			role, err := security.GetRoleFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}

			user, err := userRepo.FindByUsername(r.Context(), username)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					common.RespondWithError(w, http.StatusUnauthorized, "Could not validate credentials")
					return
				}
				common.RespondWithError(w, http.StatusInternalServerError, "Failed to resolve user")
				return
			}
			if user.Role == "" {
				user.Role = role
			}

			ctx := context.WithValue(r.Context(), userCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles allows the request through iff the authenticated identity's
// role is in the allowed set. Each privileged route declares its set here.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				common.RespondWithError(w, http.StatusForbidden, "You don't have sufficient permissions to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly is shorthand for the admin-only allowed-role set.
func AdminOnly(next http.Handler) http.Handler {
	return RequireRoles(model.RoleAdmin)(next)
}

// GetUserFromContext returns the authenticated user placed by Authenticator.
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*model.User)
	return user, ok
}
