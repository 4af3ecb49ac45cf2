package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
)

type contextKey string

const UserContextKey contextKey = "user"

type UserContext struct {
	UserID int64
}

// Middleware authenticates the bearer access token and loads the caller's
// identity into the request context.
func Middleware(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apperrors.WriteError(w, requestID(r), apperrors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				apperrors.WriteError(w, requestID(r), apperrors.Unauthorized("invalid authorization header format"))
				return
			}

			userID, err := service.ValidateAccess(parts[1])
			if err != nil {
				apperrors.WriteError(w, requestID(r), err)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, &UserContext{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserFromContext(ctx context.Context) *UserContext {
	user, ok := ctx.Value(UserContextKey).(*UserContext)
	if !ok {
		return nil
	}
	return user
}
