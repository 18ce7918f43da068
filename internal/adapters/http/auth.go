package httpadapter

import (
	"context"
	"net/http"
	"strings"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

type userContextKey struct{}

func userFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey{}).(*domain.User)
	return user
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireUser resolves the bearer token to a user before calling next.
func (rt *Router) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		user, err := rt.accounts.Authenticate(r.Context(), token)
		if err != nil {
			if mapErrorToHTTPStatus(err) == http.StatusUnauthorized {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			writeError(w, r, err)
			return
		}
		noteUser(r.Context(), user.ID)
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, user)))
	}
}
