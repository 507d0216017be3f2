package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/trueheartapps/versesync/internal/common"
)

type contextKey string

const contextKeyUserID contextKey = "userID"

// requireAuth extracts the bearer token, validates the session and stashes
// the user id in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}

		session, err := s.users.Validate(r.Context(), token)
		if err != nil {
			if err == common.ErrorUnauthorized {
				writeError(w, http.StatusUnauthorized, "invalid session token")
				return
			}
			writeError(w, http.StatusInternalServerError, "session validation failed")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(common.SessionTokenHeader)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func getUserID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyUserID).(string)
	return id
}
