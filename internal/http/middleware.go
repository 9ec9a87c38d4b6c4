package http

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "user_id"

// withAuth requires a valid bearer token and stores the token's user id in
// the request context. Missing, malformed and invalid tokens all yield the
// same 401.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondJSON(w, http.StatusUnauthorized, errorBody{Message: "Invalid or missing token"})
			return
		}

		userID, err := s.authSvc.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			respondJSON(w, http.StatusUnauthorized, errorBody{Message: "Invalid or missing token"})
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// userIDFrom returns the authenticated user id stored by withAuth.
func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}
