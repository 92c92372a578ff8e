package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const PlayerIDKey contextKey = "playerID"

// BearerToken extracts the token from an "Authorization: Bearer" header.
// Browsers cannot set headers on websocket upgrades, so the "token" query
// parameter is accepted as a fallback.
func BearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if t := r.URL.Query().Get("token"); t != "" {
		return t, true
	}
	return "", false
}

// AuthMiddleware rejects requests without a valid token.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing or malformed authorization")
			return
		}

		playerID, err := s.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPlayerID(r.Context(), playerID)))
	})
}

// OptionalMiddleware attaches the player when a valid token is present and
// lets anonymous requests through untouched. An invalid token is still an
// error.
func (s *Service) OptionalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		playerID, err := s.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPlayerID(r.Context(), playerID)))
	})
}

func PlayerIDFromContext(ctx context.Context) string {
	playerID, _ := ctx.Value(PlayerIDKey).(string)
	return playerID
}

func WithPlayerID(ctx context.Context, playerID string) context.Context {
	return context.WithValue(ctx, PlayerIDKey, playerID)
}
