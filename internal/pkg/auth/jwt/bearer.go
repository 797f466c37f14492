package jwt

import (
	"net/http"
	"strings"
)

// TokenQueryKey is the query parameter consulted when no Authorization header is present.
// Browser WebSocket clients cannot set headers on the handshake request.
const TokenQueryKey = "token"

// BearerToken extracts the credential from a handshake request.
// It reads "Authorization: Bearer <token>" first and falls back to the token query parameter.
// An empty string means no credential was supplied.
func BearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	return strings.TrimSpace(r.URL.Query().Get(TokenQueryKey))
}
