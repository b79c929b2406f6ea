package auth

import (
	"net/http"
	"strings"
)

// CookieName is where a web-view shell keeps its bridge token.
const CookieName = "bridge_token"

// ExtractBridgeToken prefers the Authorization header and falls back to the
// bridge cookie.
func ExtractBridgeToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
		return token
	}

	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
