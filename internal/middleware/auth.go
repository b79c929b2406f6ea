package middleware

import (
	"errors"
	"net/http"

	"shopapp/internal/auth"
	"shopapp/internal/logger"
	"shopapp/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Auth requires an HS256 token signed with secret, sent as a bearer token or
// the bridge cookie. The token subject becomes the client id. An empty secret
// disables the check. Paths in open are always let through.
func Auth(secret string, open ...string) func(http.Handler) http.Handler {
	key := []byte(secret)
	skip := make(map[string]bool, len(open))
	for _, p := range open {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr := auth.ExtractBridgeToken(r)
			if tokenStr == "" {
				utils.WriteJSONError(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				if err == nil {
					err = errors.New("token invalid")
				}
				logger.FromCtx(r.Context()).Warn("rejected bridge token", zap.Error(err))
				utils.WriteJSONError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			subject, _ := token.Claims.GetSubject()
			if subject == "" {
				utils.WriteJSONError(w, "token has no subject", http.StatusUnauthorized)
				return
			}

			ctx := utils.SetClientContext(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
