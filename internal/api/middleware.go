package api

import (
	"context"
	"net/http"

	"github.com/Ayan1Dutta/InterviewEasy/internal/utils"
)

type contextKey string

const emailKey contextKey = "email"

// EmailFromContext returns the authenticated identity set by RequireAuth.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}

// RequireAuth validates the Bearer token (or ?token= for WebSocket clients,
// which cannot set headers) and stores the authenticated email on the context.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			var err error
			tokenString, err = utils.ExtractTokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				utils.JSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized - No Token Provided"})
				return
			}
		}

		claims, err := utils.ValidateAccessToken(tokenString)
		if err != nil {
			utils.JSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized - Invalid Token"})
			return
		}

		ctx := context.WithValue(r.Context(), emailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
