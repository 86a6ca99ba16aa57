package mw

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type ctxKey string

const ownerKey ctxKey = "owner"

// OwnerFrom returns the authenticated owner stored by Authenticate.
func OwnerFrom(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey).(string)
	return owner, ok && owner != ""
}

// WithOwner stores owner in ctx.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// Authenticate requires "Authorization: Bearer <token>" and puts the token's
// owner in the request context. Browsers cannot set headers on a websocket
// handshake, so the token may also come as ?access_token=.
func Authenticate(tokens deps.TokenVerifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			owner, err := tokens.Verify(token)
			if err != nil {
				log.Debug("rejected bearer token",
					logger.String("path", r.URL.Path),
					logger.Error(err))
				unauthorized(w)
				return
			}

			annotateOwner(r.Context(), owner)
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="marks"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": domain.MsgUnauthorized})
}
