package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"profile-service/config"
	"profile-service/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityMiddleware resolves the caller identity injected by the upstream
// gateway. Only the configured source is read. It never rejects a request;
// handlers decide what a missing identity means.
func IdentityMiddleware(cfg config.IdentityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromRequest(r, cfg)
			if identity == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityKey).(string)
	return identity, ok && identity != ""
}

func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func identityFromRequest(r *http.Request, cfg config.IdentityConfig) string {
	if cfg.Source == config.IdentitySourceHeader {
		if cfg.Header == "" {
			return ""
		}
		return strings.TrimSpace(r.Header.Get(cfg.Header))
	}

	raw := r.Header.Get(utils.APIGatewayEventHeader)
	if raw == "" {
		return ""
	}
	event, err := utils.ParseAPIGatewayEvent(raw)
	if err != nil {
		log.Printf("ignoring gateway event: path=%s err=%v", r.URL.Path, err)
		return ""
	}
	return event.RequestContext.Identity.CognitoIdentityID
}
