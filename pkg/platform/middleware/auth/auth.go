// Package auth authenticates requests and places the resulting actor
// identity in the context. Token issuance is the identity provider's job;
// this side only verifies.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"custodia/internal/access"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/httputil"
)

type actorKey struct{}

// ActorFrom retrieves the authenticated actor from the context. The second
// return is false when the request never passed through RequireActor.
func ActorFrom(ctx context.Context) (access.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(access.Actor)
	return actor, ok
}

// WithActor injects an actor into the context. Exposed for handler tests.
func WithActor(ctx context.Context, actor access.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// RequireActor rejects requests without a valid bearer token. Malformed
// tokens and malformed claim shapes both fail closed with 401.
func RequireActor(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			actor, err := access.ActorFromToken(strings.TrimPrefix(header, bearerPrefix), signingKey)
			if err != nil {
				if logger != nil {
					logger.WarnContext(r.Context(), "rejected bearer token", "error", err)
				}
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
