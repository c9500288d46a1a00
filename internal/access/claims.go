package access

import (
	"github.com/golang-jwt/jwt/v5"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Claims is the token payload an actor identity is extracted from. Token
// issuance lives with the identity provider; this side only verifies and
// maps claims onto the closed builder surface.
type Claims struct {
	Scope     string `json:"scope"`
	TenantID  string `json:"tenant_id,omitempty"`
	Bootstrap bool   `json:"bootstrap,omitempty"`
	jwt.RegisteredClaims
}

// ActorFromToken verifies a bearer token and builds the Actor it describes.
// Every malformed shape (unknown scope, tenant claim on the wrong scope,
// missing tenant on TENANT scope) is rejected fail-closed with an
// unauthorized error, so an ill-formed context never reaches the engine.
func ActorFromToken(tokenString string, signingKey []byte) (Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.Newf(dErrors.CodeUnauthorized, "unexpected signing method %v", t.Header["alg"])
		}
		return signingKey, nil
	})
	if err != nil {
		return Actor{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	if !token.Valid {
		return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return actorFromClaims(claims)
}

func actorFromClaims(claims *Claims) (Actor, error) {
	switch Scope(claims.Scope) {
	case ScopeSystem:
		if claims.TenantID != "" {
			return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "system token must not carry a tenant")
		}
		return SystemContext(claims.Bootstrap), nil
	case ScopePlatform:
		if claims.TenantID != "" {
			return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "platform token must not carry a tenant")
		}
		if claims.Subject == "" {
			return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token subject required")
		}
		return PlatformContext(id.ActorID(claims.Subject)), nil
	case ScopeTenant:
		if claims.Subject == "" {
			return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token subject required")
		}
		tenantID, err := id.ParseTenantID(claims.TenantID)
		if err != nil {
			return Actor{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "tenant token requires a valid tenant")
		}
		return TenantContext(tenantID, id.ActorID(claims.Subject))
	default:
		return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "unknown scope in token")
	}
}
