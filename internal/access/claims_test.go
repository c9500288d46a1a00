package access

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

var testSigningKey = []byte("test-signing-key")

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSigningKey)
	require.NoError(t, err)
	return signed
}

func TestActorFromToken(t *testing.T) {
	tenantID := id.NewTenantID()

	t.Run("tenant token maps to tenant actor", func(t *testing.T) {
		raw := signToken(t, Claims{
			Scope:            string(ScopeTenant),
			TenantID:         tenantID.String(),
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-7"},
		})

		actor, err := ActorFromToken(raw, testSigningKey)
		require.NoError(t, err)
		assert.Equal(t, ScopeTenant, actor.Scope())
		assert.Equal(t, tenantID, actor.TenantID())
		assert.Equal(t, id.ActorID("user-7"), actor.ActorID())
	})

	t.Run("tenant token without tenant is rejected", func(t *testing.T) {
		raw := signToken(t, Claims{
			Scope:            string(ScopeTenant),
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-7"},
		})
		_, err := ActorFromToken(raw, testSigningKey)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("platform token with tenant claim is rejected", func(t *testing.T) {
		raw := signToken(t, Claims{
			Scope:            string(ScopePlatform),
			TenantID:         tenantID.String(),
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops-1"},
		})
		_, err := ActorFromToken(raw, testSigningKey)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("system token keeps the bootstrap flag", func(t *testing.T) {
		raw := signToken(t, Claims{Scope: string(ScopeSystem), Bootstrap: true})
		actor, err := ActorFromToken(raw, testSigningKey)
		require.NoError(t, err)
		assert.Equal(t, ScopeSystem, actor.Scope())
		assert.True(t, actor.Bootstrap())
	})

	t.Run("unknown scope is rejected", func(t *testing.T) {
		raw := signToken(t, Claims{Scope: "superuser"})
		_, err := ActorFromToken(raw, testSigningKey)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		raw := signToken(t, Claims{Scope: string(ScopePlatform), RegisteredClaims: jwt.RegisteredClaims{Subject: "ops-1"}})
		_, err := ActorFromToken(raw, []byte("other-key"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
