package httptransport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/access"
	rgpdservice "custodia/internal/rgpd/service"
	tenantservice "custodia/internal/tenant/service"
	tenantstore "custodia/internal/tenant/store"
	usermodels "custodia/internal/user/models"
	userservice "custodia/internal/user/service"
	id "custodia/pkg/domain"
	audit "custodia/pkg/platform/audit"
	auditmemory "custodia/pkg/platform/audit/store/memory"
	"custodia/pkg/testutil"
)

var signingKey = []byte("test-signing-key")

type fixture struct {
	server  *httptest.Server
	tenants *tenantstore.InMemory
	users   *userservice.MemoryRunner
	rgpd    *rgpdservice.MemoryRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tenants := tenantstore.NewInMemory()
	userRunner := userservice.NewMemoryRunner()
	rgpdRunner := rgpdservice.NewMemoryRunner()
	auditor := audit.NewPublisher(auditmemory.New())
	guard := access.NewGuard(access.NewEngine())

	svc := Services{
		Tenants: tenantservice.New(tenants, guard, auditor),
		Users:   userservice.New(userRunner, guard, auditor),
		RGPD:    rgpdservice.New(rgpdRunner, guard, auditor),
	}

	server := httptest.NewServer(NewRouter(svc, signingKey, nil))
	t.Cleanup(server.Close)

	return &fixture{server: server, tenants: tenants, users: userRunner, rgpd: rgpdRunner}
}

func signToken(t *testing.T, claims access.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)
	return token
}

func platformToken(t *testing.T) string {
	return signToken(t, access.Claims{
		Scope:            "PLATFORM",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "op-1"},
	})
}

func memberToken(t *testing.T, tenantID id.TenantID) string {
	return signToken(t, access.Claims{
		Scope:            "TENANT",
		TenantID:         tenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "member-1"},
	})
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &payload)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestRouterAuthentication(t *testing.T) {
	f := newFixture(t)

	t.Run("rejects requests without a token", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/tenants", "", map[string]string{"name": "acme"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects a token signed with the wrong key", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access.Claims{
			Scope:            "PLATFORM",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "op-1"},
		}).SignedString([]byte("other-key"))
		require.NoError(t, err)

		resp := f.do(t, http.MethodPost, "/tenants", forged, map[string]string{"name": "acme"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects a tenant token without a tenant claim", func(t *testing.T) {
		malformed := signToken(t, access.Claims{
			Scope:            "TENANT",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "member-1"},
		})
		resp := f.do(t, http.MethodGet, "/tenants/"+id.NewTenantID().String(), malformed, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestTenantRoutes(t *testing.T) {
	t.Run("platform operator creates and suspends a tenant", func(t *testing.T) {
		f := newFixture(t)
		token := platformToken(t)

		resp := f.do(t, http.MethodPost, "/tenants", token, map[string]string{"name": "Acme Corp"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decodeBody(t, resp)
		assert.Equal(t, "Acme Corp", created["name"])
		assert.Equal(t, "active", created["status"])

		path := fmt.Sprintf("/tenants/%s/suspend", created["id"])
		resp = f.do(t, http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "suspended", decodeBody(t, resp)["status"])
	})

	t.Run("duplicate name returns conflict", func(t *testing.T) {
		f := newFixture(t)
		token := platformToken(t)

		resp := f.do(t, http.MethodPost, "/tenants", token, map[string]string{"name": "acme"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = f.do(t, http.MethodPost, "/tenants", token, map[string]string{"name": "ACME"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "conflict", decodeBody(t, resp)["error"])
	})

	t.Run("member reads its own tenant but platform cannot", func(t *testing.T) {
		f := newFixture(t)

		resp := f.do(t, http.MethodPost, "/tenants", platformToken(t), map[string]string{"name": "acme"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		tenantID, err := id.ParseTenantID(decodeBody(t, resp)["id"].(string))
		require.NoError(t, err)

		resp = f.do(t, http.MethodGet, "/tenants/"+tenantID.String(), memberToken(t, tenantID), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = f.do(t, http.MethodGet, "/tenants/"+tenantID.String(), platformToken(t), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("malformed tenant id is a bad request", func(t *testing.T) {
		f := newFixture(t)
		resp := f.do(t, http.MethodGet, "/tenants/not-a-uuid", platformToken(t), nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUserRoutes(t *testing.T) {
	t.Run("platform provisions a user, member deletes it", func(t *testing.T) {
		f := newFixture(t)
		tenantID := id.NewTenantID()

		path := fmt.Sprintf("/tenants/%s/users", tenantID)
		resp := f.do(t, http.MethodPost, path, platformToken(t), createUserRequest{Email: "Jo@Example.com", DisplayName: "Jo"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decodeBody(t, resp)
		assert.Equal(t, "jo@example.com", created["email"])

		userPath := fmt.Sprintf("/tenants/%s/users/%s", tenantID, created["id"])
		resp = f.do(t, http.MethodDelete, userPath, memberToken(t, tenantID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, decodeBody(t, resp)["deleted_at"])
	})

	t.Run("tenant member cannot provision users", func(t *testing.T) {
		f := newFixture(t)
		tenantID := id.NewTenantID()

		path := fmt.Sprintf("/tenants/%s/users", tenantID)
		resp := f.do(t, http.MethodPost, path, memberToken(t, tenantID), createUserRequest{Email: "jo@example.com", DisplayName: "Jo"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		f := newFixture(t)
		tenantID := id.NewTenantID()

		path := fmt.Sprintf("/tenants/%s/users", tenantID)
		resp := f.do(t, http.MethodPost, path, platformToken(t), createUserRequest{Email: "not-an-email", DisplayName: "Jo"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestErasureRoute(t *testing.T) {
	f := newFixture(t)
	tenantID := id.NewTenantID()
	now := time.Now().UTC()

	user, err := usermodels.NewUser(id.NewUserID(), tenantID, "jo@example.com", "Jo", now)
	require.NoError(t, err)
	user.MarkDeleted(now)
	require.NoError(t, f.rgpd.Users.Create(testutil.Context(t), user))

	path := fmt.Sprintf("/tenants/%s/users/%s/erasure", tenantID, user.ID)
	resp := f.do(t, http.MethodPost, path, memberToken(t, tenantID), nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "PENDING", body["status"])
	assert.NotEmpty(t, body["request_id"])
	assert.NotEmpty(t, body["scheduled_purge_at"])
}
