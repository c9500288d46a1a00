package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/access"
	tenantmodels "custodia/internal/tenant/models"
	usermodels "custodia/internal/user/models"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/httputil"
	"custodia/pkg/platform/middleware/auth"
)

type handler struct {
	svc    Services
	logger *slog.Logger
}

// actor pulls the authenticated identity out of the context. The auth
// middleware guarantees it for every route; a miss means a wiring bug.
func (h *handler) actor(w http.ResponseWriter, r *http.Request) (access.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing actor"))
	}
	return actor, ok
}

func (h *handler) tenantID(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.TenantID{}, false
	}
	return tenantID, true
}

func (h *handler) userID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, false
	}
	return userID, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body"))
		return false
	}
	return true
}

type tenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toTenantResponse(tenant *tenantmodels.Tenant) tenantResponse {
	return tenantResponse{
		ID:        tenant.ID.String(),
		Name:      tenant.Name,
		Status:    string(tenant.Status),
		CreatedAt: tenant.CreatedAt,
	}
}

type userResponse struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func toUserResponse(user *usermodels.User) userResponse {
	return userResponse{
		ID:          user.ID.String(),
		TenantID:    user.TenantID.String(),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		DeletedAt:   user.DeletedAt,
	}
}

func (h *handler) createTenant(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	tenant, err := h.svc.Tenants.CreateTenant(r.Context(), actor, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTenantResponse(tenant))
}

func (h *handler) getTenant(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	tenant, err := h.svc.Tenants.GetTenant(r.Context(), actor, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

func (h *handler) suspendTenant(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Tenants.SuspendTenant)
}

func (h *handler) reactivateTenant(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Tenants.ReactivateTenant)
}

func (h *handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor access.Actor, tenantID id.TenantID) (*tenantmodels.Tenant, error)) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}

	tenant, err := op(r.Context(), actor, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

type createUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.svc.Users.CreateUser)
}

func (h *handler) createAdmin(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.svc.Users.CreateAdmin)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor access.Actor, tenantID id.TenantID, email, displayName string) (*usermodels.User, error)) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	var req createUserRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := op(r.Context(), actor, tenantID, req.Email, req.DisplayName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Users.GetUser(r.Context(), actor, tenantID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *handler) softDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Users.SoftDeleteUser(r.Context(), actor, tenantID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *handler) requestErasure(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	request, err := h.svc.RGPD.RequestErasure(r.Context(), actor, tenantID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"request_id":         request.ID.String(),
		"status":             string(request.Status),
		"scheduled_purge_at": request.ScheduledPurgeAt,
	})
}

func (h *handler) shredExport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	exportID, err := id.ParseExportID(chi.URLParam(r, "exportID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.RGPD.ShredExport(r.Context(), actor, tenantID, exportID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
