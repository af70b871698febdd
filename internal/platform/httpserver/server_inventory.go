package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	inventoryerrors "castellan/contexts/inventory/entitlement-service/domain/errors"
	inventoryhttp "castellan/contexts/inventory/entitlement-service/transport/http"
)

func (s *Server) handleRegisterApplication(w http.ResponseWriter, r *http.Request) {
	var req inventoryhttp.RegisterApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInventoryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.inventory.Handler.RegisterApplicationHandler(r.Context(), resolveTenantID(r), req)
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	resp, err := s.inventory.Handler.ListApplicationsHandler(r.Context(), resolveTenantID(r))
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	resp, err := s.inventory.Handler.GetApplicationHandler(r.Context(), resolveTenantID(r), r.PathValue("app_id"))
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req inventoryhttp.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInventoryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.inventory.Handler.RegisterUserHandler(r.Context(), resolveTenantID(r), req)
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.inventory.Handler.ListUsersHandler(r.Context(), resolveTenantID(r))
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	resp, err := s.inventory.Handler.GetUserHandler(r.Context(), resolveTenantID(r), r.PathValue("user_id"))
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListUserEntitlements(w http.ResponseWriter, r *http.Request) {
	resp, err := s.inventory.Handler.ListUserEntitlementsHandler(r.Context(), resolveTenantID(r), r.PathValue("user_id"))
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrantEntitlement(w http.ResponseWriter, r *http.Request) {
	var req inventoryhttp.GrantEntitlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInventoryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if req.GrantedBy == "" {
		req.GrantedBy = resolveActorID(r)
	}
	resp, err := s.inventory.Handler.GrantHandler(r.Context(), resolveTenantID(r), req)
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleChangeAccess(w http.ResponseWriter, r *http.Request) {
	var req inventoryhttp.ChangeAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInventoryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	err := s.inventory.Handler.ChangeAccessHandler(r.Context(), resolveTenantID(r), r.PathValue("user_id"), r.PathValue("app_id"), req)
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevokeEntitlement(w http.ResponseWriter, r *http.Request) {
	req := inventoryhttp.RevokeEntitlementRequest{RevokedBy: resolveActorID(r)}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeInventoryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	err := s.inventory.Handler.RevokeHandler(r.Context(), resolveTenantID(r), r.PathValue("user_id"), r.PathValue("app_id"), req)
	if err != nil {
		writeInventoryDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeInventoryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventoryerrors.ErrApplicationNotFound):
		writeInventoryError(w, http.StatusNotFound, "application_not_found", err.Error())
	case errors.Is(err, inventoryerrors.ErrUserNotFound):
		writeInventoryError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, inventoryerrors.ErrEntitlementNotFound):
		writeInventoryError(w, http.StatusNotFound, "entitlement_not_found", err.Error())
	case errors.Is(err, inventoryerrors.ErrEntitlementExists):
		writeInventoryError(w, http.StatusConflict, "entitlement_exists", err.Error())
	case errors.Is(err, inventoryerrors.ErrInvalidAccessType),
		errors.Is(err, inventoryerrors.ErrInvalidApplicationData),
		errors.Is(err, inventoryerrors.ErrInvalidUserData):
		writeInventoryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, inventoryerrors.ErrTenantRequired):
		writeInventoryError(w, http.StatusBadRequest, "tenant_required", err.Error())
	default:
		writeInventoryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeInventoryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, inventoryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
