package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"castellan/contexts/governance/sod-service/domain/entities"
	soderrors "castellan/contexts/governance/sod-service/domain/errors"
	sodports "castellan/contexts/governance/sod-service/ports"
	sodhttp "castellan/contexts/governance/sod-service/transport/http"
)

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req sodhttp.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSodError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.sod.Handler.CreateRuleHandler(r.Context(), resolveTenantID(r), resolveActorID(r), req)
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := sodports.RuleFilter{
		ActiveOnly: query.Get("active") == "true",
		Framework:  query.Get("framework"),
		AppID:      query.Get("app_id"),
	}
	resp, err := s.sod.Handler.ListRulesHandler(r.Context(), resolveTenantID(r), filter)
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	resp, err := s.sod.Handler.GetRuleHandler(r.Context(), resolveTenantID(r), r.PathValue("rule_id"))
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req sodhttp.UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSodError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.sod.Handler.UpdateRuleHandler(r.Context(), resolveTenantID(r), r.PathValue("rule_id"), resolveActorID(r), req)
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	var req sodhttp.ToggleRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSodError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.sod.Handler.ToggleRuleHandler(r.Context(), resolveTenantID(r), r.PathValue("rule_id"), resolveActorID(r), req)
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	err := s.sod.Handler.DeleteRuleHandler(r.Context(), resolveTenantID(r), r.PathValue("rule_id"), resolveActorID(r))
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckViolation(w http.ResponseWriter, r *http.Request) {
	var req sodhttp.CheckViolationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSodError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.sod.Handler.CheckViolationHandler(r.Context(), resolveTenantID(r), req)
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req sodhttp.ScanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeSodError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	if req.ActorID == "" {
		req.ActorID = resolveActorID(r)
	}
	resp, err := s.sod.Handler.ScanHandler(r.Context(), resolveTenantID(r), req)
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListViolations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := sodports.ViolationFilter{
		UserID:   query.Get("user_id"),
		RuleID:   query.Get("rule_id"),
		Status:   entities.ViolationStatus(query.Get("status")),
		Severity: entities.Severity(query.Get("severity")),
	}
	resp, err := s.sod.Handler.ListViolationsHandler(r.Context(), resolveTenantID(r), filter)
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemediateViolation(w http.ResponseWriter, r *http.Request) {
	var req sodhttp.RemediateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSodError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if req.ActorID == "" {
		req.ActorID = resolveActorID(r)
	}
	resp, err := s.sod.Handler.RemediateHandler(r.Context(), resolveTenantID(r), r.PathValue("violation_id"), req)
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptViolation(w http.ResponseWriter, r *http.Request) {
	var req sodhttp.AcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSodError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if req.ActorID == "" {
		req.ActorID = resolveActorID(r)
	}
	resp, err := s.sod.Handler.AcceptHandler(r.Context(), resolveTenantID(r), r.PathValue("violation_id"), req)
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComplianceReport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.sod.Handler.ComplianceReportHandler(r.Context(), resolveTenantID(r), r.URL.Query().Get("framework"))
	if err != nil {
		writeSodDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeSodDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, soderrors.ErrRuleNotFound):
		writeSodError(w, http.StatusNotFound, "rule_not_found", err.Error())
	case errors.Is(err, soderrors.ErrViolationNotFound):
		writeSodError(w, http.StatusNotFound, "violation_not_found", err.Error())
	case errors.Is(err, soderrors.ErrViolationNotOpen):
		writeSodError(w, http.StatusConflict, "violation_not_open", err.Error())
	case errors.Is(err, soderrors.ErrDuplicateOpenViolation):
		writeSodError(w, http.StatusConflict, "duplicate_open_violation", err.Error())
	case errors.Is(err, soderrors.ErrInvalidRuleInput),
		errors.Is(err, soderrors.ErrSameAppPair),
		errors.Is(err, soderrors.ErrInvalidSeverity),
		errors.Is(err, soderrors.ErrRevokeAppNotInViolation):
		writeSodError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, soderrors.ErrTenantRequired):
		writeSodError(w, http.StatusBadRequest, "tenant_required", err.Error())
	case errors.Is(err, soderrors.ErrEntitlementRevokeRejected):
		writeSodError(w, http.StatusBadGateway, "entitlement_revoke_rejected", err.Error())
	default:
		writeSodError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSodError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, sodhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
