package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	arerrors "castellan/contexts/governance/access-request-service/domain/errors"
	arhttp "castellan/contexts/governance/access-request-service/transport/http"
)

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	requesterID := resolveActorID(r)
	if requesterID == "" {
		writeAccessRequestError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req arhttp.SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccessRequestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.accessRequests.Handler.SubmitHandler(r.Context(), resolveTenantID(r), requesterID, req)
	if err != nil {
		writeAccessRequestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.accessRequests.Handler.ListHandler(
		r.Context(),
		resolveTenantID(r),
		query.Get("requester_id"),
		query.Get("approver_id"),
		query.Get("status"),
	)
	if err != nil {
		writeAccessRequestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.accessRequests.Handler.GetHandler(r.Context(), resolveTenantID(r), r.PathValue("request_id"))
	if err != nil {
		writeAccessRequestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewRequest(w http.ResponseWriter, r *http.Request) {
	var req arhttp.ReviewRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccessRequestError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.accessRequests.Handler.ReviewHandler(r.Context(), resolveTenantID(r), r.PathValue("request_id"), resolveActorID(r), req)
	if err != nil {
		writeAccessRequestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.accessRequests.Handler.CancelHandler(r.Context(), resolveTenantID(r), r.PathValue("request_id"), resolveActorID(r))
	if err != nil {
		writeAccessRequestDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAccessRequestDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, arerrors.ErrRequestNotFound):
		writeAccessRequestError(w, http.StatusNotFound, "request_not_found", err.Error())
	case errors.Is(err, arerrors.ErrApplicationNotFound):
		writeAccessRequestError(w, http.StatusNotFound, "application_not_found", err.Error())
	case errors.Is(err, arerrors.ErrUserNotFound):
		writeAccessRequestError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, arerrors.ErrRequestNotPending):
		writeAccessRequestError(w, http.StatusConflict, "request_not_pending", err.Error())
	case errors.Is(err, arerrors.ErrNotRequester):
		writeAccessRequestError(w, http.StatusForbidden, "not_requester", err.Error())
	case errors.Is(err, arerrors.ErrInvalidDecision),
		errors.Is(err, arerrors.ErrInvalidAccessType),
		errors.Is(err, arerrors.ErrInvalidDuration),
		errors.Is(err, arerrors.ErrJustificationMissing):
		writeAccessRequestError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, arerrors.ErrTenantRequired):
		writeAccessRequestError(w, http.StatusBadRequest, "tenant_required", err.Error())
	default:
		writeAccessRequestError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAccessRequestError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, arhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
