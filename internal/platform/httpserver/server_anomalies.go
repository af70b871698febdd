package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"castellan/contexts/governance/anomaly-service/domain/entities"
	anomalyerrors "castellan/contexts/governance/anomaly-service/domain/errors"
	anomalyports "castellan/contexts/governance/anomaly-service/ports"
	anomalyhttp "castellan/contexts/governance/anomaly-service/transport/http"
)

func (s *Server) handleEvaluateEvent(w http.ResponseWriter, r *http.Request) {
	var req anomalyhttp.EvaluateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAnomalyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.anomalies.Handler.EvaluateHandler(r.Context(), resolveTenantID(r), req)
	if err != nil {
		writeAnomalyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDetections(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := anomalyports.DetectionFilter{
		UserID:      query.Get("user_id"),
		Status:      entities.DetectionStatus(query.Get("status")),
		Severity:    entities.Severity(query.Get("severity")),
		AnomalyType: entities.AnomalyType(query.Get("anomaly_type")),
	}
	resp, err := s.anomalies.Handler.ListHandler(r.Context(), resolveTenantID(r), filter)
	if err != nil {
		writeAnomalyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDetection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.anomalies.Handler.GetHandler(r.Context(), resolveTenantID(r), r.PathValue("detection_id"))
	if err != nil {
		writeAnomalyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateDetectionStatus(w http.ResponseWriter, r *http.Request) {
	var req anomalyhttp.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAnomalyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.anomalies.Handler.UpdateStatusHandler(r.Context(), resolveTenantID(r), r.PathValue("detection_id"), resolveActorID(r), req)
	if err != nil {
		writeAnomalyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBaseline(w http.ResponseWriter, r *http.Request) {
	resp, err := s.anomalies.Handler.BaselineHandler(r.Context(), resolveTenantID(r), r.PathValue("user_id"))
	if err != nil {
		writeAnomalyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAnomalyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, anomalyerrors.ErrDetectionNotFound):
		writeAnomalyError(w, http.StatusNotFound, "detection_not_found", err.Error())
	case errors.Is(err, anomalyerrors.ErrInvalidStatusChange):
		writeAnomalyError(w, http.StatusConflict, "invalid_status_change", err.Error())
	case errors.Is(err, anomalyerrors.ErrInvalidEventInput):
		writeAnomalyError(w, http.StatusBadRequest, "invalid_event", err.Error())
	case errors.Is(err, anomalyerrors.ErrTenantRequired):
		writeAnomalyError(w, http.StatusBadRequest, "tenant_required", err.Error())
	default:
		writeAnomalyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAnomalyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, anomalyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
