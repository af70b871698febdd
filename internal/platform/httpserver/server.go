package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	accessrequestservice "castellan/contexts/governance/access-request-service"
	anomalyservice "castellan/contexts/governance/anomaly-service"
	sodservice "castellan/contexts/governance/sod-service"
	entitlementservice "castellan/contexts/inventory/entitlement-service"

	_ "castellan/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux            *http.ServeMux
	logger         *slog.Logger
	addr           string
	inventory      entitlementservice.Module
	sod            sodservice.Module
	accessRequests accessrequestservice.Module
	anomalies      anomalyservice.Module
}

func New(
	inventory entitlementservice.Module,
	sod sodservice.Module,
	accessRequests accessrequestservice.Module,
	anomalies anomalyservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:            http.NewServeMux(),
		logger:         logger,
		addr:           addr,
		inventory:      inventory,
		sod:            sod,
		accessRequests: accessRequests,
		anomalies:      anomalies,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/inventory/v1/applications", s.handleRegisterApplication)
	s.mux.HandleFunc("GET /api/inventory/v1/applications", s.handleListApplications)
	s.mux.HandleFunc("GET /api/inventory/v1/applications/{app_id}", s.handleGetApplication)
	s.mux.HandleFunc("POST /api/inventory/v1/users", s.handleRegisterUser)
	s.mux.HandleFunc("GET /api/inventory/v1/users", s.handleListUsers)
	s.mux.HandleFunc("GET /api/inventory/v1/users/{user_id}", s.handleGetUser)
	s.mux.HandleFunc("GET /api/inventory/v1/users/{user_id}/entitlements", s.handleListUserEntitlements)
	s.mux.HandleFunc("POST /api/inventory/v1/entitlements", s.handleGrantEntitlement)
	s.mux.HandleFunc("POST /api/inventory/v1/users/{user_id}/entitlements/{app_id}/access", s.handleChangeAccess)
	s.mux.HandleFunc("POST /api/inventory/v1/users/{user_id}/entitlements/{app_id}/revoke", s.handleRevokeEntitlement)

	s.mux.HandleFunc("POST /api/governance/v1/sod/rules", s.handleCreateRule)
	s.mux.HandleFunc("GET /api/governance/v1/sod/rules", s.handleListRules)
	s.mux.HandleFunc("GET /api/governance/v1/sod/rules/{rule_id}", s.handleGetRule)
	s.mux.HandleFunc("PUT /api/governance/v1/sod/rules/{rule_id}", s.handleUpdateRule)
	s.mux.HandleFunc("POST /api/governance/v1/sod/rules/{rule_id}/toggle", s.handleToggleRule)
	s.mux.HandleFunc("DELETE /api/governance/v1/sod/rules/{rule_id}", s.handleDeleteRule)
	s.mux.HandleFunc("POST /api/governance/v1/sod/check", s.handleCheckViolation)
	s.mux.HandleFunc("POST /api/governance/v1/sod/scan", s.handleScan)
	s.mux.HandleFunc("GET /api/governance/v1/sod/violations", s.handleListViolations)
	s.mux.HandleFunc("POST /api/governance/v1/sod/violations/{violation_id}/remediate", s.handleRemediateViolation)
	s.mux.HandleFunc("POST /api/governance/v1/sod/violations/{violation_id}/accept", s.handleAcceptViolation)
	s.mux.HandleFunc("GET /api/governance/v1/sod/report", s.handleComplianceReport)

	s.mux.HandleFunc("POST /api/governance/v1/access-requests", s.handleSubmitRequest)
	s.mux.HandleFunc("GET /api/governance/v1/access-requests", s.handleListRequests)
	s.mux.HandleFunc("GET /api/governance/v1/access-requests/{request_id}", s.handleGetRequest)
	s.mux.HandleFunc("POST /api/governance/v1/access-requests/{request_id}/review", s.handleReviewRequest)
	s.mux.HandleFunc("POST /api/governance/v1/access-requests/{request_id}/cancel", s.handleCancelRequest)

	s.mux.HandleFunc("POST /api/governance/v1/anomalies/events", s.handleEvaluateEvent)
	s.mux.HandleFunc("GET /api/governance/v1/anomalies", s.handleListDetections)
	s.mux.HandleFunc("GET /api/governance/v1/anomalies/{detection_id}", s.handleGetDetection)
	s.mux.HandleFunc("POST /api/governance/v1/anomalies/{detection_id}/status", s.handleUpdateDetectionStatus)
	s.mux.HandleFunc("GET /api/governance/v1/anomalies/users/{user_id}/baseline", s.handleGetBaseline)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// resolveTenantID reads the tenant from the gateway-injected header. Every
// route is tenant-scoped; the empty string is rejected downstream with the
// tenant-required sentinel.
func resolveTenantID(r *http.Request) string {
	return r.Header.Get("X-Tenant-Id")
}

func resolveActorID(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}
