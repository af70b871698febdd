package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	accessrequestservice "castellan/contexts/governance/access-request-service"
	arpostgres "castellan/contexts/governance/access-request-service/adapters/postgres"
	arworkers "castellan/contexts/governance/access-request-service/application/workers"
	arentities "castellan/contexts/governance/access-request-service/domain/entities"
	anomalyservice "castellan/contexts/governance/anomaly-service"
	anomalypostgres "castellan/contexts/governance/anomaly-service/adapters/postgres"
	sodservice "castellan/contexts/governance/sod-service"
	sodpostgres "castellan/contexts/governance/sod-service/adapters/postgres"
	sodqueries "castellan/contexts/governance/sod-service/application/queries"
	sodworkers "castellan/contexts/governance/sod-service/application/workers"
	entitlementservice "castellan/contexts/inventory/entitlement-service"
	entpostgres "castellan/contexts/inventory/entitlement-service/adapters/postgres"
	"castellan/internal/platform/config"
	"castellan/internal/platform/db"
	"castellan/internal/platform/httpserver"
	"castellan/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.
// This is also the only place where governance modules see each other:
// the SoD check feeds the access-request conflict snapshot through an
// adapter built here, never through direct context imports.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres       *db.Postgres
	outboxRelay    sodworkers.OutboxRelay
	overdueChecker arworkers.OverdueChecker
	relayEnabled   bool
	overdueEnabled bool
	pollInterval   time.Duration
	logger         *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	inventoryRepo := entpostgres.NewRepository(pg.DB, logger)
	inventoryModule := entitlementservice.NewModule(entitlementservice.Dependencies{
		Repo:        inventoryRepo,
		Clock:       entpostgres.SystemClock{},
		IDGenerator: entpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	sodRepo := sodpostgres.NewRepository(pg.DB, logger)
	sodModule := sodservice.NewModule(sodservice.Dependencies{
		Rules:       sodRepo,
		Violations:  sodRepo,
		Directory:   sodRepo,
		Outbox:      sodRepo,
		Clock:       sodpostgres.SystemClock{},
		IDGenerator: sodpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	arRepo := arpostgres.NewRepository(pg.DB, logger)
	accessRequestModule := accessrequestservice.NewModule(accessrequestservice.Dependencies{
		Requests:    arRepo,
		Directory:   arRepo,
		Conflicts:   sodConflictChecker{check: sodModule.Check},
		Publisher:   kafka,
		Clock:       arpostgres.SystemClock{},
		IDGenerator: arpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	anomalyRepo := anomalypostgres.NewRepository(pg.DB, logger)
	anomalyModule := anomalyservice.NewModule(anomalyservice.Dependencies{
		Activity:    anomalyRepo,
		Detections:  anomalyRepo,
		Directory:   anomalyRepo,
		Publisher:   kafka,
		Clock:       anomalypostgres.SystemClock{},
		IDGenerator: anomalypostgres.UUIDGenerator{},
		Logger:      logger,
	})

	server := httpserver.New(
		inventoryModule,
		sodModule,
		accessRequestModule,
		anomalyModule,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	sodRepo := sodpostgres.NewRepository(pg.DB, logger)
	arRepo := arpostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		outboxRelay: sodworkers.OutboxRelay{
			Outbox:    sodRepo,
			Publisher: kafka,
			Clock:     sodpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		overdueChecker: arworkers.OverdueChecker{
			Requests:    arRepo,
			Publisher:   kafka,
			IDGenerator: arpostgres.UUIDGenerator{},
			Clock:       arpostgres.SystemClock{},
			BatchSize:   100,
			Logger:      logger,
		},
		relayEnabled:   cfg.EnableSodOutboxRelay,
		overdueEnabled: cfg.EnableOverdueChecker,
		pollInterval:   2 * time.Second,
		logger:         logger,
	}, nil
}

// sodConflictChecker adapts the SoD check use case to the access-request
// conflict port.
type sodConflictChecker struct {
	check sodqueries.CheckViolationUseCase
}

func (c sodConflictChecker) Check(ctx context.Context, tenantID, userID, appID string) ([]arentities.ConflictSnapshot, error) {
	findings, err := c.check.Execute(ctx, sodqueries.CheckViolationQuery{
		TenantID:       tenantID,
		UserID:         userID,
		CandidateAppID: appID,
	})
	if err != nil {
		return nil, err
	}
	snapshots := make([]arentities.ConflictSnapshot, 0, len(findings))
	for _, finding := range findings {
		snapshots = append(snapshots, arentities.ConflictSnapshot{
			RuleID:      finding.RuleID,
			RuleName:    finding.RuleName,
			Severity:    string(finding.Severity),
			HeldAppID:   finding.HeldAppID,
			HeldAppName: finding.HeldAppName,
			Rationale:   finding.Rationale,
		})
	}
	return snapshots, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"sod_outbox_relay", w.relayEnabled,
		"overdue_checker", w.overdueEnabled,
	)

	for {
		if w.relayEnabled {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.overdueEnabled {
			if err := w.overdueChecker.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
