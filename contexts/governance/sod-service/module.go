package sodservice

import (
	"log/slog"

	httpadapter "castellan/contexts/governance/sod-service/adapters/http"
	"castellan/contexts/governance/sod-service/adapters/memory"
	"castellan/contexts/governance/sod-service/application/commands"
	"castellan/contexts/governance/sod-service/application/queries"
	"castellan/contexts/governance/sod-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Check   queries.CheckViolationUseCase
	Scan    commands.ScanUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Rules       ports.RuleRepository
	Violations  ports.ViolationRepository
	Directory   ports.Directory
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	scan := commands.ScanUseCase{
		Rules:       deps.Rules,
		Violations:  deps.Violations,
		Directory:   deps.Directory,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	check := queries.CheckViolationUseCase{
		Rules:     deps.Rules,
		Directory: deps.Directory,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateRule: commands.CreateRuleUseCase{
				Rules:       deps.Rules,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Scan:        &scan,
				Logger:      deps.Logger,
			},
			UpdateRule: commands.UpdateRuleUseCase{
				Rules:  deps.Rules,
				Clock:  deps.Clock,
				Scan:   &scan,
				Logger: deps.Logger,
			},
			ToggleRule: commands.ToggleRuleUseCase{
				Rules:      deps.Rules,
				Violations: deps.Violations,
				Clock:      deps.Clock,
				Scan:       &scan,
				Logger:     deps.Logger,
			},
			DeleteRule: commands.DeleteRuleUseCase{
				Rules:      deps.Rules,
				Violations: deps.Violations,
				Logger:     deps.Logger,
			},
			Scan: scan,
			Remediate: commands.RemediateViolationUseCase{
				Violations: deps.Violations,
				Directory:  deps.Directory,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			Accept: commands.AcceptViolationUseCase{
				Violations: deps.Violations,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			Check: check,
			ListRules: queries.ListRulesUseCase{
				Rules:  deps.Rules,
				Logger: deps.Logger,
			},
			GetRule: queries.GetRuleUseCase{
				Rules:  deps.Rules,
				Logger: deps.Logger,
			},
			ListFindings: queries.ListViolationsUseCase{
				Violations: deps.Violations,
				Logger:     deps.Logger,
			},
			Report: queries.ComplianceReportUseCase{
				Rules:      deps.Rules,
				Violations: deps.Violations,
				Logger:     deps.Logger,
			},
			Logger: deps.Logger,
		},
		Check: check,
		Scan:  scan,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Rules:       store,
		Violations:  store,
		Directory:   store,
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
