package accessrequestservice

import (
	"log/slog"

	httpadapter "castellan/contexts/governance/access-request-service/adapters/http"
	"castellan/contexts/governance/access-request-service/adapters/memory"
	"castellan/contexts/governance/access-request-service/application/commands"
	"castellan/contexts/governance/access-request-service/application/queries"
	"castellan/contexts/governance/access-request-service/application/workers"
	"castellan/contexts/governance/access-request-service/ports"
)

type Module struct {
	Handler        httpadapter.Handler
	OverdueChecker workers.OverdueChecker
	Store          *memory.Store
}

type Dependencies struct {
	Requests    ports.RequestRepository
	Directory   ports.Directory
	Conflicts   ports.ConflictChecker
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			Submit: commands.SubmitRequestUseCase{
				Requests:    deps.Requests,
				Directory:   deps.Directory,
				Conflicts:   deps.Conflicts,
				Publisher:   deps.Publisher,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			Review: commands.ReviewRequestUseCase{
				Requests:  deps.Requests,
				Directory: deps.Directory,
				Clock:     deps.Clock,
				Logger:    deps.Logger,
			},
			Cancel: commands.CancelRequestUseCase{
				Requests: deps.Requests,
				Clock:    deps.Clock,
				Logger:   deps.Logger,
			},
			GetRequest:   queries.GetRequestUseCase{Requests: deps.Requests},
			ListRequests: queries.ListRequestsUseCase{Requests: deps.Requests},
			Logger:       deps.Logger,
		},
		OverdueChecker: workers.OverdueChecker{
			Requests:    deps.Requests,
			Publisher:   deps.Publisher,
			IDGenerator: deps.IDGenerator,
			Clock:       deps.Clock,
			Logger:      deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Requests:    store,
		Directory:   store,
		Conflicts:   store,
		Publisher:   store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
