package anomalyservice

import (
	"log/slog"

	httpadapter "castellan/contexts/governance/anomaly-service/adapters/http"
	"castellan/contexts/governance/anomaly-service/adapters/memory"
	"castellan/contexts/governance/anomaly-service/application/commands"
	"castellan/contexts/governance/anomaly-service/application/queries"
	"castellan/contexts/governance/anomaly-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Activity    ports.ActivityLog
	Detections  ports.DetectionRepository
	Directory   ports.Directory
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			Evaluate: commands.EvaluateEventUseCase{
				Activity:    deps.Activity,
				Detections:  deps.Detections,
				Directory:   deps.Directory,
				Publisher:   deps.Publisher,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			UpdateStatus: commands.UpdateDetectionStatusUseCase{
				Detections: deps.Detections,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			GetDetection:   queries.GetDetectionUseCase{Detections: deps.Detections},
			ListDetections: queries.ListDetectionsUseCase{Detections: deps.Detections},
			GetBaseline: queries.GetBaselineUseCase{
				Activity:  deps.Activity,
				Directory: deps.Directory,
				Clock:     deps.Clock,
			},
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Activity:    store,
		Detections:  store,
		Directory:   store,
		Publisher:   store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
