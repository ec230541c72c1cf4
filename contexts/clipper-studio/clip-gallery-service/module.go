package clipgalleryservice

import (
	"log/slog"
	"time"

	httpadapter "clipperstudio/contexts/clipper-studio/clip-gallery-service/adapters/http"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/adapters/memory"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/application/queries"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/application/workers"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Consumer workers.GalleryProjectionConsumer
	Store    *memory.Store
}

type Dependencies struct {
	Upstream      ports.UpstreamReader
	Cache         ports.GalleryCache
	Local         ports.LocalProjectSource
	Subscriber    ports.EventSubscriber
	Clock         ports.Clock
	ListingTTL    time.Duration
	ClipsTTL      time.Duration
	ConsumerGroup string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	mergedProjects := queries.MergedProjectsUseCase{
		Upstream: deps.Upstream,
		Cache:    deps.Cache,
		Local:    deps.Local,
		CacheTTL: deps.ListingTTL,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	projectClips := queries.ProjectClipsUseCase{
		Upstream: deps.Upstream,
		Cache:    deps.Cache,
		CacheTTL: deps.ClipsTTL,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			MergedProjects: mergedProjects,
			ProjectClips:   projectClips,
			Logger:         deps.Logger,
		},
		Consumer: workers.GalleryProjectionConsumer{
			Subscriber:    deps.Subscriber,
			Cache:         deps.Cache,
			ConsumerGroup: deps.ConsumerGroup,
			Disabled:      deps.Subscriber == nil,
			Logger:        deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	module := NewModule(Dependencies{
		Upstream: store,
		Cache:    store,
		Local:    store,
		Clock:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
