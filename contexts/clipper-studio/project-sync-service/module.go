package projectsyncservice

import (
	"log/slog"
	"time"

	httpadapter "clipperstudio/contexts/clipper-studio/project-sync-service/adapters/http"
	"clipperstudio/contexts/clipper-studio/project-sync-service/adapters/memory"
	"clipperstudio/contexts/clipper-studio/project-sync-service/application/commands"
	"clipperstudio/contexts/clipper-studio/project-sync-service/application/queries"
	"clipperstudio/contexts/clipper-studio/project-sync-service/application/workers"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Poller  *workers.StatusPoller
	Store   *memory.Store
}

type Dependencies struct {
	Store        ports.ProjectStore
	Staging      ports.InputStaging
	Thumbnails   ports.ThumbnailCache
	Uploads      ports.ThumbnailStore
	Processing   ports.ProcessingClient
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	ThumbnailTTL time.Duration
	PollInterval time.Duration
	PollLifetime time.Duration
	Logger       *slog.Logger
}

// NewModule wires the service's use cases around the shared status poller.
// The poller lives here rather than in the worker bootstrap because project
// creation starts polling directly; the API process owns the loops.
func NewModule(deps Dependencies) Module {
	poller := &workers.StatusPoller{
		Store:       deps.Store,
		Processing:  deps.Processing,
		Publisher:   deps.Publisher,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Interval:    deps.PollInterval,
		MaxLifetime: deps.PollLifetime,
		Logger:      deps.Logger,
	}

	createProject := commands.CreateProjectUseCase{
		Store:        deps.Store,
		Staging:      deps.Staging,
		Thumbnails:   deps.Thumbnails,
		ThumbnailTTL: deps.ThumbnailTTL,
		Uploads:      deps.Uploads,
		Processing:   deps.Processing,
		Poller:       poller,
		Publisher:    deps.Publisher,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	deleteProject := commands.DeleteProjectUseCase{
		Store:       deps.Store,
		Processing:  deps.Processing,
		Publisher:   deps.Publisher,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	saveProject := commands.SaveProjectUseCase{
		Store:      deps.Store,
		Processing: deps.Processing,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	stageSourceURL := commands.StageSourceURLUseCase{
		Staging: deps.Staging,
		Logger:  deps.Logger,
	}
	stageUploadedFile := commands.StageUploadedFileUseCase{
		Staging: deps.Staging,
		Logger:  deps.Logger,
	}
	stagePreview := commands.StagePreviewUseCase{
		Staging: deps.Staging,
		Logger:  deps.Logger,
	}
	clearInput := commands.ClearInputUseCase{
		Staging: deps.Staging,
		Logger:  deps.Logger,
	}
	setCurrentProject := commands.SetCurrentProjectUseCase{
		Store:  deps.Store,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	setGalleryVisible := commands.SetGalleryVisibleUseCase{
		Store:  deps.Store,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}

	listProjects := queries.ListProjectsUseCase{
		Store:  deps.Store,
		Logger: deps.Logger,
	}
	getProject := queries.GetProjectUseCase{
		Store:  deps.Store,
		Logger: deps.Logger,
	}
	getSession := queries.GetSessionUseCase{
		Store:  deps.Store,
		Logger: deps.Logger,
	}
	getStaging := queries.GetStagingUseCase{
		Staging: deps.Staging,
		Logger:  deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateProject:     createProject,
			DeleteProject:     deleteProject,
			SaveProject:       saveProject,
			StageSourceURL:    stageSourceURL,
			StageUploadedFile: stageUploadedFile,
			StagePreview:      stagePreview,
			ClearInput:        clearInput,
			SetCurrentProject: setCurrentProject,
			SetGalleryVisible: setGalleryVisible,
			ListProjects:      listProjects,
			GetProject:        getProject,
			GetSession:        getSession,
			GetStaging:        getStaging,
			Logger:            deps.Logger,
		},
		Poller: poller,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore(nil, nil, logger)
	module := NewModule(Dependencies{
		Store:        store,
		Staging:      store,
		Thumbnails:   store,
		Uploads:      store,
		Processing:   store,
		Clock:        store,
		IDGenerator:  store,
		ThumbnailTTL: 5 * time.Minute,
		Logger:       logger,
	})
	module.Store = store
	return module
}
