package queries

import (
	"context"
	"log/slog"
	"strings"

	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type GetProjectUseCase struct {
	Store  ports.ProjectStore
	Logger *slog.Logger
}

func (uc GetProjectUseCase) Execute(ctx context.Context, projectID string) (entities.Project, error) {
	project, ok := uc.Store.GetProject(ctx, strings.TrimSpace(projectID))
	if !ok {
		return entities.Project{}, domainerrors.ErrProjectNotFound
	}
	return project, nil
}

type SessionState struct {
	CurrentProjectID string
	GalleryVisible   bool
	ProjectCount     int
}

type GetSessionUseCase struct {
	Store  ports.ProjectStore
	Logger *slog.Logger
}

func (uc GetSessionUseCase) Execute(ctx context.Context) SessionState {
	return SessionState{
		CurrentProjectID: uc.Store.CurrentProjectID(ctx),
		GalleryVisible:   uc.Store.GalleryVisible(ctx),
		ProjectCount:     len(uc.Store.ListActiveProjects(ctx)),
	}
}

type GetStagingUseCase struct {
	Staging ports.InputStaging
	Logger  *slog.Logger
}

func (uc GetStagingUseCase) Execute(ctx context.Context) ports.StagingState {
	return uc.Staging.Staging(ctx)
}
