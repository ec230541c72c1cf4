package commands

import (
	"context"
	"log/slog"

	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type SetCurrentProjectCommand struct {
	ProjectID string
}

type SetCurrentProjectUseCase struct {
	Store  ports.ProjectStore
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute selects the project the session is focused on. An empty id clears
// the selection.
func (uc SetCurrentProjectUseCase) Execute(ctx context.Context, cmd SetCurrentProjectCommand) error {
	if cmd.ProjectID != "" {
		if _, ok := uc.Store.GetProject(ctx, cmd.ProjectID); !ok {
			return domainerrors.ErrProjectNotFound
		}
	}
	uc.Store.SetCurrentProject(ctx, cmd.ProjectID, uc.Clock.Now().UTC())
	return nil
}

type SetGalleryVisibleCommand struct {
	Visible bool
}

type SetGalleryVisibleUseCase struct {
	Store  ports.ProjectStore
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc SetGalleryVisibleUseCase) Execute(ctx context.Context, cmd SetGalleryVisibleCommand) {
	uc.Store.SetGalleryVisible(ctx, cmd.Visible, uc.Clock.Now().UTC())
}
