package commands

import (
	"context"
	"fmt"
	"log/slog"

	application "clipperstudio/contexts/clipper-studio/project-sync-service/application"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type SaveProjectCommand struct {
	ProjectID string
}

type SaveProjectUseCase struct {
	Store      ports.ProjectStore
	Processing ports.ProcessingClient
	Clock      ports.Clock
	Logger     *slog.Logger
}

type SaveProjectResult struct {
	Project entities.Project
}

// Execute marks a project saved upstream. There is no optimistic flip here:
// local state only records the save after the backend confirmed it, so a
// failed save leaves the project exactly as it was.
func (uc SaveProjectUseCase) Execute(ctx context.Context, cmd SaveProjectCommand) (SaveProjectResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	if _, ok := uc.Store.GetProject(ctx, cmd.ProjectID); !ok {
		return SaveProjectResult{}, domainerrors.ErrProjectNotFound
	}

	if _, err := uc.Processing.SaveProject(ctx, cmd.ProjectID); err != nil {
		logger.Error("project save failed",
			"event", "project_save_failed",
			"module", "clipper-studio/project-sync-service",
			"layer", "application",
			"project_id", cmd.ProjectID,
			"error", err.Error(),
		)
		return SaveProjectResult{}, fmt.Errorf("save project %s: %w", cmd.ProjectID, err)
	}

	isSaved := true
	project, _ := uc.Store.UpdateProject(ctx, cmd.ProjectID, entities.ProjectUpdate{
		Saved: &isSaved,
	}, uc.Clock.Now().UTC())

	logger.Info("project saved",
		"event", "project_saved",
		"module", "clipper-studio/project-sync-service",
		"layer", "application",
		"project_id", cmd.ProjectID,
	)
	return SaveProjectResult{Project: project}, nil
}
