package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	application "clipperstudio/contexts/clipper-studio/project-sync-service/application"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type DeleteProjectCommand struct {
	ProjectID string
}

type DeleteProjectUseCase struct {
	Store       ports.ProjectStore
	Processing  ports.ProcessingClient
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute removes a project upstream and locally. The project is parked in
// deleting while the backend call runs; if the backend refuses, the prior
// status is restored and the error surfaces to the caller so nothing
// disappears that still exists upstream.
func (uc DeleteProjectUseCase) Execute(ctx context.Context, cmd DeleteProjectCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	project, ok := uc.Store.GetProject(ctx, cmd.ProjectID)
	if !ok {
		return domainerrors.ErrProjectNotFound
	}
	priorStatus := project.Status
	priorMessage := project.ProgressMessage

	deleting := entities.ProjectStatusDeleting
	uc.Store.UpdateProject(ctx, cmd.ProjectID, entities.ProjectUpdate{Status: &deleting}, uc.Clock.Now().UTC())

	if err := uc.Processing.DeleteProject(ctx, cmd.ProjectID); err != nil {
		uc.Store.UpdateProject(ctx, cmd.ProjectID, entities.ProjectUpdate{
			Status:          &priorStatus,
			ProgressMessage: &priorMessage,
		}, uc.Clock.Now().UTC())
		logger.Error("project deletion rolled back",
			"event", "project_delete_rolled_back",
			"module", "clipper-studio/project-sync-service",
			"layer", "application",
			"project_id", cmd.ProjectID,
			"restored_status", string(priorStatus),
			"error", err.Error(),
		)
		return fmt.Errorf("delete project %s: %w", cmd.ProjectID, err)
	}

	uc.Store.RemoveProject(ctx, cmd.ProjectID, uc.Clock.Now().UTC())
	uc.publishRemoved(ctx, cmd.ProjectID, "deleted")

	logger.Info("project deleted",
		"event", "project_deleted",
		"module", "clipper-studio/project-sync-service",
		"layer", "application",
		"project_id", cmd.ProjectID,
	)
	return nil
}

func (uc DeleteProjectUseCase) publishRemoved(ctx context.Context, projectID string, reason string) {
	if uc.Publisher == nil {
		return
	}
	payload, err := json.Marshal(ports.ProjectRemovedEvent{ProjectID: projectID, Reason: reason})
	if err != nil {
		return
	}
	eventID, err := uc.IDGenerator.NewID(ctx, "evt")
	if err != nil {
		return
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        ports.EventTypeProjectRemoved,
		OccurredAt:       uc.Clock.Now().UTC(),
		SourceService:    "clipper-studio/project-sync-service",
		TraceID:          eventID,
		SchemaVersion:    ports.EventEnvelopeSchemaVersion,
		PartitionKeyPath: "project_id",
		PartitionKey:     projectID,
		Data:             payload,
	}
	if err := uc.Publisher.Publish(ctx, ports.TopicProjectLifecycle, envelope); err != nil {
		application.ResolveLogger(uc.Logger).Warn("removal event publish failed",
			"event", "removal_event_publish_failed",
			"module", "clipper-studio/project-sync-service",
			"layer", "application",
			"project_id", projectID,
			"error", err.Error(),
		)
	}
}
