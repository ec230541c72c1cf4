package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "clipperstudio/contexts/clipper-studio/project-sync-service/application"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

// RetentionSweeper drops unsaved projects that outlived their expiry. This
// is local housekeeping only: the backend keeps its own copy and is not
// called here.
type RetentionSweeper struct {
	Store       ports.ProjectStore
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (j RetentionSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	now := j.Clock.Now().UTC()

	expired := j.Store.ListUnsavedExpired(ctx, now)
	if len(expired) == 0 {
		return nil
	}

	removed := 0
	for _, project := range expired {
		if !j.Store.RemoveProject(ctx, project.ProjectID, now) {
			continue
		}
		removed++
		j.publishRemoved(ctx, project.ProjectID)
	}

	logger.Info("retention sweep completed",
		"event", "retention_sweep_completed",
		"module", "clipper-studio/project-sync-service",
		"layer", "worker",
		"removed_count", removed,
	)
	return nil
}

func (j RetentionSweeper) publishRemoved(ctx context.Context, projectID string) {
	if j.Publisher == nil {
		return
	}
	payload, err := json.Marshal(ports.ProjectRemovedEvent{ProjectID: projectID, Reason: "expired"})
	if err != nil {
		return
	}
	eventID, err := j.IDGenerator.NewID(ctx, "evt")
	if err != nil {
		return
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        ports.EventTypeProjectRemoved,
		OccurredAt:       j.Clock.Now().UTC(),
		SourceService:    "clipper-studio/project-sync-service",
		TraceID:          eventID,
		SchemaVersion:    ports.EventEnvelopeSchemaVersion,
		PartitionKeyPath: "project_id",
		PartitionKey:     projectID,
		Data:             payload,
	}
	if err := j.Publisher.Publish(ctx, ports.TopicProjectLifecycle, envelope); err != nil {
		application.ResolveLogger(j.Logger).Warn("removal event publish failed",
			"event", "removal_event_publish_failed",
			"module", "clipper-studio/project-sync-service",
			"layer", "worker",
			"project_id", projectID,
			"error", err.Error(),
		)
	}
}
