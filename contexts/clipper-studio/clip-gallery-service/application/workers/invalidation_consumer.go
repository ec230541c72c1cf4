package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	application "clipperstudio/contexts/clipper-studio/clip-gallery-service/application"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/ports"
)

const defaultProjectionConsumerGroup = "clip-gallery-projection-cg"

// GalleryProjectionConsumer keeps cached gallery views aligned with
// lifecycle events from the sync side. Progress ticks are patched into
// the cached project list so both read paths report the same numbers;
// completion invalidates the clip page so counts are refetched rather
// than guessed.
type GalleryProjectionConsumer struct {
	Subscriber    ports.EventSubscriber
	Cache         ports.GalleryCache
	ConsumerGroup string
	Disabled      bool
	Logger        *slog.Logger
}

func (c GalleryProjectionConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("gallery projection consumer disabled by feature flag",
			"event", "gallery_projection_consumer_disabled",
			"module", "clipper-studio/clip-gallery-service",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultProjectionConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, ports.TopicProjectLifecycle, group, c.handleLifecycleEvent)
}

func (c GalleryProjectionConsumer) handleLifecycleEvent(ctx context.Context, event ports.EventEnvelope) error {
	switch event.EventType {
	case ports.EventTypeStatusChanged:
		return c.applyStatusChanged(ctx, event)
	case ports.EventTypeProjectRemoved:
		return c.applyProjectRemoved(ctx, event)
	default:
		application.ResolveLogger(c.Logger).Debug("lifecycle event ignored",
			"event", "gallery_projection_event_ignored",
			"module", "clipper-studio/clip-gallery-service",
			"layer", "worker",
			"event_type", event.EventType,
		)
		return nil
	}
}

func (c GalleryProjectionConsumer) applyStatusChanged(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var payload ports.ProjectStatusChangedEvent
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode project status payload: %w", err)
	}
	if strings.TrimSpace(payload.ProjectID) == "" {
		return fmt.Errorf("project status payload missing project_id")
	}

	// Patching is idempotent, so replayed events need no dedup ledger.
	progress := payload.Progress
	patched := c.Cache.PatchProject(ctx, ports.ProjectStatusPatch{
		ProjectID:       payload.ProjectID,
		Status:          payload.Status,
		Progress:        &progress,
		ProgressMessage: payload.ProgressMessage,
	})

	if payload.Status == "completed" {
		// The cached clip page predates completion by definition.
		c.Cache.InvalidateClips(ctx, payload.ProjectID)
	}

	if payload.Terminal {
		logger.Info("terminal status projected onto gallery cache",
			"event", "gallery_projection_terminal_status",
			"module", "clipper-studio/clip-gallery-service",
			"layer", "worker",
			"event_id", event.EventID,
			"project_id", payload.ProjectID,
			"status", payload.Status,
			"patched", patched,
		)
	} else {
		logger.Debug("progress projected onto gallery cache",
			"event", "gallery_projection_progress",
			"module", "clipper-studio/clip-gallery-service",
			"layer", "worker",
			"project_id", payload.ProjectID,
			"status", payload.Status,
			"progress", payload.Progress,
			"patched", patched,
		)
	}
	return nil
}

func (c GalleryProjectionConsumer) applyProjectRemoved(ctx context.Context, event ports.EventEnvelope) error {
	var payload ports.ProjectRemovedEvent
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode project removed payload: %w", err)
	}
	if strings.TrimSpace(payload.ProjectID) == "" {
		return fmt.Errorf("project removed payload missing project_id")
	}

	removed := c.Cache.RemoveProject(ctx, payload.ProjectID)
	c.Cache.InvalidateClips(ctx, payload.ProjectID)

	application.ResolveLogger(c.Logger).Info("project removal projected onto gallery cache",
		"event", "gallery_projection_project_removed",
		"module", "clipper-studio/clip-gallery-service",
		"layer", "worker",
		"event_id", event.EventID,
		"project_id", payload.ProjectID,
		"reason", payload.Reason,
		"removed", removed,
	)
	return nil
}
