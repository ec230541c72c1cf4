package ports

import (
	"context"
	"time"

	"clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	contractsv1 "clipperstudio/contracts/gen/events/v1"
)

type Clock interface {
	Now() time.Time
}

// UpstreamReader fetches the server-authoritative gallery views. Clip
// pages are fetched in bulk: the gallery needs counters for every
// visible project at once, not one round trip per card.
type UpstreamReader interface {
	ListProjects(ctx context.Context) ([]entities.ProjectSummary, error)
	FetchClips(ctx context.Context, projectIDs []string) (map[string]entities.ClipPage, error)
}

// LocalProjectSource exposes the session's optimistic project list. It
// backs the gallery only while no server read is available.
type LocalProjectSource interface {
	ActiveProjects(ctx context.Context) []entities.ProjectSummary
}

// ProjectStatusPatch is a partial update applied to a cached project row
// so readers of the cached list see poll progress without a refetch.
type ProjectStatusPatch struct {
	ProjectID       string
	Status          string
	Progress        *int
	ProgressMessage string
}

// GalleryCache keeps the last good upstream reads. Implementations
// swallow their own infrastructure failures: a broken cache degrades to
// a miss, never to a query error.
type GalleryCache interface {
	GetProjects(ctx context.Context) ([]entities.ProjectSummary, bool)
	PutProjects(ctx context.Context, projects []entities.ProjectSummary, expiresAt time.Time)
	InvalidateProjects(ctx context.Context)
	PatchProject(ctx context.Context, patch ProjectStatusPatch) bool
	RemoveProject(ctx context.Context, projectID string) bool
	GetClips(ctx context.Context, projectID string) (entities.ClipPage, bool)
	PutClips(ctx context.Context, page entities.ClipPage, expiresAt time.Time)
	InvalidateClips(ctx context.Context, projectID string)
}

type EventEnvelope = contractsv1.Envelope

// EventSubscriber consumes lifecycle events published by the sync side.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// Lifecycle contract values. These mirror the producer's constants; the
// two services share the envelope schema, not code.
const (
	TopicProjectLifecycle = "clipper-studio.project-lifecycle"

	EventTypeStatusChanged  = "clipper_studio.project_status_changed"
	EventTypeProjectRemoved = "clipper_studio.project_removed"
)

type ProjectStatusChangedEvent struct {
	ProjectID       string `json:"project_id"`
	Status          string `json:"status"`
	Progress        int    `json:"progress"`
	ProgressMessage string `json:"progress_message,omitempty"`
	Terminal        bool   `json:"terminal"`
}

type ProjectRemovedEvent struct {
	ProjectID string `json:"project_id"`
	Reason    string `json:"reason,omitempty"`
}
