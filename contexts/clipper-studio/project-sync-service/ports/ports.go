package ports

import (
	"context"
	"time"

	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	contractsv1 "clipperstudio/contracts/gen/events/v1"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context, prefix string) (string, error)
}

// StateSchemaVersion tags persisted snapshots so a future format change can
// migrate on load. Recorded on every write, nothing reads it yet.
const StateSchemaVersion = "1"

// StorageNamespace is the fixed key durable snapshots live under.
const StorageNamespace = "clipper-studio"

// ProjectStore is the session-authoritative container for locally known
// projects plus the small set of UI preferences that survive restarts.
// Mutations return the resulting project and whether anything was applied;
// updates against unknown ids are no-ops, never errors.
type ProjectStore interface {
	AddProject(ctx context.Context, project entities.Project, now time.Time) (entities.Project, bool)
	UpdateProject(ctx context.Context, projectID string, update entities.ProjectUpdate, now time.Time) (entities.Project, bool)
	RemoveProject(ctx context.Context, projectID string, now time.Time) bool
	ReconcileProjectID(ctx context.Context, placeholderID string, assignedID string, now time.Time) (entities.Project, bool)
	GetProject(ctx context.Context, projectID string) (entities.Project, bool)
	ListActiveProjects(ctx context.Context) []entities.Project
	ListUnsavedExpired(ctx context.Context, now time.Time) []entities.Project
	SetCurrentProject(ctx context.Context, projectID string, now time.Time)
	CurrentProjectID(ctx context.Context) string
	SetGalleryVisible(ctx context.Context, visible bool, now time.Time)
	GalleryVisible(ctx context.Context) bool
	LastUpdatedAt(ctx context.Context) time.Time
}

// StagingState is the transient input-selection state. It is session-only:
// a restart clears it.
type StagingState struct {
	SourceURL        string
	UploadedFile     *entities.UploadedFile
	PreviewThumbnail string
	PreviewLoading   bool
}

// InputStaging holds the pending source selection. Setting a URL clears any
// staged file and vice versa, so at most one source is ever staged.
type InputStaging interface {
	SetSourceURL(ctx context.Context, url string)
	SetUploadedFile(ctx context.Context, file entities.UploadedFile)
	SetPreviewThumbnail(ctx context.Context, preview string)
	SetPreviewLoading(ctx context.Context, loading bool)
	ClearInput(ctx context.Context)
	Staging(ctx context.Context) StagingState
}

// ThumbnailCache memoizes uploaded thumbnail URLs keyed by source identity
// so resubmitting unchanged input skips the upload round-trip.
type ThumbnailCache interface {
	Get(ctx context.Context, key string, now time.Time) (string, bool)
	Put(ctx context.Context, key string, thumbnailURL string, expiresAt time.Time)
}

// PersistedState is the durable subset of store state. Only plain metadata
// crosses this boundary: no staged files, no inline data URLs.
type PersistedState struct {
	SchemaVersion    string
	Projects         []entities.Project
	CurrentProjectID string
	GalleryVisible   bool
	LastUpdatedAt    time.Time
}

// StatePersistence saves and restores snapshots across process restarts.
// Save failures are logged and swallowed by callers; live state never
// depends on the sink being healthy.
type StatePersistence interface {
	Load(ctx context.Context) (PersistedState, bool, error)
	Save(ctx context.Context, state PersistedState) error
}

type CreateProjectInput struct {
	SourceType    string
	SourceURL     string
	OriginalVideo entities.OriginalVideo
	Metadata      map[string]any
}

type CreatedProject struct {
	ProjectID string
}

type DetectClipsInput struct {
	ProjectID string
	SourceURL string
	UploadRef string
	Options   map[string]any
}

// DetectClipsResult mirrors the detection response. Status "processing"
// means the run continues asynchronously and must be polled; an empty
// status with ClipCount set means the backend finished synchronously.
type DetectClipsResult struct {
	Success   bool
	Status    string
	ClipCount int
}

// ProjectStatusSnapshot is one poll observation. Progress fields are
// pointers because the backend omits them on some stages; AnalyticsProgress
// carries the nested analytics percentage used as a fallback.
type ProjectStatusSnapshot struct {
	Status            string
	Progress          *int
	ProgressMessage   string
	AnalyticsProgress *int
	AnalyticsError    string
}

// ProcessingClient talks to the video-processing backend. Implementations
// translate transport failures into domain errors: not-found, missing body,
// timeout and unreachable all have sentinels the application layer matches.
type ProcessingClient interface {
	CreateProject(ctx context.Context, input CreateProjectInput) (CreatedProject, error)
	DetectClips(ctx context.Context, input DetectClipsInput) (DetectClipsResult, error)
	FetchProjectStatus(ctx context.Context, projectID string) (ProjectStatusSnapshot, error)
	DeleteProject(ctx context.Context, projectID string) error
	SaveProject(ctx context.Context, projectID string) (entities.Project, error)
}

// ThumbnailStore uploads preview images and returns durable URLs.
type ThumbnailStore interface {
	Upload(ctx context.Context, name string, contentType string, data []byte) (string, error)
}

// PollScheduler starts the background status loop for a project. Start
// reports false when a loop for the id is already running.
type PollScheduler interface {
	StartPolling(ctx context.Context, projectID string) bool
}

type EventEnvelope = contractsv1.Envelope

// EventPublisher emits project lifecycle events for downstream projections.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

const (
	TopicProjectLifecycle      = "clipper-studio.project-lifecycle"
	EventTypeStatusChanged     = "clipper_studio.project_status_changed"
	EventTypeProjectRemoved    = "clipper_studio.project_removed"
	EventEnvelopeSchemaVersion = 1
)

// ProjectStatusChangedEvent is the payload for EventTypeStatusChanged.
type ProjectStatusChangedEvent struct {
	ProjectID       string `json:"project_id"`
	Status          string `json:"status"`
	Progress        int    `json:"progress"`
	ProgressMessage string `json:"progress_message"`
	Terminal        bool   `json:"terminal"`
}

// ProjectRemovedEvent is the payload for EventTypeProjectRemoved.
type ProjectRemovedEvent struct {
	ProjectID string `json:"project_id"`
	Reason    string `json:"reason"`
}
