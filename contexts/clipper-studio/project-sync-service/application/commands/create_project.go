package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "clipperstudio/contexts/clipper-studio/project-sync-service/application"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type CreateProjectCommand struct {
	SourceURL     string
	UploadedFile  *entities.UploadedFile
	Thumbnail     string
	DetectOptions map[string]any
	Metadata      map[string]any
}

type CreateProjectUseCase struct {
	Store        ports.ProjectStore
	Staging      ports.InputStaging
	Thumbnails   ports.ThumbnailCache
	ThumbnailTTL time.Duration
	Uploads      ports.ThumbnailStore
	Processing   ports.ProcessingClient
	Poller       ports.PollScheduler
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

type CreateProjectResult struct {
	Project        entities.Project
	PollingStarted bool
	ClipsReady     bool
}

// Execute runs the full creation flow: it inserts an optimistic placeholder
// so the project is visible immediately, registers the project upstream,
// swaps the placeholder id for the assigned one, and kicks off clip
// detection. Backend failures after the optimistic insert are translated
// into a status on the project rather than returned, so callers always get
// the project back in whatever state the attempt left it.
func (uc CreateProjectUseCase) Execute(ctx context.Context, cmd CreateProjectCommand) (CreateProjectResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()

	source, err := uc.resolveSource(ctx, cmd)
	if err != nil {
		return CreateProjectResult{}, err
	}

	thumbnailURL := uc.stageThumbnail(ctx, source, now)

	placeholderID := entities.NewLocalProjectID(now)
	project, _ := uc.Store.AddProject(ctx, entities.Project{
		ProjectID: placeholderID,
		Status:    entities.ProjectStatusProcessing,
		OriginalVideo: entities.OriginalVideo{
			Filename:     source.filename,
			SizeBytes:    source.sizeBytes,
			ContentType:  source.contentType,
			SourceURL:    source.url,
			ThumbnailURL: thumbnailURL,
		},
	}, now)
	uc.Store.SetCurrentProject(ctx, placeholderID, now)

	logger.Info("project placeholder created",
		"event", "project_placeholder_created",
		"module", "clipper-studio/project-sync-service",
		"layer", "application",
		"project_id", placeholderID,
		"source_type", source.kind,
	)

	created, err := uc.Processing.CreateProject(ctx, ports.CreateProjectInput{
		SourceType:    source.kind,
		SourceURL:     source.url,
		OriginalVideo: project.OriginalVideo,
		Metadata:      cmd.Metadata,
	})
	if err != nil {
		return uc.failProject(ctx, logger, placeholderID, "project_create_failed", err), nil
	}

	project, swapped := uc.Store.ReconcileProjectID(ctx, placeholderID, created.ProjectID, uc.Clock.Now().UTC())
	if !swapped {
		// The placeholder vanished mid-flight (deleted or restarted).
		// Nothing is tracking the backend project, so report not found.
		return CreateProjectResult{}, domainerrors.ErrProjectNotFound
	}
	uc.Store.SetCurrentProject(ctx, created.ProjectID, uc.Clock.Now().UTC())

	detection, err := uc.Processing.DetectClips(ctx, ports.DetectClipsInput{
		ProjectID: created.ProjectID,
		SourceURL: source.url,
		UploadRef: source.uploadRef,
		Options:   cmd.DetectOptions,
	})
	if err != nil {
		return uc.failProject(ctx, logger, created.ProjectID, "clip_detection_failed", err), nil
	}

	uc.Staging.ClearInput(ctx)

	result := CreateProjectResult{}
	if detection.Status == string(entities.ProjectStatusProcessing) {
		result.PollingStarted = uc.Poller.StartPolling(ctx, created.ProjectID)
		logger.Info("clip detection running asynchronously",
			"event", "clip_detection_async",
			"module", "clipper-studio/project-sync-service",
			"layer", "application",
			"project_id", created.ProjectID,
			"polling_started", result.PollingStarted,
		)
	} else {
		completedAt := uc.Clock.Now().UTC()
		status := entities.ProjectStatusCompleted
		progress := 100
		project, _ = uc.Store.UpdateProject(ctx, created.ProjectID, entities.ProjectUpdate{
			Status:   &status,
			Progress: &progress,
		}, completedAt)
		uc.publishStatus(ctx, project)
		result.ClipsReady = true
		logger.Info("clip detection finished synchronously",
			"event", "clip_detection_sync_completed",
			"module", "clipper-studio/project-sync-service",
			"layer", "application",
			"project_id", created.ProjectID,
			"clip_count", detection.ClipCount,
		)
	}

	if current, ok := uc.Store.GetProject(ctx, created.ProjectID); ok {
		project = current
	}
	result.Project = project
	return result, nil
}

type resolvedSource struct {
	kind        string
	url         string
	uploadRef   string
	filename    string
	sizeBytes   int64
	contentType string
	preview     string
}

// resolveSource merges explicit command input with staged input and checks
// exactly one source is present.
func (uc CreateProjectUseCase) resolveSource(ctx context.Context, cmd CreateProjectCommand) (resolvedSource, error) {
	staged := uc.Staging.Staging(ctx)

	src := resolvedSource{
		url:     strings.TrimSpace(cmd.SourceURL),
		preview: strings.TrimSpace(cmd.Thumbnail),
	}
	file := cmd.UploadedFile
	if src.url == "" && file == nil {
		src.url = strings.TrimSpace(staged.SourceURL)
		file = staged.UploadedFile
	}
	if src.preview == "" {
		src.preview = staged.PreviewThumbnail
	}

	switch {
	case src.url != "" && file != nil:
		return resolvedSource{}, domainerrors.ErrAmbiguousInput
	case src.url != "":
		src.kind = "url"
		src.filename = src.url
	case file != nil:
		src.kind = "upload"
		src.uploadRef = file.Ref
		src.filename = file.Name
		src.sizeBytes = file.SizeBytes
		src.contentType = file.ContentType
	default:
		return resolvedSource{}, domainerrors.ErrNoInputStaged
	}
	return src, nil
}

// stageThumbnail turns an inline preview into a durable URL. Previews that
// already point at remote storage pass through unchanged. Upload failures
// fall back to the inline data URL so the project still renders; the store
// strips inline thumbnails from durable snapshots.
func (uc CreateProjectUseCase) stageThumbnail(ctx context.Context, source resolvedSource, now time.Time) string {
	logger := application.ResolveLogger(uc.Logger)
	preview := source.preview
	if preview == "" || !strings.HasPrefix(preview, "data:") {
		return preview
	}

	cacheKey := source.filename
	if cached, ok := uc.Thumbnails.Get(ctx, cacheKey, now); ok {
		return cached
	}

	contentType, data, err := decodeDataURL(preview)
	if err != nil {
		logger.Warn("thumbnail preview undecodable, keeping inline",
			"event", "thumbnail_decode_failed",
			"module", "clipper-studio/project-sync-service",
			"layer", "application",
			"error", err.Error(),
		)
		return preview
	}

	name, err := uc.IDGenerator.NewID(ctx, "thumb")
	if err != nil {
		return preview
	}
	uploadedURL, err := uc.Uploads.Upload(ctx, name, contentType, data)
	if err != nil {
		logger.Warn("thumbnail upload failed, keeping inline",
			"event", "thumbnail_upload_failed",
			"module", "clipper-studio/project-sync-service",
			"layer", "application",
			"error", err.Error(),
		)
		return preview
	}

	ttl := uc.ThumbnailTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	uc.Thumbnails.Put(ctx, cacheKey, uploadedURL, now.Add(ttl))
	return uploadedURL
}

// failProject records a classified failure status on the project and logs
// the underlying error. The error stops here: the caller receives the
// project carrying the failure status instead.
func (uc CreateProjectUseCase) failProject(ctx context.Context, logger *slog.Logger, projectID string, event string, cause error) CreateProjectResult {
	status := ClassifyFailureStatus(cause)
	message := entities.DefaultProgressMessage(status)
	project, _ := uc.Store.UpdateProject(ctx, projectID, entities.ProjectUpdate{
		Status:          &status,
		ProgressMessage: &message,
	}, uc.Clock.Now().UTC())
	uc.publishStatus(ctx, project)

	logger.Error("project creation flow failed",
		"event", event,
		"module", "clipper-studio/project-sync-service",
		"layer", "application",
		"project_id", projectID,
		"status", string(status),
		"error", cause.Error(),
	)
	return CreateProjectResult{Project: project}
}

func (uc CreateProjectUseCase) publishStatus(ctx context.Context, project entities.Project) {
	if uc.Publisher == nil {
		return
	}
	envelope, err := statusChangedEnvelope(ctx, uc.IDGenerator, uc.Clock, project)
	if err != nil {
		return
	}
	if err := uc.Publisher.Publish(ctx, ports.TopicProjectLifecycle, envelope); err != nil {
		application.ResolveLogger(uc.Logger).Warn("status event publish failed",
			"event", "status_event_publish_failed",
			"module", "clipper-studio/project-sync-service",
			"layer", "application",
			"project_id", project.ProjectID,
			"error", err.Error(),
		)
	}
}

// ClassifyFailureStatus maps a backend failure to the local-only status the
// project is parked in: deadline expiry becomes timeout, connectivity loss
// becomes network_error and everything else becomes error.
func ClassifyFailureStatus(err error) entities.ProjectStatus {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, domainerrors.ErrUpstreamTimeout):
		return entities.ProjectStatusTimeout
	case errors.Is(err, domainerrors.ErrUpstreamUnreachable):
		return entities.ProjectStatusNetworkError
	default:
		return entities.ProjectStatusError
	}
}

func decodeDataURL(dataURL string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, domainerrors.ErrInvalidProjectInput
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, domainerrors.ErrInvalidProjectInput
	}
	contentType = meta
	if idx := strings.Index(meta, ";"); idx >= 0 {
		contentType = meta[:idx]
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, err
		}
		return contentType, data, nil
	}
	return contentType, []byte(payload), nil
}

func statusChangedEnvelope(ctx context.Context, ids ports.IDGenerator, clock ports.Clock, project entities.Project) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(ports.ProjectStatusChangedEvent{
		ProjectID:       project.ProjectID,
		Status:          string(project.Status),
		Progress:        project.Progress,
		ProgressMessage: project.ProgressMessage,
		Terminal:        project.IsTerminal(),
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	eventID, err := ids.NewID(ctx, "evt")
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        ports.EventTypeStatusChanged,
		OccurredAt:       clock.Now().UTC(),
		SourceService:    "clipper-studio/project-sync-service",
		TraceID:          eventID,
		SchemaVersion:    ports.EventEnvelopeSchemaVersion,
		PartitionKeyPath: "project_id",
		PartitionKey:     project.ProjectID,
		Data:             payload,
	}, nil
}
