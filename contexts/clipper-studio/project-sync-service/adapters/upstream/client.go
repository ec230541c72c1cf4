package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
	"clipperstudio/internal/platform/upstream"
)

// DefaultDetectTimeout bounds the clip-detection call. Detection renders
// the whole video on the backend, so it gets far more time than the
// transport default; the deadline applies to this call only.
const DefaultDetectTimeout = 10 * time.Minute

// Client talks to the processing backend's project API and translates
// transport failures into the domain's upstream error sentinels.
type Client struct {
	core          *upstream.Client
	detectTimeout time.Duration
	logger        *slog.Logger
}

var _ ports.ProcessingClient = (*Client)(nil)

func NewClient(core *upstream.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{core: core, detectTimeout: DefaultDetectTimeout, logger: logger}
}

// WithDetectTimeout overrides the clip-detection deadline.
func (c *Client) WithDetectTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.detectTimeout = timeout
	}
	return c
}

type createProjectRequest struct {
	SourceType string         `json:"source_type"`
	SourceURL  string         `json:"source_url,omitempty"`
	Video      *videoPayload  `json:"original_video,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type videoPayload struct {
	Filename     string `json:"filename"`
	SizeBytes    int64  `json:"size_bytes"`
	ContentType  string `json:"content_type"`
	SourceURL    string `json:"source_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type createProjectResponse struct {
	Project *struct {
		ID string `json:"id"`
	} `json:"project"`
}

func (c *Client) CreateProject(ctx context.Context, input ports.CreateProjectInput) (ports.CreatedProject, error) {
	payload := createProjectRequest{
		SourceType: input.SourceType,
		SourceURL:  input.SourceURL,
		Metadata:   input.Metadata,
	}
	if input.OriginalVideo != (entities.OriginalVideo{}) {
		payload.Video = &videoPayload{
			Filename:     input.OriginalVideo.Filename,
			SizeBytes:    input.OriginalVideo.SizeBytes,
			ContentType:  input.OriginalVideo.ContentType,
			SourceURL:    input.OriginalVideo.SourceURL,
			ThumbnailURL: input.OriginalVideo.ThumbnailURL,
		}
	}

	var resp createProjectResponse
	if err := c.core.DoJSON(ctx, "POST", "/api/v1/projects", payload, &resp); err != nil {
		return ports.CreatedProject{}, translate(err)
	}
	if resp.Project == nil || resp.Project.ID == "" {
		return ports.CreatedProject{}, fmt.Errorf("%w: create response carried no project id", domainerrors.ErrMissingProjectBody)
	}
	return ports.CreatedProject{ProjectID: resp.Project.ID}, nil
}

type detectClipsRequest struct {
	SourceURL string         `json:"source_url,omitempty"`
	UploadRef string         `json:"upload_ref,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

type detectClipsResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	ClipCount int    `json:"clip_count"`
}

func (c *Client) DetectClips(ctx context.Context, input ports.DetectClipsInput) (ports.DetectClipsResult, error) {
	timeout := c.detectTimeout
	if timeout <= 0 {
		timeout = DefaultDetectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload := detectClipsRequest{
		SourceURL: input.SourceURL,
		UploadRef: input.UploadRef,
		Options:   input.Options,
	}
	path := fmt.Sprintf("/api/v1/projects/%s/detect-clips", input.ProjectID)

	var resp detectClipsResponse
	if err := c.core.DoJSON(ctx, "POST", path, payload, &resp); err != nil {
		return ports.DetectClipsResult{}, translate(err)
	}
	return ports.DetectClipsResult{
		Success:   resp.Success,
		Status:    resp.Status,
		ClipCount: resp.ClipCount,
	}, nil
}

type projectStatusResponse struct {
	Project *projectStatusBody `json:"project"`
}

type projectStatusBody struct {
	Status          string          `json:"status"`
	Progress        *int            `json:"progress"`
	ProgressMessage string          `json:"progress_message"`
	Analytics       *analyticsStage `json:"analytics"`
}

type analyticsStage struct {
	Progress *int   `json:"progress"`
	Error    string `json:"error"`
}

func (c *Client) FetchProjectStatus(ctx context.Context, projectID string) (ports.ProjectStatusSnapshot, error) {
	path := fmt.Sprintf("/api/v1/projects/%s/status", projectID)

	var resp projectStatusResponse
	if err := c.core.GetJSON(ctx, path, &resp); err != nil {
		return ports.ProjectStatusSnapshot{}, translate(err)
	}
	if resp.Project == nil {
		return ports.ProjectStatusSnapshot{}, fmt.Errorf("%w: status response for %s", domainerrors.ErrMissingProjectBody, projectID)
	}

	snapshot := ports.ProjectStatusSnapshot{
		Status:          resp.Project.Status,
		Progress:        resp.Project.Progress,
		ProgressMessage: resp.Project.ProgressMessage,
	}
	if resp.Project.Analytics != nil {
		snapshot.AnalyticsProgress = resp.Project.Analytics.Progress
		snapshot.AnalyticsError = resp.Project.Analytics.Error
	}
	return snapshot, nil
}

func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	path := fmt.Sprintf("/api/v1/projects/%s", projectID)
	if err := c.core.DoJSON(ctx, "DELETE", path, nil, nil); err != nil {
		return translate(err)
	}
	return nil
}

type saveProjectResponse struct {
	Project *struct {
		ID      string `json:"id"`
		IsSaved bool   `json:"is_saved"`
		SavedAt string `json:"saved_at"`
	} `json:"project"`
}

func (c *Client) SaveProject(ctx context.Context, projectID string) (entities.Project, error) {
	path := fmt.Sprintf("/api/v1/projects/%s/save", projectID)

	var resp saveProjectResponse
	if err := c.core.DoJSON(ctx, "POST", path, nil, &resp); err != nil {
		return entities.Project{}, translate(err)
	}
	if resp.Project == nil {
		return entities.Project{}, fmt.Errorf("%w: save response for %s", domainerrors.ErrMissingProjectBody, projectID)
	}

	saved := entities.Project{
		ProjectID:  resp.Project.ID,
		SaveStatus: entities.SaveStatus{IsSaved: resp.Project.IsSaved},
	}
	if ts, err := time.Parse(time.RFC3339, resp.Project.SavedAt); err == nil {
		saved.SaveStatus.SavedAt = &ts
	}
	return saved, nil
}

// translate maps transport-level failures onto the domain's sentinels so
// the application layer can classify without importing transport types.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case upstream.IsNotFound(err):
		return fmt.Errorf("%w: %v", domainerrors.ErrProjectNotFound, err)
	case upstream.IsTimeout(err):
		return fmt.Errorf("%w: %v", domainerrors.ErrUpstreamTimeout, err)
	case errors.Is(err, upstream.ErrUnreachable):
		return fmt.Errorf("%w: %v", domainerrors.ErrUpstreamUnreachable, err)
	default:
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) {
			return fmt.Errorf("%w: %v", domainerrors.ErrUpstreamRejected, err)
		}
		return err
	}
}
