package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/ports"
	"clipperstudio/internal/platform/upstream"
)

// Reader fetches gallery views from the processing backend. Identical
// concurrent reads collapse into a single request: several gallery
// clients polling the same list at once produce one upstream call.
type Reader struct {
	core   *upstream.Client
	group  singleflight.Group
	logger *slog.Logger
}

var _ ports.UpstreamReader = (*Reader)(nil)

func NewReader(core *upstream.Client, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{core: core, logger: logger}
}

type projectListResponse struct {
	Projects []projectRowBody `json:"projects"`
}

type projectRowBody struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Progress        int    `json:"progress"`
	ProgressMessage string `json:"progress_message"`
	Filename        string `json:"filename"`
	ThumbnailURL    string `json:"thumbnail_url"`
	ClipCount       int    `json:"clip_count"`
	IsSaved         bool   `json:"is_saved"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func (r *Reader) ListProjects(ctx context.Context) ([]entities.ProjectSummary, error) {
	value, err, _ := r.group.Do("projects", func() (any, error) {
		var resp projectListResponse
		if err := r.core.GetJSON(ctx, "/api/v1/projects", &resp); err != nil {
			return nil, translate(err)
		}
		result := make([]entities.ProjectSummary, 0, len(resp.Projects))
		for _, row := range resp.Projects {
			result = append(result, row.toEntity())
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]entities.ProjectSummary), nil
}

type bulkClipsRequest struct {
	ProjectIDs []string `json:"project_ids"`
}

type bulkClipsResponse struct {
	Pages map[string]clipPageBody `json:"pages"`
}

type clipPageBody struct {
	Clips          []clipBody `json:"clips"`
	TotalClips     int        `json:"total_clips"`
	ProcessedClips int        `json:"processed_clips"`
}

type clipBody struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	TemplateHeader     string  `json:"template_header"`
	StartSeconds       float64 `json:"start_seconds"`
	EndSeconds         float64 `json:"end_seconds"`
	VideoURL           string  `json:"video_url"`
	HorizontalVideoURL string  `json:"horizontal_video_url"`
	VerticalVideoURL   string  `json:"vertical_video_url"`
	ViralityScore      float64 `json:"virality_score"`
}

func (r *Reader) FetchClips(ctx context.Context, projectIDs []string) (map[string]entities.ClipPage, error) {
	ids := append([]string(nil), projectIDs...)
	sort.Strings(ids)
	key := "clips:" + strings.Join(ids, ",")

	value, err, _ := r.group.Do(key, func() (any, error) {
		var resp bulkClipsResponse
		if err := r.core.DoJSON(ctx, "POST", "/api/v1/clips/bulk", bulkClipsRequest{ProjectIDs: ids}, &resp); err != nil {
			return nil, translate(err)
		}
		result := make(map[string]entities.ClipPage, len(resp.Pages))
		for id, body := range resp.Pages {
			result[id] = body.toEntity(id)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(map[string]entities.ClipPage), nil
}

// translate folds every transport failure into the gallery's single
// availability sentinel; the merge layer only needs to know the server
// could not answer.
func translate(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", domainerrors.ErrUpstreamUnavailable, err)
}

func (b projectRowBody) toEntity() entities.ProjectSummary {
	result := entities.ProjectSummary{
		ProjectID:       b.ID,
		Status:          b.Status,
		Progress:        b.Progress,
		ProgressMessage: b.ProgressMessage,
		Filename:        b.Filename,
		ThumbnailURL:    b.ThumbnailURL,
		ClipCount:       b.ClipCount,
		IsSaved:         b.IsSaved,
	}
	if ts, err := time.Parse(time.RFC3339, b.CreatedAt); err == nil {
		result.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, b.UpdatedAt); err == nil {
		result.UpdatedAt = ts
	}
	return result
}

func (b clipPageBody) toEntity(projectID string) entities.ClipPage {
	clips := make([]entities.Clip, 0, len(b.Clips))
	for _, clip := range b.Clips {
		clips = append(clips, entities.Clip{
			ClipID:             clip.ID,
			Title:              clip.Title,
			TemplateHeader:     clip.TemplateHeader,
			StartSeconds:       clip.StartSeconds,
			EndSeconds:         clip.EndSeconds,
			VideoURL:           clip.VideoURL,
			HorizontalVideoURL: clip.HorizontalVideoURL,
			VerticalVideoURL:   clip.VerticalVideoURL,
			ViralityScore:      clip.ViralityScore,
		})
	}
	return entities.ClipPage{
		ProjectID:      projectID,
		Clips:          clips,
		TotalClips:     b.TotalClips,
		ProcessedClips: b.ProcessedClips,
	}
}
