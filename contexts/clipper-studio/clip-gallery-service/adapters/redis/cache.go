package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/ports"
)

const (
	projectsKey    = "clipper-studio:gallery:projects"
	clipsKeyPrefix = "clipper-studio:gallery:clips:"
)

// Cache keeps gallery read models in Redis so every replica serves the
// same last-known-good server view. Every failure degrades to a cache
// miss; the gallery keeps answering when Redis is down.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

var _ ports.GalleryCache = (*Cache)(nil)

func NewCache(client *redis.Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, logger: logger}
}

type projectRowModel struct {
	ProjectID       string    `json:"project_id"`
	Status          string    `json:"status"`
	Progress        int       `json:"progress"`
	ProgressMessage string    `json:"progress_message,omitempty"`
	Filename        string    `json:"filename,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	ClipCount       int       `json:"clip_count"`
	IsSaved         bool      `json:"is_saved"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type clipModel struct {
	ClipID             string  `json:"clip_id"`
	Title              string  `json:"title,omitempty"`
	TemplateHeader     string  `json:"template_header,omitempty"`
	StartSeconds       float64 `json:"start_seconds"`
	EndSeconds         float64 `json:"end_seconds"`
	VideoURL           string  `json:"video_url,omitempty"`
	HorizontalVideoURL string  `json:"horizontal_video_url,omitempty"`
	VerticalVideoURL   string  `json:"vertical_video_url,omitempty"`
	ViralityScore      float64 `json:"virality_score"`
}

type clipPageModel struct {
	ProjectID      string      `json:"project_id"`
	Clips          []clipModel `json:"clips"`
	TotalClips     int         `json:"total_clips"`
	ProcessedClips int         `json:"processed_clips"`
	FetchedAt      time.Time   `json:"fetched_at"`
}

func (c *Cache) GetProjects(ctx context.Context) ([]entities.ProjectSummary, bool) {
	rows, ok := c.readProjects(ctx)
	if !ok {
		return nil, false
	}
	result := make([]entities.ProjectSummary, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, true
}

func (c *Cache) PutProjects(ctx context.Context, projects []entities.ProjectSummary, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	rows := make([]projectRowModel, 0, len(projects))
	for _, item := range projects {
		rows = append(rows, projectRowFromEntity(item))
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, projectsKey, data, ttl).Err(); err != nil {
		c.warn("gallery_cache_write_failed", projectsKey, err)
	}
}

func (c *Cache) InvalidateProjects(ctx context.Context) {
	if err := c.client.Del(ctx, projectsKey).Err(); err != nil {
		c.warn("gallery_cache_invalidate_failed", projectsKey, err)
	}
}

// PatchProject rewrites one row of the cached list in place, preserving
// the list's remaining TTL. The projection consumer is the only writer
// of patches, so the read-modify-write does not race with itself.
func (c *Cache) PatchProject(ctx context.Context, patch ports.ProjectStatusPatch) bool {
	rows, ok := c.readProjects(ctx)
	if !ok {
		return false
	}

	patched := false
	for i, row := range rows {
		if row.ProjectID != patch.ProjectID {
			continue
		}
		if patch.Status != "" {
			row.Status = patch.Status
		}
		if patch.Progress != nil {
			row.Progress = *patch.Progress
		}
		if patch.ProgressMessage != "" {
			row.ProgressMessage = patch.ProgressMessage
		}
		rows[i] = row
		patched = true
		break
	}
	if !patched {
		return false
	}
	return c.writeProjects(ctx, rows)
}

func (c *Cache) RemoveProject(ctx context.Context, projectID string) bool {
	rows, ok := c.readProjects(ctx)
	if !ok {
		return false
	}

	filtered := rows[:0]
	removed := false
	for _, row := range rows {
		if row.ProjectID == projectID {
			removed = true
			continue
		}
		filtered = append(filtered, row)
	}
	if !removed {
		return false
	}
	return c.writeProjects(ctx, filtered)
}

func (c *Cache) GetClips(ctx context.Context, projectID string) (entities.ClipPage, bool) {
	raw, err := c.client.Get(ctx, clipsKeyPrefix+projectID).Bytes()
	if errors.Is(err, redis.Nil) {
		return entities.ClipPage{}, false
	}
	if err != nil {
		c.warn("gallery_cache_read_failed", clipsKeyPrefix+projectID, err)
		return entities.ClipPage{}, false
	}

	var model clipPageModel
	if err := json.Unmarshal(raw, &model); err != nil {
		c.warn("gallery_cache_decode_failed", clipsKeyPrefix+projectID, err)
		return entities.ClipPage{}, false
	}
	return model.toEntity(), true
}

func (c *Cache) PutClips(ctx context.Context, page entities.ClipPage, expiresAt time.Time) {
	if page.ProjectID == "" {
		return
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(clipPageFromEntity(page))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, clipsKeyPrefix+page.ProjectID, data, ttl).Err(); err != nil {
		c.warn("gallery_cache_write_failed", clipsKeyPrefix+page.ProjectID, err)
	}
}

func (c *Cache) InvalidateClips(ctx context.Context, projectID string) {
	if err := c.client.Del(ctx, clipsKeyPrefix+projectID).Err(); err != nil {
		c.warn("gallery_cache_invalidate_failed", clipsKeyPrefix+projectID, err)
	}
}

func (c *Cache) readProjects(ctx context.Context) ([]projectRowModel, bool) {
	raw, err := c.client.Get(ctx, projectsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.warn("gallery_cache_read_failed", projectsKey, err)
		return nil, false
	}

	var rows []projectRowModel
	if err := json.Unmarshal(raw, &rows); err != nil {
		c.warn("gallery_cache_decode_failed", projectsKey, err)
		return nil, false
	}
	return rows, true
}

// writeProjects keeps whatever TTL the listing already carries; only
// PutProjects ever assigns a fresh one.
func (c *Cache) writeProjects(ctx context.Context, rows []projectRowModel) bool {
	data, err := json.Marshal(rows)
	if err != nil {
		return false
	}
	if err := c.client.Set(ctx, projectsKey, data, redis.KeepTTL).Err(); err != nil {
		c.warn("gallery_cache_write_failed", projectsKey, err)
		return false
	}
	return true
}

func (c *Cache) warn(event string, key string, err error) {
	c.logger.Warn("gallery cache operation failed",
		"event", event,
		"module", "clipper-studio/clip-gallery-service",
		"layer", "adapter",
		"key", key,
		"error", err.Error(),
	)
}

func projectRowFromEntity(item entities.ProjectSummary) projectRowModel {
	return projectRowModel{
		ProjectID:       item.ProjectID,
		Status:          item.Status,
		Progress:        item.Progress,
		ProgressMessage: item.ProgressMessage,
		Filename:        item.Filename,
		ThumbnailURL:    item.ThumbnailURL,
		ClipCount:       item.ClipCount,
		IsSaved:         item.IsSaved,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

func (m projectRowModel) toEntity() entities.ProjectSummary {
	return entities.ProjectSummary{
		ProjectID:       m.ProjectID,
		Status:          m.Status,
		Progress:        m.Progress,
		ProgressMessage: m.ProgressMessage,
		Filename:        m.Filename,
		ThumbnailURL:    m.ThumbnailURL,
		ClipCount:       m.ClipCount,
		IsSaved:         m.IsSaved,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func clipPageFromEntity(page entities.ClipPage) clipPageModel {
	clips := make([]clipModel, 0, len(page.Clips))
	for _, clip := range page.Clips {
		clips = append(clips, clipModel{
			ClipID:             clip.ClipID,
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
	return clipPageModel{
		ProjectID:      page.ProjectID,
		Clips:          clips,
		TotalClips:     page.TotalClips,
		ProcessedClips: page.ProcessedClips,
		FetchedAt:      page.FetchedAt,
	}
}

func (m clipPageModel) toEntity() entities.ClipPage {
	clips := make([]entities.Clip, 0, len(m.Clips))
	for _, clip := range m.Clips {
		clips = append(clips, entities.Clip{
			ClipID:             clip.ClipID,
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
		ProjectID:      m.ProjectID,
		Clips:          clips,
		TotalClips:     m.TotalClips,
		ProcessedClips: m.ProcessedClips,
		FetchedAt:      m.FetchedAt,
	}
}
