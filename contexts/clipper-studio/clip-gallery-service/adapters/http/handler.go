package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "clipperstudio/contexts/clipper-studio/clip-gallery-service/application"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/application/queries"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/errors"
	httptransport "clipperstudio/contexts/clipper-studio/clip-gallery-service/transport/http"
)

type Handler struct {
	MergedProjects queries.MergedProjectsUseCase
	ProjectClips   queries.ProjectClipsUseCase
	Logger         *slog.Logger
}

// ListGalleryProjectsHandler godoc
// @Summary List gallery projects
// @Description Returns the merged project list: the server view when reachable, the local session list otherwise.
// @Tags clip-gallery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.ListGalleryProjectsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /gallery/projects [get]
func (h Handler) ListGalleryProjectsHandler(ctx context.Context) httptransport.ListGalleryProjectsResponse {
	listing := h.MergedProjects.Execute(ctx)
	items := make([]httptransport.ProjectSummaryDTO, 0, len(listing.Projects))
	for _, item := range listing.Projects {
		items = append(items, mapSummary(item))
	}
	return httptransport.ListGalleryProjectsResponse{
		Items:  items,
		Source: string(listing.Source),
	}
}

// BulkClipsHandler godoc
// @Summary Fetch clip pages in bulk
// @Description Returns clip pages for every requested project id in one call. Missing ids mean the page could not be served this round.
// @Tags clip-gallery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.BulkClipsRequest true "Project ids to load"
// @Success 200 {object} httptransport.BulkClipsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /gallery/clips/bulk [post]
func (h Handler) BulkClipsHandler(ctx context.Context, req httptransport.BulkClipsRequest) (httptransport.BulkClipsResponse, error) {
	logger := application.ResolveLogger(h.Logger)

	pages, err := h.ProjectClips.Execute(ctx, queries.ProjectClipsQuery{ProjectIDs: req.ProjectIDs})
	if err != nil {
		logger.Error("bulk clips request failed",
			"event", "http_bulk_clips_failed",
			"module", "clipper-studio/clip-gallery-service",
			"layer", "transport",
			"error", err.Error(),
		)
		return httptransport.BulkClipsResponse{}, err
	}

	result := make(map[string]httptransport.ClipPageDTO, len(pages))
	for id, page := range pages {
		result[id] = mapPage(page)
	}
	return httptransport.BulkClipsResponse{Pages: result}, nil
}

// ProjectClipsHandler godoc
// @Summary Get one project's clip page
// @Description Returns the clip page for a single project id.
// @Tags clip-gallery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param project_id path string true "Project id"
// @Success 200 {object} httptransport.ProjectClipsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /gallery/projects/{project_id}/clips [get]
func (h Handler) ProjectClipsHandler(ctx context.Context, projectID string) (httptransport.ProjectClipsResponse, error) {
	pages, err := h.ProjectClips.Execute(ctx, queries.ProjectClipsQuery{ProjectIDs: []string{projectID}})
	if err != nil {
		return httptransport.ProjectClipsResponse{}, err
	}
	page, ok := pages[projectID]
	if !ok {
		return httptransport.ProjectClipsResponse{}, domainerrors.ErrProjectNotFound
	}
	return httptransport.ProjectClipsResponse{Page: mapPage(page)}, nil
}

func mapSummary(item entities.ProjectSummary) httptransport.ProjectSummaryDTO {
	return httptransport.ProjectSummaryDTO{
		ProjectID:       item.ProjectID,
		Status:          item.Status,
		Progress:        item.Progress,
		ProgressMessage: item.ProgressMessage,
		Filename:        item.Filename,
		ThumbnailURL:    item.ThumbnailURL,
		ClipCount:       item.ClipCount,
		IsSaved:         item.IsSaved,
		CreatedAt:       item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.Format(time.RFC3339),
	}
}

func mapPage(page entities.ClipPage) httptransport.ClipPageDTO {
	clips := make([]httptransport.ClipDTO, 0, len(page.Clips))
	for _, clip := range page.Clips {
		clips = append(clips, httptransport.ClipDTO{
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
	return httptransport.ClipPageDTO{
		ProjectID:       page.ProjectID,
		Clips:           clips,
		TotalClips:      page.TotalClips,
		ProcessedClips:  page.ProcessedClips,
		StillProcessing: page.StillProcessing(),
	}
}
