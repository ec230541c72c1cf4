package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"clipperstudio/contexts/clipper-studio/project-sync-service/application/commands"
	"clipperstudio/contexts/clipper-studio/project-sync-service/application/queries"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	httptransport "clipperstudio/contexts/clipper-studio/project-sync-service/transport/http"
)

type Handler struct {
	CreateProject     commands.CreateProjectUseCase
	DeleteProject     commands.DeleteProjectUseCase
	SaveProject       commands.SaveProjectUseCase
	StageSourceURL    commands.StageSourceURLUseCase
	StageUploadedFile commands.StageUploadedFileUseCase
	StagePreview      commands.StagePreviewUseCase
	ClearInput        commands.ClearInputUseCase
	SetCurrentProject commands.SetCurrentProjectUseCase
	SetGalleryVisible commands.SetGalleryVisibleUseCase
	ListProjects      queries.ListProjectsUseCase
	GetProject        queries.GetProjectUseCase
	GetSession        queries.GetSessionUseCase
	GetStaging        queries.GetStagingUseCase
	Logger            *slog.Logger
}

func (h Handler) CreateProjectHandler(ctx context.Context, req httptransport.CreateProjectRequest) (httptransport.CreateProjectResponse, error) {
	cmd := commands.CreateProjectCommand{
		SourceURL:     req.SourceURL,
		Thumbnail:     req.Thumbnail,
		DetectOptions: req.DetectOptions,
		Metadata:      req.Metadata,
	}
	if req.UploadedFile != nil {
		cmd.UploadedFile = &entities.UploadedFile{
			Name:        req.UploadedFile.FileName,
			SizeBytes:   req.UploadedFile.SizeBytes,
			ContentType: req.UploadedFile.ContentType,
			Ref:         req.UploadedFile.UploadRef,
		}
	}
	result, err := h.CreateProject.Execute(ctx, cmd)
	if err != nil {
		return httptransport.CreateProjectResponse{}, err
	}
	return httptransport.CreateProjectResponse{
		Project:        mapProject(result.Project),
		PollingStarted: result.PollingStarted,
		ClipsReady:     result.ClipsReady,
	}, nil
}

func (h Handler) DeleteProjectHandler(ctx context.Context, projectID string) error {
	return h.DeleteProject.Execute(ctx, commands.DeleteProjectCommand{ProjectID: projectID})
}

func (h Handler) SaveProjectHandler(ctx context.Context, projectID string) (httptransport.SaveProjectResponse, error) {
	result, err := h.SaveProject.Execute(ctx, commands.SaveProjectCommand{ProjectID: projectID})
	if err != nil {
		return httptransport.SaveProjectResponse{}, err
	}
	return httptransport.SaveProjectResponse{Project: mapProject(result.Project)}, nil
}

func (h Handler) StageSourceURLHandler(ctx context.Context, req httptransport.StageSourceURLRequest) error {
	return h.StageSourceURL.Execute(ctx, commands.StageSourceURLCommand{
		URL:     req.URL,
		Preview: req.Preview,
	})
}

func (h Handler) StageUploadHandler(ctx context.Context, req httptransport.StageUploadRequest) error {
	return h.StageUploadedFile.Execute(ctx, commands.StageUploadedFileCommand{
		File: entities.UploadedFile{
			Name:        req.FileName,
			SizeBytes:   req.SizeBytes,
			ContentType: req.ContentType,
			Ref:         req.UploadRef,
		},
		Preview: req.Preview,
	})
}

func (h Handler) StagePreviewHandler(ctx context.Context, req httptransport.StagePreviewRequest) error {
	return h.StagePreview.Execute(ctx, commands.StagePreviewCommand{Preview: req.Preview})
}

func (h Handler) ClearInputHandler(ctx context.Context) {
	h.ClearInput.Execute(ctx)
}

func (h Handler) GetStagingHandler(ctx context.Context) httptransport.StagingResponse {
	staging := h.GetStaging.Execute(ctx)
	result := httptransport.StagingResponse{
		SourceURL:        staging.SourceURL,
		PreviewThumbnail: staging.PreviewThumbnail,
		PreviewLoading:   staging.PreviewLoading,
	}
	if staging.UploadedFile != nil {
		result.UploadedFile = &httptransport.UploadedFileDTO{
			FileName:    staging.UploadedFile.Name,
			SizeBytes:   staging.UploadedFile.SizeBytes,
			ContentType: staging.UploadedFile.ContentType,
			UploadRef:   staging.UploadedFile.Ref,
		}
	}
	return result
}

func (h Handler) ListProjectsHandler(ctx context.Context) httptransport.ListProjectsResponse {
	items := h.ListProjects.Execute(ctx)
	result := make([]httptransport.ProjectDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapProject(item))
	}
	return httptransport.ListProjectsResponse{Items: result}
}

func (h Handler) GetProjectHandler(ctx context.Context, projectID string) (httptransport.GetProjectResponse, error) {
	item, err := h.GetProject.Execute(ctx, projectID)
	if err != nil {
		return httptransport.GetProjectResponse{}, err
	}
	return httptransport.GetProjectResponse{Project: mapProject(item)}, nil
}

func (h Handler) SetCurrentProjectHandler(ctx context.Context, req httptransport.SetCurrentProjectRequest) error {
	return h.SetCurrentProject.Execute(ctx, commands.SetCurrentProjectCommand{ProjectID: req.ProjectID})
}

func (h Handler) SetGalleryVisibleHandler(ctx context.Context, req httptransport.SetGalleryVisibleRequest) {
	h.SetGalleryVisible.Execute(ctx, commands.SetGalleryVisibleCommand{Visible: req.Visible})
}

func (h Handler) GetSessionHandler(ctx context.Context) httptransport.SessionResponse {
	session := h.GetSession.Execute(ctx)
	return httptransport.SessionResponse{
		CurrentProjectID: session.CurrentProjectID,
		GalleryVisible:   session.GalleryVisible,
		ProjectCount:     session.ProjectCount,
	}
}

func mapProject(item entities.Project) httptransport.ProjectDTO {
	result := httptransport.ProjectDTO{
		ProjectID:       item.ProjectID,
		Status:          string(item.Status),
		Progress:        item.Progress,
		ProgressMessage: item.ProgressMessage,
		Filename:        item.OriginalVideo.Filename,
		SizeBytes:       item.OriginalVideo.SizeBytes,
		ContentType:     item.OriginalVideo.ContentType,
		SourceURL:       item.OriginalVideo.SourceURL,
		ThumbnailURL:    item.OriginalVideo.ThumbnailURL,
		IsSaved:         item.SaveStatus.IsSaved,
		CreatedAt:       item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.Format(time.RFC3339),
	}
	if item.SaveStatus.SavedAt != nil {
		result.SavedAt = item.SaveStatus.SavedAt.Format(time.RFC3339)
	}
	if !item.ExpiresAt.IsZero() {
		result.ExpiresAt = item.ExpiresAt.Format(time.RFC3339)
	}
	return result
}
