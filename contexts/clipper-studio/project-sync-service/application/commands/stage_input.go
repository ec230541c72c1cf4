package commands

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	application "clipperstudio/contexts/clipper-studio/project-sync-service/application"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type StageSourceURLCommand struct {
	URL     string
	Preview string
}

type StageSourceURLUseCase struct {
	Staging ports.InputStaging
	Logger  *slog.Logger
}

// Execute stages a source URL for the next detection run. Staging a URL
// drops any previously staged file; the two inputs are mutually exclusive.
func (uc StageSourceURLUseCase) Execute(ctx context.Context, cmd StageSourceURLCommand) error {
	raw := strings.TrimSpace(cmd.URL)
	parsed, err := url.Parse(raw)
	if err != nil || raw == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return domainerrors.ErrInvalidProjectInput
	}

	uc.Staging.SetSourceURL(ctx, raw)
	if preview := strings.TrimSpace(cmd.Preview); preview != "" {
		uc.Staging.SetPreviewThumbnail(ctx, preview)
	} else {
		uc.Staging.SetPreviewLoading(ctx, true)
	}

	application.ResolveLogger(uc.Logger).Info("source url staged",
		"event", "input_url_staged",
		"module", "clipper-studio/project-sync-service",
		"layer", "application",
		"host", parsed.Host,
	)
	return nil
}

type StageUploadedFileCommand struct {
	File    entities.UploadedFile
	Preview string
}

type StageUploadedFileUseCase struct {
	Staging ports.InputStaging
	Logger  *slog.Logger
}

// Execute stages an uploaded file reference, dropping any staged URL.
func (uc StageUploadedFileUseCase) Execute(ctx context.Context, cmd StageUploadedFileCommand) error {
	file := cmd.File
	file.Name = strings.TrimSpace(file.Name)
	file.Ref = strings.TrimSpace(file.Ref)
	if file.Name == "" || file.Ref == "" || file.SizeBytes < 0 {
		return domainerrors.ErrInvalidProjectInput
	}

	uc.Staging.SetUploadedFile(ctx, file)
	if preview := strings.TrimSpace(cmd.Preview); preview != "" {
		uc.Staging.SetPreviewThumbnail(ctx, preview)
	} else {
		uc.Staging.SetPreviewLoading(ctx, true)
	}

	application.ResolveLogger(uc.Logger).Info("uploaded file staged",
		"event", "input_file_staged",
		"module", "clipper-studio/project-sync-service",
		"layer", "application",
		"filename", file.Name,
		"size_bytes", file.SizeBytes,
	)
	return nil
}

type StagePreviewCommand struct {
	Preview string
}

type StagePreviewUseCase struct {
	Staging ports.InputStaging
	Logger  *slog.Logger
}

// Execute attaches a preview thumbnail extracted from the staged input.
// An empty preview just clears the loading flag.
func (uc StagePreviewUseCase) Execute(ctx context.Context, cmd StagePreviewCommand) error {
	preview := strings.TrimSpace(cmd.Preview)
	if preview == "" {
		uc.Staging.SetPreviewLoading(ctx, false)
		return nil
	}
	uc.Staging.SetPreviewThumbnail(ctx, preview)
	return nil
}

type ClearInputUseCase struct {
	Staging ports.InputStaging
	Logger  *slog.Logger
}

func (uc ClearInputUseCase) Execute(ctx context.Context) {
	uc.Staging.ClearInput(ctx)
}
