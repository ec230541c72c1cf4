package upstream

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
	"clipperstudio/internal/platform/images"
	"clipperstudio/internal/platform/upstream"
)

// ThumbnailStore uploads staged preview images to the backend's media
// endpoint and returns the durable URL it assigns.
type ThumbnailStore struct {
	core   *upstream.Client
	logger *slog.Logger
}

var _ ports.ThumbnailStore = (*ThumbnailStore)(nil)

func NewThumbnailStore(core *upstream.Client, logger *slog.Logger) *ThumbnailStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThumbnailStore{core: core, logger: logger}
}

type thumbnailUploadResponse struct {
	URL string `json:"url"`
}

func (s *ThumbnailStore) Upload(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	filename := name
	normalized, err := images.NormalizeThumbnail(data)
	if err != nil {
		// Formats the decoder does not know still upload as-is.
		s.logger.Warn("thumbnail normalization skipped",
			"event", "thumbnail_normalize_skipped",
			"module", "clipper-studio/project-sync-service",
			"layer", "adapter",
			"name", name,
			"error", err.Error(),
		)
		normalized = data
	} else {
		contentType = "image/jpeg"
		if !strings.HasSuffix(filename, ".jpg") {
			filename += ".jpg"
		}
	}

	var resp thumbnailUploadResponse
	if err := s.core.PostMultipart(ctx, "/api/v1/thumbnails", "file", filename, contentType, normalized, &resp); err != nil {
		return "", translate(err)
	}
	if resp.URL == "" {
		return "", errors.New("thumbnail upload returned no url")
	}
	return resp.URL, nil
}
