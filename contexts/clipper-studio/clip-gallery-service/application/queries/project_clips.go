package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "clipperstudio/contexts/clipper-studio/clip-gallery-service/application"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/ports"
)

const DefaultClipsTTL = 5 * time.Minute

type ProjectClipsQuery struct {
	ProjectIDs []string
}

type ProjectClipsUseCase struct {
	Upstream ports.UpstreamReader
	Cache    ports.GalleryCache
	CacheTTL time.Duration
	Clock    ports.Clock
	Logger   *slog.Logger
}

// Execute loads clip pages for the requested projects, serving cached
// pages where they exist and bulk-fetching only the misses. An upstream
// failure degrades to the cached subset: badge counters go stale rather
// than the whole gallery erroring out.
func (uc ProjectClipsUseCase) Execute(ctx context.Context, query ProjectClipsQuery) (map[string]entities.ClipPage, error) {
	ids := dedupeIDs(query.ProjectIDs)
	if len(ids) == 0 {
		return map[string]entities.ClipPage{}, domainerrors.ErrInvalidGalleryInput
	}

	pages := make(map[string]entities.ClipPage, len(ids))
	var misses []string
	for _, id := range ids {
		if page, ok := uc.Cache.GetClips(ctx, id); ok {
			pages[id] = page
		} else {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return pages, nil
	}

	fetched, err := uc.Upstream.FetchClips(ctx, misses)
	if err != nil {
		application.ResolveLogger(uc.Logger).Warn("clip fetch failed, serving cached subset",
			"event", "gallery_clips_fetch_failed",
			"module", "clipper-studio/clip-gallery-service",
			"layer", "application",
			"missing_count", len(misses),
			"error", err.Error(),
		)
		return pages, nil
	}

	ttl := uc.CacheTTL
	if ttl <= 0 {
		ttl = DefaultClipsTTL
	}
	now := uc.Clock.Now().UTC()
	for _, id := range misses {
		page, ok := fetched[id]
		if !ok {
			continue
		}
		page.ProjectID = id
		page.FetchedAt = now
		uc.Cache.PutClips(ctx, page, now.Add(ttl))
		pages[id] = page
	}
	return pages, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
