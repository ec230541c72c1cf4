package queries

import (
	"context"
	"log/slog"
	"sort"
	"time"

	application "clipperstudio/contexts/clipper-studio/clip-gallery-service/application"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/ports"
)

const DefaultListingTTL = 30 * time.Second

type MergedProjectsUseCase struct {
	Upstream ports.UpstreamReader
	Cache    ports.GalleryCache
	Local    ports.LocalProjectSource
	CacheTTL time.Duration
	Clock    ports.Clock
	Logger   *slog.Logger
}

// Execute returns the project list the gallery renders. A server read,
// fresh or cached, wins wholesale over the local session list; the local
// list is used only when no server data can be had at all. The two are
// never merged row by row.
func (uc MergedProjectsUseCase) Execute(ctx context.Context) entities.ProjectListing {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()

	if cached, ok := uc.Cache.GetProjects(ctx); ok {
		return entities.ProjectListing{
			Projects:  sortSummaries(cached),
			Source:    entities.ListingSourceCache,
			FetchedAt: now,
		}
	}

	fetched, err := uc.Upstream.ListProjects(ctx)
	if err != nil {
		local := uc.Local.ActiveProjects(ctx)
		logger.Warn("project list upstream unavailable, serving local session list",
			"event", "gallery_list_fallback_local",
			"module", "clipper-studio/clip-gallery-service",
			"layer", "application",
			"local_count", len(local),
			"error", err.Error(),
		)
		return entities.ProjectListing{
			Projects:  sortSummaries(local),
			Source:    entities.ListingSourceLocal,
			FetchedAt: now,
		}
	}

	ttl := uc.CacheTTL
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	uc.Cache.PutProjects(ctx, fetched, now.Add(ttl))

	return entities.ProjectListing{
		Projects:  sortSummaries(fetched),
		Source:    entities.ListingSourceUpstream,
		FetchedAt: now,
	}
}

// sortSummaries orders most recent first so the gallery always leads with
// the project the user just created.
func sortSummaries(items []entities.ProjectSummary) []entities.ProjectSummary {
	result := append([]entities.ProjectSummary(nil), items...)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
