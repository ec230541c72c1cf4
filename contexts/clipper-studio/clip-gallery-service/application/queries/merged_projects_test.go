package queries

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"clipperstudio/contexts/clipper-studio/clip-gallery-service/adapters/memory"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
)

func newListingFixture() (*memory.Store, MergedProjectsUseCase) {
	store := memory.NewStore(slog.Default())
	uc := MergedProjectsUseCase{
		Upstream: store,
		Cache:    store,
		Local:    store,
		Clock:    store,
		Logger:   slog.Default(),
	}
	return store, uc
}

func TestMergedProjectsServesCachedListWithoutUpstreamCall(t *testing.T) {
	store, uc := newListingFixture()
	ctx := context.Background()

	store.PutProjects(ctx, []entities.ProjectSummary{{ProjectID: "proj-1", Status: "completed"}}, time.Now().Add(time.Minute))

	listing := uc.Execute(ctx)
	if listing.Source != entities.ListingSourceCache {
		t.Fatalf("expected cache source, got %s", listing.Source)
	}
	if !listing.ServerAuthoritative() {
		t.Fatalf("expected cached list to count as server data")
	}
	if store.ListCalls() != 0 {
		t.Fatalf("expected no upstream call on a cache hit, got %d", store.ListCalls())
	}
}

func TestMergedProjectsFetchesAndCachesOnMiss(t *testing.T) {
	store, uc := newListingFixture()
	ctx := context.Background()

	store.SetUpstreamProjects([]entities.ProjectSummary{{ProjectID: "proj-1", Status: "processing"}})

	listing := uc.Execute(ctx)
	if listing.Source != entities.ListingSourceUpstream {
		t.Fatalf("expected upstream source, got %s", listing.Source)
	}
	if len(listing.Projects) != 1 || listing.Projects[0].ProjectID != "proj-1" {
		t.Fatalf("expected the fetched row, got %+v", listing.Projects)
	}

	second := uc.Execute(ctx)
	if second.Source != entities.ListingSourceCache {
		t.Fatalf("expected the second read served from cache, got %s", second.Source)
	}
	if store.ListCalls() != 1 {
		t.Fatalf("expected a single upstream call, got %d", store.ListCalls())
	}
}

func TestMergedProjectsFallsBackToLocalWhenUpstreamDown(t *testing.T) {
	store, uc := newListingFixture()
	ctx := context.Background()

	store.FailList(errors.New("gateway down"))
	store.SetLocalProjects([]entities.ProjectSummary{{ProjectID: "local-1741608000000", Status: "processing"}})

	listing := uc.Execute(ctx)
	if listing.Source != entities.ListingSourceLocal {
		t.Fatalf("expected local fallback, got %s", listing.Source)
	}
	if listing.ServerAuthoritative() {
		t.Fatalf("expected local fallback to be non-authoritative")
	}
	if len(listing.Projects) != 1 || listing.Projects[0].ProjectID != "local-1741608000000" {
		t.Fatalf("expected the session list, got %+v", listing.Projects)
	}
}

func TestMergedProjectsServerListReplacesLocalWholesale(t *testing.T) {
	store, uc := newListingFixture()
	ctx := context.Background()

	// The session still tracks a placeholder the server has never heard of.
	store.SetLocalProjects([]entities.ProjectSummary{
		{ProjectID: "proj-1", Status: "processing", Progress: 80},
		{ProjectID: "local-1741608000000", Status: "processing"},
	})
	store.SetUpstreamProjects([]entities.ProjectSummary{
		{ProjectID: "proj-1", Status: "completed", Progress: 100},
	})

	listing := uc.Execute(ctx)
	if listing.Source != entities.ListingSourceUpstream {
		t.Fatalf("expected upstream source, got %s", listing.Source)
	}
	if len(listing.Projects) != 1 {
		t.Fatalf("expected the server list verbatim, got %d rows", len(listing.Projects))
	}
	if listing.Projects[0].Status != "completed" || listing.Projects[0].Progress != 100 {
		t.Fatalf("expected server row untouched by local state, got %+v", listing.Projects[0])
	}
}

func TestMergedProjectsOrdersMostRecentFirst(t *testing.T) {
	store, uc := newListingFixture()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	store.SetUpstreamProjects([]entities.ProjectSummary{
		{ProjectID: "proj-old", CreatedAt: base.Add(-2 * time.Hour)},
		{ProjectID: "proj-new", CreatedAt: base},
		{ProjectID: "proj-mid", CreatedAt: base.Add(-time.Hour)},
	})

	listing := uc.Execute(ctx)
	want := []string{"proj-new", "proj-mid", "proj-old"}
	for i, id := range want {
		if listing.Projects[i].ProjectID != id {
			t.Fatalf("expected %s at position %d, got %s", id, i, listing.Projects[i].ProjectID)
		}
	}
}
