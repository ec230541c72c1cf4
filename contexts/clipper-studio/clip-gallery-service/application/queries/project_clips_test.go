package queries

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"clipperstudio/contexts/clipper-studio/clip-gallery-service/adapters/memory"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/errors"
)

func newClipsFixture() (*memory.Store, ProjectClipsUseCase) {
	store := memory.NewStore(slog.Default())
	uc := ProjectClipsUseCase{
		Upstream: store,
		Cache:    store,
		Clock:    store,
		Logger:   slog.Default(),
	}
	return store, uc
}

func TestProjectClipsRejectsEmptyInput(t *testing.T) {
	_, uc := newClipsFixture()
	ctx := context.Background()

	if _, err := uc.Execute(ctx, ProjectClipsQuery{}); !errors.Is(err, domainerrors.ErrInvalidGalleryInput) {
		t.Fatalf("expected ErrInvalidGalleryInput, got %v", err)
	}
	if _, err := uc.Execute(ctx, ProjectClipsQuery{ProjectIDs: []string{"", "   "}}); !errors.Is(err, domainerrors.ErrInvalidGalleryInput) {
		t.Fatalf("expected ErrInvalidGalleryInput for blank ids, got %v", err)
	}
}

func TestProjectClipsFetchesOnlyCacheMisses(t *testing.T) {
	store, uc := newClipsFixture()
	ctx := context.Background()

	store.PutClips(ctx, entities.ClipPage{
		ProjectID:      "proj-cached",
		TotalClips:     3,
		ProcessedClips: 3,
	}, time.Now().Add(time.Minute))
	store.SetUpstreamClips(entities.ClipPage{
		ProjectID:      "proj-fresh",
		TotalClips:     5,
		ProcessedClips: 2,
		Clips: []entities.Clip{
			{ClipID: "clip-1", StartSeconds: 4, EndSeconds: 19.5, ViralityScore: 0.82},
		},
	})

	pages, err := uc.Execute(ctx, ProjectClipsQuery{ProjectIDs: []string{"proj-cached", "proj-fresh"}})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected both pages, got %d", len(pages))
	}
	if store.ClipsCalls() != 1 {
		t.Fatalf("expected one bulk fetch for the miss, got %d", store.ClipsCalls())
	}
	if pages["proj-fresh"].FetchedAt.IsZero() {
		t.Fatalf("expected FetchedAt stamped on the fetched page")
	}

	// The fetched page must now be cached: a repeat read is upstream-free.
	if _, err := uc.Execute(ctx, ProjectClipsQuery{ProjectIDs: []string{"proj-fresh"}}); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if store.ClipsCalls() != 1 {
		t.Fatalf("expected no second fetch for a cached page, got %d", store.ClipsCalls())
	}
}

func TestProjectClipsDegradesToCachedSubsetOnFailure(t *testing.T) {
	store, uc := newClipsFixture()
	ctx := context.Background()

	store.PutClips(ctx, entities.ClipPage{ProjectID: "proj-cached", TotalClips: 2, ProcessedClips: 2}, time.Now().Add(time.Minute))
	store.FailClips(errors.New("gateway down"))

	pages, err := uc.Execute(ctx, ProjectClipsQuery{ProjectIDs: []string{"proj-cached", "proj-missing"}})
	if err != nil {
		t.Fatalf("expected the failure swallowed, got error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected only the cached page, got %d", len(pages))
	}
	if _, ok := pages["proj-cached"]; !ok {
		t.Fatalf("expected the cached page present, got %+v", pages)
	}
}

func TestProjectClipsDeduplicatesRequestedIDs(t *testing.T) {
	store, uc := newClipsFixture()
	ctx := context.Background()

	store.SetUpstreamClips(entities.ClipPage{ProjectID: "proj-1", TotalClips: 1, ProcessedClips: 1})

	pages, err := uc.Execute(ctx, ProjectClipsQuery{ProjectIDs: []string{"proj-1", " proj-1 ", "proj-1"}})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected one page for the deduplicated id, got %d", len(pages))
	}
	if store.ClipsCalls() != 1 {
		t.Fatalf("expected a single bulk fetch, got %d", store.ClipsCalls())
	}
}

func TestProjectClipsOmitsProjectsUnknownUpstream(t *testing.T) {
	store, uc := newClipsFixture()
	ctx := context.Background()

	pages, err := uc.Execute(ctx, ProjectClipsQuery{ProjectIDs: []string{"proj-unknown"}})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("expected no page for an unknown project, got %+v", pages)
	}
	if _, ok := store.GetClips(ctx, "proj-unknown"); ok {
		t.Fatalf("expected nothing cached for an unknown project")
	}
}
