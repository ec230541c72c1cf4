package queries

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"clipperstudio/contexts/clipper-studio/project-sync-service/adapters/memory"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
)

func TestListProjectsOrdersMostRecentFirst(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	uc := ListProjectsUseCase{Store: store, Logger: slog.Default()}
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	store.AddProject(ctx, entities.Project{ProjectID: "proj-old", CreatedAt: base.Add(-2 * time.Hour)}, base)
	store.AddProject(ctx, entities.Project{ProjectID: "proj-new", CreatedAt: base}, base)
	store.AddProject(ctx, entities.Project{ProjectID: "proj-mid", CreatedAt: base.Add(-time.Hour)}, base)
	store.AddProject(ctx, entities.Project{ProjectID: "local-1741608000000", CreatedAt: base.Add(time.Minute)}, base)

	projects := uc.Execute(ctx)
	if len(projects) != 4 {
		t.Fatalf("expected 4 projects, got %d", len(projects))
	}

	want := []string{"local-1741608000000", "proj-new", "proj-mid", "proj-old"}
	for i, id := range want {
		if projects[i].ProjectID != id {
			t.Fatalf("expected %s at position %d, got %s", id, i, projects[i].ProjectID)
		}
	}
}

func TestListProjectsIncludesPlaceholders(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	uc := ListProjectsUseCase{Store: store, Logger: slog.Default()}
	ctx := context.Background()

	store.AddProject(ctx, entities.Project{ProjectID: "local-1741608000000"}, time.Now().UTC())

	projects := uc.Execute(ctx)
	if len(projects) != 1 {
		t.Fatalf("expected the placeholder listed, got %d projects", len(projects))
	}
	if !entities.IsLocalProjectID(projects[0].ProjectID) {
		t.Fatalf("expected a placeholder id, got %s", projects[0].ProjectID)
	}
}
