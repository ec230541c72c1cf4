package queries

import (
	"context"
	"log/slog"
	"sort"

	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type ListProjectsUseCase struct {
	Store  ports.ProjectStore
	Logger *slog.Logger
}

// Execute returns the session's projects most-recent-first. Placeholder
// projects still waiting for a backend id are included; they are real to
// the session.
func (uc ListProjectsUseCase) Execute(ctx context.Context) []entities.Project {
	projects := uc.Store.ListActiveProjects(ctx)
	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects
}
