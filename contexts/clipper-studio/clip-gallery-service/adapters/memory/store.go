package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	"clipperstudio/contexts/clipper-studio/clip-gallery-service/ports"
)

// Store is the in-memory rendition of every gallery port: the cache, a
// scriptable upstream, the local session list and the clock. Tests and
// the in-memory module wire one Store everywhere.
type Store struct {
	mu sync.RWMutex

	projectList *projectListEntry
	clipPages   map[string]clipPageEntry

	localProjects []entities.ProjectSummary

	upstreamProjects []entities.ProjectSummary
	upstreamPages    map[string]entities.ClipPage
	listErr          error
	clipsErr         error
	listCalls        int
	clipsCalls       int

	logger *slog.Logger
}

type projectListEntry struct {
	projects  []entities.ProjectSummary
	expiresAt time.Time
}

type clipPageEntry struct {
	page      entities.ClipPage
	expiresAt time.Time
}

var (
	_ ports.GalleryCache       = (*Store)(nil)
	_ ports.UpstreamReader     = (*Store)(nil)
	_ ports.LocalProjectSource = (*Store)(nil)
	_ ports.Clock              = (*Store)(nil)
)

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		clipPages:     make(map[string]clipPageEntry),
		upstreamPages: make(map[string]entities.ClipPage),
		logger:        logger,
	}
}

func (s *Store) GetProjects(_ context.Context) ([]entities.ProjectSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.projectList == nil || time.Now().UTC().After(s.projectList.expiresAt) {
		return nil, false
	}
	return append([]entities.ProjectSummary(nil), s.projectList.projects...), true
}

func (s *Store) PutProjects(_ context.Context, projects []entities.ProjectSummary, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projectList = &projectListEntry{
		projects:  append([]entities.ProjectSummary(nil), projects...),
		expiresAt: expiresAt,
	}
}

func (s *Store) InvalidateProjects(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectList = nil
}

func (s *Store) PatchProject(_ context.Context, patch ports.ProjectStatusPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.projectList == nil {
		return false
	}
	for i, row := range s.projectList.projects {
		if row.ProjectID != patch.ProjectID {
			continue
		}
		if patch.Status != "" {
			row.Status = patch.Status
		}
		if patch.Progress != nil {
			row.Progress = *patch.Progress
		}
		if patch.ProgressMessage != "" {
			row.ProgressMessage = patch.ProgressMessage
		}
		s.projectList.projects[i] = row
		return true
	}
	return false
}

func (s *Store) RemoveProject(_ context.Context, projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.projectList == nil {
		return false
	}
	for i, row := range s.projectList.projects {
		if row.ProjectID == projectID {
			s.projectList.projects = append(s.projectList.projects[:i], s.projectList.projects[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) GetClips(_ context.Context, projectID string) (entities.ClipPage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.clipPages[projectID]
	if !ok || time.Now().UTC().After(entry.expiresAt) {
		return entities.ClipPage{}, false
	}
	return copyPage(entry.page), true
}

func (s *Store) PutClips(_ context.Context, page entities.ClipPage, expiresAt time.Time) {
	if page.ProjectID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipPages[page.ProjectID] = clipPageEntry{page: copyPage(page), expiresAt: expiresAt}
}

func (s *Store) InvalidateClips(_ context.Context, projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clipPages, projectID)
}

func (s *Store) ActiveProjects(_ context.Context) []entities.ProjectSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.ProjectSummary(nil), s.localProjects...)
}

// SetLocalProjects seeds the session list served as the offline fallback.
func (s *Store) SetLocalProjects(projects []entities.ProjectSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localProjects = append([]entities.ProjectSummary(nil), projects...)
}

func (s *Store) ListProjects(_ context.Context) ([]entities.ProjectSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]entities.ProjectSummary(nil), s.upstreamProjects...), nil
}

func (s *Store) FetchClips(_ context.Context, projectIDs []string) (map[string]entities.ClipPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clipsCalls++
	if s.clipsErr != nil {
		return nil, s.clipsErr
	}
	result := make(map[string]entities.ClipPage, len(projectIDs))
	for _, id := range projectIDs {
		if page, ok := s.upstreamPages[id]; ok {
			result[id] = copyPage(page)
		}
	}
	return result, nil
}

// SetUpstreamProjects scripts the server-side project list.
func (s *Store) SetUpstreamProjects(projects []entities.ProjectSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upstreamProjects = append([]entities.ProjectSummary(nil), projects...)
}

// SetUpstreamClips scripts one server-side clip page.
func (s *Store) SetUpstreamClips(page entities.ClipPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upstreamPages[page.ProjectID] = copyPage(page)
}

// FailList makes subsequent list fetches fail with err; nil restores.
func (s *Store) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// FailClips makes subsequent clip fetches fail with err; nil restores.
func (s *Store) FailClips(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipsErr = err
}

func (s *Store) ListCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listCalls
}

func (s *Store) ClipsCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clipsCalls
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func copyPage(page entities.ClipPage) entities.ClipPage {
	result := page
	result.Clips = append([]entities.Clip(nil), page.Clips...)
	return result
}
