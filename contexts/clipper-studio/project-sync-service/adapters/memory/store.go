package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

// Store is the in-memory session state container. It is the authoritative
// copy at runtime; an optional persistence sink receives a durable snapshot
// after every applied project mutation so a restart can pick up where the
// session left off. Sink failures are logged and never fail the mutation.
type Store struct {
	mu sync.RWMutex

	projects       map[string]entities.Project
	currentID      string
	galleryVisible bool
	lastUpdatedAt  time.Time
	revision       uint64

	staging    ports.StagingState
	thumbnails map[string]thumbEntry

	persistence ports.StatePersistence
	logger      *slog.Logger
	sequence    uint64

	upstream upstreamStub
}

type thumbEntry struct {
	URL       string
	ExpiresAt time.Time
}

var (
	_ ports.ProjectStore   = (*Store)(nil)
	_ ports.InputStaging   = (*Store)(nil)
	_ ports.ThumbnailCache = (*Store)(nil)
	_ ports.Clock          = (*Store)(nil)
	_ ports.IDGenerator    = (*Store)(nil)
)

// NewStore builds the store, rehydrating from a persisted snapshot when one
// is given. Transient fields (staging, thumbnail cache) always start empty:
// they are session-only by contract.
func NewStore(state *ports.PersistedState, sink ports.StatePersistence, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		projects:    make(map[string]entities.Project),
		thumbnails:  make(map[string]thumbEntry),
		persistence: sink,
		logger:      logger,
	}
	if state != nil {
		for _, project := range state.Projects {
			if project.ProjectID == "" {
				continue
			}
			s.projects[project.ProjectID] = project
		}
		s.currentID = state.CurrentProjectID
		if _, ok := s.projects[s.currentID]; !ok {
			s.currentID = ""
		}
		s.galleryVisible = state.GalleryVisible
		s.lastUpdatedAt = state.LastUpdatedAt
		logger.Info("session state rehydrated",
			"event", "state_rehydrated",
			"module", "clipper-studio/project-sync-service",
			"layer", "adapter",
			"project_count", len(s.projects),
			"schema_version", state.SchemaVersion,
		)
	}
	return s
}

func (s *Store) AddProject(ctx context.Context, project entities.Project, now time.Time) (entities.Project, bool) {
	if project.ProjectID == "" {
		s.logger.Warn("add project without id ignored",
			"event", "store_add_rejected",
			"module", "clipper-studio/project-sync-service",
			"layer", "adapter",
		)
		return entities.Project{}, false
	}

	s.mu.Lock()
	if existing, ok := s.projects[project.ProjectID]; ok {
		s.mu.Unlock()
		s.logger.Warn("add project with duplicate id ignored",
			"event", "store_add_duplicate",
			"module", "clipper-studio/project-sync-service",
			"layer", "adapter",
			"project_id", project.ProjectID,
		)
		return existing, false
	}
	project = project.WithDefaults(now.UTC())
	s.projects[project.ProjectID] = project
	snapshot := s.commitLocked(now.UTC())
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return project, true
}

func (s *Store) UpdateProject(ctx context.Context, projectID string, update entities.ProjectUpdate, now time.Time) (entities.Project, bool) {
	s.mu.Lock()
	project, ok := s.projects[projectID]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("update for unknown project ignored",
			"event", "store_update_unknown_project",
			"module", "clipper-studio/project-sync-service",
			"layer", "adapter",
			"project_id", projectID,
		)
		return entities.Project{}, false
	}
	project = update.ApplyTo(project, now.UTC())
	s.projects[projectID] = project
	snapshot := s.commitLocked(now.UTC())
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return project, true
}

func (s *Store) RemoveProject(ctx context.Context, projectID string, now time.Time) bool {
	s.mu.Lock()
	if _, ok := s.projects[projectID]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.projects, projectID)
	if s.currentID == projectID {
		s.currentID = ""
	}
	snapshot := s.commitLocked(now.UTC())
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return true
}

// ReconcileProjectID re-keys a placeholder under its backend-assigned id.
// The project keeps everything else: status, video descriptor, timestamps.
func (s *Store) ReconcileProjectID(ctx context.Context, placeholderID string, assignedID string, now time.Time) (entities.Project, bool) {
	if assignedID == "" || placeholderID == assignedID {
		return entities.Project{}, false
	}

	s.mu.Lock()
	project, ok := s.projects[placeholderID]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("reconcile for unknown placeholder ignored",
			"event", "store_reconcile_unknown_placeholder",
			"module", "clipper-studio/project-sync-service",
			"layer", "adapter",
			"placeholder_id", placeholderID,
		)
		return entities.Project{}, false
	}
	delete(s.projects, placeholderID)
	project.ProjectID = assignedID
	project.UpdatedAt = now.UTC()
	s.projects[assignedID] = project
	if s.currentID == placeholderID {
		s.currentID = assignedID
	}
	snapshot := s.commitLocked(now.UTC())
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return project, true
}

func (s *Store) GetProject(_ context.Context, projectID string) (entities.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[projectID]
	return project, ok
}

func (s *Store) ListActiveProjects(_ context.Context) []entities.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]entities.Project, 0, len(s.projects))
	for _, project := range s.projects {
		projects = append(projects, project)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ProjectID < projects[j].ProjectID
	})
	return projects
}

func (s *Store) ListUnsavedExpired(_ context.Context, now time.Time) []entities.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make([]entities.Project, 0)
	for _, project := range s.projects {
		if project.ExpiredUnsaved(now) {
			expired = append(expired, project)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ProjectID < expired[j].ProjectID
	})
	return expired
}

func (s *Store) SetCurrentProject(ctx context.Context, projectID string, now time.Time) {
	s.mu.Lock()
	s.currentID = projectID
	snapshot := s.commitLocked(now.UTC())
	s.mu.Unlock()
	s.persist(ctx, snapshot)
}

func (s *Store) CurrentProjectID(_ context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

func (s *Store) SetGalleryVisible(ctx context.Context, visible bool, now time.Time) {
	s.mu.Lock()
	s.galleryVisible = visible
	snapshot := s.commitLocked(now.UTC())
	s.mu.Unlock()
	s.persist(ctx, snapshot)
}

func (s *Store) GalleryVisible(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.galleryVisible
}

func (s *Store) LastUpdatedAt(_ context.Context) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdatedAt
}

// Revision counts applied mutations. No-op calls leave it unchanged, which
// is what store tests assert instead of comparing whole state dumps.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) SetSourceURL(_ context.Context, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging = ports.StagingState{SourceURL: url}
}

func (s *Store) SetUploadedFile(_ context.Context, file entities.UploadedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging = ports.StagingState{UploadedFile: &file}
}

func (s *Store) SetPreviewThumbnail(_ context.Context, preview string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging.PreviewThumbnail = preview
	s.staging.PreviewLoading = false
}

func (s *Store) SetPreviewLoading(_ context.Context, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging.PreviewLoading = loading
}

func (s *Store) ClearInput(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging = ports.StagingState{}
}

func (s *Store) Staging(_ context.Context) ports.StagingState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staged := s.staging
	if staged.UploadedFile != nil {
		file := *staged.UploadedFile
		staged.UploadedFile = &file
	}
	return staged
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (string, bool) {
	s.mu.RLock()
	entry, ok := s.thumbnails[key]
	s.mu.RUnlock()
	if !ok || !now.Before(entry.ExpiresAt) {
		return "", false
	}
	return entry.URL, true
}

func (s *Store) Put(_ context.Context, key string, thumbnailURL string, expiresAt time.Time) {
	if key == "" || thumbnailURL == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thumbnails[key] = thumbEntry{URL: thumbnailURL, ExpiresAt: expiresAt}
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context, prefix string) (string, error) {
	return s.nextID(prefix), nil
}

func (s *Store) nextID(prefix string) string {
	n := atomic.AddUint64(&s.sequence, 1)
	if strings.TrimSpace(prefix) == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, n)
}

// commitLocked stamps the watermark, bumps the revision and snapshots the
// durable subset. Callers hold the write lock.
func (s *Store) commitLocked(now time.Time) ports.PersistedState {
	s.lastUpdatedAt = now
	s.revision++
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() ports.PersistedState {
	projects := make([]entities.Project, 0, len(s.projects))
	for _, project := range s.projects {
		projects = append(projects, sanitizeForPersistence(project))
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ProjectID < projects[j].ProjectID
	})
	return ports.PersistedState{
		SchemaVersion:    ports.StateSchemaVersion,
		Projects:         projects,
		CurrentProjectID: s.currentID,
		GalleryVisible:   s.galleryVisible,
		LastUpdatedAt:    s.lastUpdatedAt,
	}
}

// sanitizeForPersistence strips values that cannot survive a reload.
// Inline data URLs and blob handles only make sense inside the session that
// produced them.
func sanitizeForPersistence(project entities.Project) entities.Project {
	thumb := project.OriginalVideo.ThumbnailURL
	if strings.HasPrefix(thumb, "data:") || strings.HasPrefix(thumb, "blob:") {
		project.OriginalVideo.ThumbnailURL = ""
	}
	return project
}

func (s *Store) persist(ctx context.Context, snapshot ports.PersistedState) {
	if s.persistence == nil {
		return
	}
	if err := s.persistence.Save(ctx, snapshot); err != nil {
		s.logger.Warn("state persist failed",
			"event", "state_persist_failed",
			"module", "clipper-studio/project-sync-service",
			"layer", "adapter",
			"error", err.Error(),
		)
	}
}
