package memory

import (
	"context"
	"sync"

	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

// upstreamStub is the scripted stand-in for the processing backend. Tests
// and the in-memory module enqueue the observations each poll should see;
// an empty queue keeps replaying the last observation so loops behave like
// they would against a quiet backend.
type upstreamStub struct {
	mu sync.Mutex

	statusQueues map[string][]statusOutcome
	lastOutcome  map[string]statusOutcome
	statusCalls  map[string]int

	createErr    error
	detectErr    error
	detectResult *ports.DetectClipsResult
	deleteErr    error
	saveErr      error
	uploadErr    error
}

type statusOutcome struct {
	snapshot ports.ProjectStatusSnapshot
	err      error
}

var (
	_ ports.ProcessingClient = (*Store)(nil)
	_ ports.ThumbnailStore   = (*Store)(nil)
)

func (s *Store) CreateProject(ctx context.Context, input ports.CreateProjectInput) (ports.CreatedProject, error) {
	s.upstream.mu.Lock()
	err := s.upstream.createErr
	s.upstream.mu.Unlock()
	if err != nil {
		return ports.CreatedProject{}, err
	}
	return ports.CreatedProject{ProjectID: s.nextID("proj")}, nil
}

func (s *Store) DetectClips(ctx context.Context, input ports.DetectClipsInput) (ports.DetectClipsResult, error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	if s.upstream.detectErr != nil {
		return ports.DetectClipsResult{}, s.upstream.detectErr
	}
	if s.upstream.detectResult != nil {
		return *s.upstream.detectResult, nil
	}
	return ports.DetectClipsResult{Success: true, Status: string(entities.ProjectStatusProcessing)}, nil
}

func (s *Store) FetchProjectStatus(ctx context.Context, projectID string) (ports.ProjectStatusSnapshot, error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()

	if s.upstream.statusCalls == nil {
		s.upstream.statusCalls = make(map[string]int)
	}
	s.upstream.statusCalls[projectID]++

	queue := s.upstream.statusQueues[projectID]
	if len(queue) > 0 {
		outcome := queue[0]
		s.upstream.statusQueues[projectID] = queue[1:]
		if s.upstream.lastOutcome == nil {
			s.upstream.lastOutcome = make(map[string]statusOutcome)
		}
		s.upstream.lastOutcome[projectID] = outcome
		return outcome.snapshot, outcome.err
	}
	if outcome, ok := s.upstream.lastOutcome[projectID]; ok {
		return outcome.snapshot, outcome.err
	}
	return ports.ProjectStatusSnapshot{Status: string(entities.ProjectStatusProcessing)}, nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	return s.upstream.deleteErr
}

func (s *Store) SaveProject(ctx context.Context, projectID string) (entities.Project, error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	if s.upstream.saveErr != nil {
		return entities.Project{}, s.upstream.saveErr
	}
	return entities.Project{
		ProjectID:  projectID,
		SaveStatus: entities.SaveStatus{IsSaved: true},
	}, nil
}

func (s *Store) Upload(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	if s.upstream.uploadErr != nil {
		return "", s.upstream.uploadErr
	}
	return "https://cdn.clipperstudio.dev/thumbnails/" + name + ".jpg", nil
}

// EnqueueStatus scripts the next status observation for a project.
func (s *Store) EnqueueStatus(projectID string, snapshot ports.ProjectStatusSnapshot) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	if s.upstream.statusQueues == nil {
		s.upstream.statusQueues = make(map[string][]statusOutcome)
	}
	s.upstream.statusQueues[projectID] = append(s.upstream.statusQueues[projectID], statusOutcome{snapshot: snapshot})
}

// EnqueueStatusError scripts a failing status observation.
func (s *Store) EnqueueStatusError(projectID string, err error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	if s.upstream.statusQueues == nil {
		s.upstream.statusQueues = make(map[string][]statusOutcome)
	}
	s.upstream.statusQueues[projectID] = append(s.upstream.statusQueues[projectID], statusOutcome{err: err})
}

// StatusRequests reports how many status observations a project received.
func (s *Store) StatusRequests(projectID string) int {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	return s.upstream.statusCalls[projectID]
}

// FailCreate makes backend project creation fail with err until reset.
func (s *Store) FailCreate(err error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	s.upstream.createErr = err
}

// FailDetect makes clip detection fail with err until reset.
func (s *Store) FailDetect(err error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	s.upstream.detectErr = err
}

// SetDetectResult overrides the detection response, e.g. to script the
// synchronous small-input completion path.
func (s *Store) SetDetectResult(result ports.DetectClipsResult) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	s.upstream.detectResult = &result
}

// FailDelete makes backend deletion fail with err until reset.
func (s *Store) FailDelete(err error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	s.upstream.deleteErr = err
}

// FailSave makes backend save fail with err until reset.
func (s *Store) FailSave(err error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	s.upstream.saveErr = err
}

// FailThumbnailUpload makes thumbnail uploads fail with err until reset.
func (s *Store) FailThumbnailUpload(err error) {
	s.upstream.mu.Lock()
	defer s.upstream.mu.Unlock()
	s.upstream.uploadErr = err
}
