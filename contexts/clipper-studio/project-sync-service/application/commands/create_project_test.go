package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"clipperstudio/contexts/clipper-studio/project-sync-service/adapters/memory"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type fakeScheduler struct {
	mu      sync.Mutex
	started []string
}

func (f *fakeScheduler) StartPolling(_ context.Context, projectID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, projectID)
	return true
}

func (f *fakeScheduler) startedFor() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.EventEnvelope
}

func (r *recordingPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) lastEvent() (ports.EventEnvelope, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ports.EventEnvelope{}, false
	}
	return r.events[len(r.events)-1], true
}

func newCreateFixture() (*memory.Store, *fakeScheduler, *recordingPublisher, CreateProjectUseCase) {
	store := memory.NewStore(nil, nil, slog.Default())
	scheduler := &fakeScheduler{}
	publisher := &recordingPublisher{}
	uc := CreateProjectUseCase{
		Store:        store,
		Staging:      store,
		Thumbnails:   store,
		ThumbnailTTL: 5 * time.Minute,
		Uploads:      store,
		Processing:   store,
		Poller:       scheduler,
		Publisher:    publisher,
		Clock:        store,
		IDGenerator:  store,
		Logger:       slog.Default(),
	}
	return store, scheduler, publisher, uc
}

func TestCreateProjectAsyncStartsPolling(t *testing.T) {
	store, scheduler, _, uc := newCreateFixture()
	ctx := context.Background()

	result, err := uc.Execute(ctx, CreateProjectCommand{SourceURL: "https://example.com/talk.mp4"})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !result.PollingStarted {
		t.Fatalf("expected polling to start for an async detection")
	}
	if result.ClipsReady {
		t.Fatalf("expected no synchronous completion")
	}
	if result.Project.Status != entities.ProjectStatusProcessing {
		t.Fatalf("expected project left processing, got %s", result.Project.Status)
	}
	if entities.IsLocalProjectID(result.Project.ProjectID) {
		t.Fatalf("expected placeholder swapped for the assigned id, got %s", result.Project.ProjectID)
	}

	started := scheduler.startedFor()
	if len(started) != 1 || started[0] != result.Project.ProjectID {
		t.Fatalf("expected one poll loop for %s, got %v", result.Project.ProjectID, started)
	}
	if current := store.CurrentProjectID(ctx); current != result.Project.ProjectID {
		t.Fatalf("expected current selection on the new project, got %q", current)
	}
	if staged := store.Staging(ctx); staged.SourceURL != "" || staged.UploadedFile != nil {
		t.Fatalf("expected staging cleared after a successful create, got %+v", staged)
	}
}

func TestCreateProjectSyncCompletionSkipsPolling(t *testing.T) {
	store, scheduler, publisher, uc := newCreateFixture()
	ctx := context.Background()

	store.SetDetectResult(ports.DetectClipsResult{Success: true, ClipCount: 4})

	result, err := uc.Execute(ctx, CreateProjectCommand{SourceURL: "https://example.com/talk.mp4"})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !result.ClipsReady {
		t.Fatalf("expected clips ready on a synchronous detection")
	}
	if result.PollingStarted {
		t.Fatalf("expected no poll loop for a synchronous detection")
	}
	if len(scheduler.startedFor()) != 0 {
		t.Fatalf("expected scheduler untouched, got %v", scheduler.startedFor())
	}
	if result.Project.Status != entities.ProjectStatusCompleted {
		t.Fatalf("expected status completed, got %s", result.Project.Status)
	}
	if result.Project.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", result.Project.Progress)
	}

	event, ok := publisher.lastEvent()
	if !ok {
		t.Fatalf("expected a status event for the completion")
	}
	var payload ports.ProjectStatusChangedEvent
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("expected decodable payload, got error: %v", err)
	}
	if payload.Status != string(entities.ProjectStatusCompleted) || !payload.Terminal {
		t.Fatalf("expected terminal completed payload, got %+v", payload)
	}
}

func TestCreateProjectRequiresExactlyOneSource(t *testing.T) {
	_, _, _, uc := newCreateFixture()
	ctx := context.Background()

	if _, err := uc.Execute(ctx, CreateProjectCommand{}); !errors.Is(err, domainerrors.ErrNoInputStaged) {
		t.Fatalf("expected ErrNoInputStaged, got %v", err)
	}

	_, err := uc.Execute(ctx, CreateProjectCommand{
		SourceURL:    "https://example.com/talk.mp4",
		UploadedFile: &entities.UploadedFile{Name: "talk.mp4", Ref: "upload-1"},
	})
	if !errors.Is(err, domainerrors.ErrAmbiguousInput) {
		t.Fatalf("expected ErrAmbiguousInput, got %v", err)
	}
}

func TestCreateProjectFallsBackToStagedInput(t *testing.T) {
	store, _, _, uc := newCreateFixture()
	ctx := context.Background()

	store.SetSourceURL(ctx, "https://example.com/staged.mp4")

	result, err := uc.Execute(ctx, CreateProjectCommand{})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.Project.OriginalVideo.SourceURL != "https://example.com/staged.mp4" {
		t.Fatalf("expected staged url used, got %q", result.Project.OriginalVideo.SourceURL)
	}
}

func TestCreateProjectExplicitURLOverridesStagedFile(t *testing.T) {
	store, _, _, uc := newCreateFixture()
	ctx := context.Background()

	store.SetUploadedFile(ctx, entities.UploadedFile{Name: "staged.mp4", Ref: "upload-1"})

	result, err := uc.Execute(ctx, CreateProjectCommand{SourceURL: "https://example.com/explicit.mp4"})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.Project.OriginalVideo.SourceURL != "https://example.com/explicit.mp4" {
		t.Fatalf("expected explicit url to win, got %q", result.Project.OriginalVideo.SourceURL)
	}
}

func TestCreateProjectClassifiesBackendFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want entities.ProjectStatus
	}{
		{name: "timeout", err: domainerrors.ErrUpstreamTimeout, want: entities.ProjectStatusTimeout},
		{name: "deadline", err: context.DeadlineExceeded, want: entities.ProjectStatusTimeout},
		{name: "unreachable", err: domainerrors.ErrUpstreamUnreachable, want: entities.ProjectStatusNetworkError},
		{name: "other", err: errors.New("boom"), want: entities.ProjectStatusError},
	}

	for _, tc := range cases {
		store, scheduler, _, uc := newCreateFixture()
		ctx := context.Background()
		store.FailCreate(tc.err)

		result, err := uc.Execute(ctx, CreateProjectCommand{SourceURL: "https://example.com/talk.mp4"})
		if err != nil {
			t.Fatalf("%s: expected failure absorbed into status, got error: %v", tc.name, err)
		}
		if result.Project.Status != tc.want {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.want, result.Project.Status)
		}
		if !entities.IsLocalProjectID(result.Project.ProjectID) {
			t.Fatalf("%s: expected the placeholder kept when creation never reached the backend, got %s", tc.name, result.Project.ProjectID)
		}
		if result.Project.ProgressMessage != entities.DefaultProgressMessage(tc.want) {
			t.Fatalf("%s: expected stock failure message, got %q", tc.name, result.Project.ProgressMessage)
		}
		if len(scheduler.startedFor()) != 0 {
			t.Fatalf("%s: expected no poll loop after a failed create", tc.name)
		}
	}
}

func TestCreateProjectDetectFailureKeepsStagedInput(t *testing.T) {
	store, _, _, uc := newCreateFixture()
	ctx := context.Background()

	store.SetSourceURL(ctx, "https://example.com/staged.mp4")
	store.FailDetect(domainerrors.ErrUpstreamTimeout)

	result, err := uc.Execute(ctx, CreateProjectCommand{})
	if err != nil {
		t.Fatalf("expected failure absorbed into status, got error: %v", err)
	}
	if result.Project.Status != entities.ProjectStatusTimeout {
		t.Fatalf("expected status timeout, got %s", result.Project.Status)
	}
	if entities.IsLocalProjectID(result.Project.ProjectID) {
		t.Fatalf("expected the assigned id once creation succeeded, got %s", result.Project.ProjectID)
	}
	if staged := store.Staging(ctx); staged.SourceURL != "https://example.com/staged.mp4" {
		t.Fatalf("expected staged input kept for a retry, got %+v", staged)
	}
}

func TestCreateProjectThumbnailUploadFallsBackToInline(t *testing.T) {
	store, _, _, uc := newCreateFixture()
	ctx := context.Background()

	inline := "data:image/png;base64,aGk="
	store.FailThumbnailUpload(errors.New("cdn down"))

	result, err := uc.Execute(ctx, CreateProjectCommand{
		SourceURL: "https://example.com/talk.mp4",
		Thumbnail: inline,
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.Project.OriginalVideo.ThumbnailURL != inline {
		t.Fatalf("expected inline fallback thumbnail, got %q", result.Project.OriginalVideo.ThumbnailURL)
	}
}

func TestCreateProjectThumbnailUploadIsCachedPerSource(t *testing.T) {
	_, _, _, uc := newCreateFixture()
	ctx := context.Background()

	inline := "data:image/png;base64,aGk="

	first, err := uc.Execute(ctx, CreateProjectCommand{
		SourceURL: "https://example.com/talk.mp4",
		Thumbnail: inline,
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !strings.HasPrefix(first.Project.OriginalVideo.ThumbnailURL, "https://") {
		t.Fatalf("expected uploaded thumbnail url, got %q", first.Project.OriginalVideo.ThumbnailURL)
	}

	second, err := uc.Execute(ctx, CreateProjectCommand{
		SourceURL: "https://example.com/talk.mp4",
		Thumbnail: inline,
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if second.Project.OriginalVideo.ThumbnailURL != first.Project.OriginalVideo.ThumbnailURL {
		t.Fatalf("expected the cached thumbnail url reused, got %q then %q",
			first.Project.OriginalVideo.ThumbnailURL, second.Project.OriginalVideo.ThumbnailURL)
	}
}

// vanishingBackend simulates the placeholder being deleted while the backend
// registration is still in flight.
type vanishingBackend struct {
	*memory.Store
}

func (v vanishingBackend) CreateProject(ctx context.Context, input ports.CreateProjectInput) (ports.CreatedProject, error) {
	for _, project := range v.Store.ListActiveProjects(ctx) {
		if entities.IsLocalProjectID(project.ProjectID) {
			v.Store.RemoveProject(ctx, project.ProjectID, time.Now().UTC())
		}
	}
	return v.Store.CreateProject(ctx, input)
}

func TestCreateProjectPlaceholderVanishedMidFlight(t *testing.T) {
	store, scheduler, _, uc := newCreateFixture()
	uc.Processing = vanishingBackend{Store: store}
	ctx := context.Background()

	_, err := uc.Execute(ctx, CreateProjectCommand{SourceURL: "https://example.com/talk.mp4"})
	if !errors.Is(err, domainerrors.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound when the placeholder vanished, got %v", err)
	}
	if len(scheduler.startedFor()) != 0 {
		t.Fatalf("expected no poll loop for an untracked project")
	}
}
