package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"clipperstudio/contexts/clipper-studio/project-sync-service/adapters/memory"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []ports.EventEnvelope
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recordingPublisher) lastEvent() (ports.EventEnvelope, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ports.EventEnvelope{}, false
	}
	return r.events[len(r.events)-1], true
}

// steppingClock advances by step on every read, letting tests fast-forward
// a poll loop past its lifetime cap without sleeping.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.now
	c.now = c.now.Add(c.step)
	return current
}

func newTestPoller(store *memory.Store, publisher *recordingPublisher) *StatusPoller {
	poller := &StatusPoller{
		Store:       store,
		Processing:  store,
		Clock:       store,
		IDGenerator: store,
		Logger:      slog.Default(),
	}
	if publisher != nil {
		poller.Publisher = publisher
	}
	return poller
}

func seedProject(t *testing.T, store *memory.Store, projectID string) {
	t.Helper()
	if _, ok := store.AddProject(context.Background(), entities.Project{ProjectID: projectID}, time.Now().UTC()); !ok {
		t.Fatalf("expected seed project %s to be added", projectID)
	}
}

func TestPollOnceAppliesBackendProgress(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	publisher := &recordingPublisher{}
	poller := newTestPoller(store, publisher)
	ctx := context.Background()
	seedProject(t, store, "proj-1")

	progress := 25
	store.EnqueueStatus("proj-1", ports.ProjectStatusSnapshot{
		Status:          "downloading",
		Progress:        &progress,
		ProgressMessage: "Fetching source",
	})

	if stop := poller.PollOnce(ctx, "proj-1"); stop {
		t.Fatalf("expected loop to continue on a pipeline stage")
	}

	project, _ := store.GetProject(ctx, "proj-1")
	if project.Status != entities.ProjectStatusDownloading {
		t.Fatalf("expected status downloading, got %s", project.Status)
	}
	if project.Progress != 25 {
		t.Fatalf("expected progress 25, got %d", project.Progress)
	}
	if project.ProgressMessage != "Fetching source" {
		t.Fatalf("expected backend message kept, got %q", project.ProgressMessage)
	}

	event, ok := publisher.lastEvent()
	if !ok {
		t.Fatalf("expected a status event for the change")
	}
	if event.EventType != ports.EventTypeStatusChanged {
		t.Fatalf("expected event type %s, got %s", ports.EventTypeStatusChanged, event.EventType)
	}
	var payload ports.ProjectStatusChangedEvent
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("expected decodable payload, got error: %v", err)
	}
	if payload.Terminal {
		t.Fatalf("expected non-terminal payload for downloading")
	}
}

func TestPollOnceCompletedStopsAndForcesFullProgress(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	publisher := &recordingPublisher{}
	poller := newTestPoller(store, publisher)
	ctx := context.Background()
	seedProject(t, store, "proj-1")

	store.EnqueueStatus("proj-1", ports.ProjectStatusSnapshot{Status: "completed"})

	if stop := poller.PollOnce(ctx, "proj-1"); !stop {
		t.Fatalf("expected loop to stop on completed")
	}

	project, _ := store.GetProject(ctx, "proj-1")
	if project.Status != entities.ProjectStatusCompleted {
		t.Fatalf("expected status completed, got %s", project.Status)
	}
	if project.Progress != 100 {
		t.Fatalf("expected progress forced to 100, got %d", project.Progress)
	}
	if project.ProgressMessage != "Clips ready" {
		t.Fatalf("expected stock completion message, got %q", project.ProgressMessage)
	}

	event, ok := publisher.lastEvent()
	if !ok {
		t.Fatalf("expected a terminal status event")
	}
	var payload ports.ProjectStatusChangedEvent
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("expected decodable payload, got error: %v", err)
	}
	if !payload.Terminal {
		t.Fatalf("expected terminal payload for completed")
	}
}

func TestPollOnceMapsBackendErrorStatusToFailed(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	poller := newTestPoller(store, nil)
	ctx := context.Background()
	seedProject(t, store, "proj-1")

	store.EnqueueStatus("proj-1", ports.ProjectStatusSnapshot{Status: "error"})

	if stop := poller.PollOnce(ctx, "proj-1"); !stop {
		t.Fatalf("expected loop to stop on a backend error status")
	}
	project, _ := store.GetProject(ctx, "proj-1")
	if project.Status != entities.ProjectStatusFailed {
		t.Fatalf("expected backend error stored as failed, got %s", project.Status)
	}
}

func TestPollOnceFallsBackToAnalyticsProgress(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	poller := newTestPoller(store, nil)
	ctx := context.Background()
	seedProject(t, store, "proj-1")

	analytics := 57
	store.EnqueueStatus("proj-1", ports.ProjectStatusSnapshot{
		Status:            "analyzing",
		AnalyticsProgress: &analytics,
	})

	if stop := poller.PollOnce(ctx, "proj-1"); stop {
		t.Fatalf("expected loop to continue while analyzing")
	}
	project, _ := store.GetProject(ctx, "proj-1")
	if project.Status != entities.ProjectStatusAnalyzing {
		t.Fatalf("expected status analyzing, got %s", project.Status)
	}
	if project.Progress != 57 {
		t.Fatalf("expected analytics progress 57, got %d", project.Progress)
	}
}

func TestPollOnceAnalyticsErrorFailsProject(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	poller := newTestPoller(store, nil)
	ctx := context.Background()
	seedProject(t, store, "proj-1")

	store.EnqueueStatus("proj-1", ports.ProjectStatusSnapshot{AnalyticsError: "analysis crashed"})

	if stop := poller.PollOnce(ctx, "proj-1"); !stop {
		t.Fatalf("expected loop to stop on an analytics error")
	}
	project, _ := store.GetProject(ctx, "proj-1")
	if project.Status != entities.ProjectStatusFailed {
		t.Fatalf("expected status failed, got %s", project.Status)
	}
	if project.ProgressMessage != "analysis crashed" {
		t.Fatalf("expected the analytics error as message, got %q", project.ProgressMessage)
	}
}

func TestPollOnceMissingUpstreamMarksFailed(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	poller := newTestPoller(store, nil)
	ctx := context.Background()
	seedProject(t, store, "proj-404")
	seedProject(t, store, "proj-nobody")

	store.EnqueueStatusError("proj-404", domainerrors.ErrProjectNotFound)
	store.EnqueueStatusError("proj-nobody", domainerrors.ErrMissingProjectBody)

	for _, projectID := range []string{"proj-404", "proj-nobody"} {
		if stop := poller.PollOnce(ctx, projectID); !stop {
			t.Fatalf("expected loop for %s to stop when the backend lost the project", projectID)
		}
		project, _ := store.GetProject(ctx, projectID)
		if project.Status != entities.ProjectStatusFailed {
			t.Fatalf("expected %s marked failed, got %s", projectID, project.Status)
		}
		if project.ProgressMessage != "Processing failed" {
			t.Fatalf("expected stock failure message for %s, got %q", projectID, project.ProgressMessage)
		}
	}
}

func TestPollOnceTransientFailureLeavesProjectUntouched(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	poller := newTestPoller(store, nil)
	ctx := context.Background()
	seedProject(t, store, "proj-1")
	revision := store.Revision()

	store.EnqueueStatusError("proj-1", errors.New("connection reset"))

	if stop := poller.PollOnce(ctx, "proj-1"); stop {
		t.Fatalf("expected loop to survive a transient fetch failure")
	}
	project, _ := store.GetProject(ctx, "proj-1")
	if project.Status != entities.ProjectStatusProcessing {
		t.Fatalf("expected status untouched, got %s", project.Status)
	}
	if store.Revision() != revision {
		t.Fatalf("expected no store write on a transient failure")
	}
}

func TestPollOnceSkipsTerminalProject(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	poller := newTestPoller(store, nil)
	ctx := context.Background()

	store.AddProject(ctx, entities.Project{
		ProjectID: "proj-done",
		Status:    entities.ProjectStatusCompleted,
	}, time.Now().UTC())

	if stop := poller.PollOnce(ctx, "proj-done"); !stop {
		t.Fatalf("expected loop to stop for a terminal project")
	}
	if calls := store.StatusRequests("proj-done"); calls != 0 {
		t.Fatalf("expected no upstream call for a terminal project, got %d", calls)
	}
}

func TestPollOnceStopsWhenProjectGone(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	poller := newTestPoller(store, nil)

	if stop := poller.PollOnce(context.Background(), "proj-ghost"); !stop {
		t.Fatalf("expected loop to stop when the project left the store")
	}
}

func TestPollOnceIdenticalObservationPublishesNothing(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	publisher := &recordingPublisher{}
	poller := newTestPoller(store, publisher)
	ctx := context.Background()
	seedProject(t, store, "proj-1")

	store.EnqueueStatus("proj-1", ports.ProjectStatusSnapshot{Status: "processing"})

	if stop := poller.PollOnce(ctx, "proj-1"); stop {
		t.Fatalf("expected loop to continue")
	}
	if publisher.count() != 0 {
		t.Fatalf("expected no event when nothing changed, got %d", publisher.count())
	}
}

func TestStartPollingRefusesDuplicateLoop(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	poller := newTestPoller(store, nil)
	poller.Interval = time.Hour
	ctx := context.Background()
	seedProject(t, store, "proj-1")

	if !poller.StartPolling(ctx, "proj-1") {
		t.Fatalf("expected first start to win the slot")
	}
	if poller.StartPolling(ctx, "proj-1") {
		t.Fatalf("expected duplicate start to be refused")
	}

	poller.CancelPolling("proj-1")
	if poller.Active("proj-1") {
		t.Fatalf("expected loop slot freed after cancel")
	}
	if !poller.StartPolling(ctx, "proj-1") {
		t.Fatalf("expected start to succeed once the slot is free")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := poller.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("expected clean shutdown, got error: %v", err)
	}
}

func TestPollLoopStopsAtLifetimeCapWithoutStatusWrite(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	ctx := context.Background()
	seedProject(t, store, "proj-1")
	revision := store.Revision()

	clock := &steppingClock{
		now:  time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		step: 2 * time.Hour,
	}
	poller := &StatusPoller{
		Store:      store,
		Processing: store,
		Clock:      clock,
		Interval:   time.Millisecond,
		Logger:     slog.Default(),
	}

	if !poller.StartPolling(ctx, "proj-1") {
		t.Fatalf("expected poll loop to start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for poller.Active("proj-1") {
		if time.Now().After(deadline) {
			t.Fatalf("expected poll loop to stop at the lifetime cap")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if calls := store.StatusRequests("proj-1"); calls != 0 {
		t.Fatalf("expected no status fetch past the cap, got %d", calls)
	}
	project, _ := store.GetProject(ctx, "proj-1")
	if project.Status != entities.ProjectStatusProcessing {
		t.Fatalf("expected status untouched by the cap, got %s", project.Status)
	}
	if store.Revision() != revision {
		t.Fatalf("expected no store write when the cap stops the loop")
	}
}

func TestResumeRestartsOnlyPollableProjects(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	ctx := context.Background()
	now := time.Now().UTC()

	store.AddProject(ctx, entities.Project{ProjectID: "proj-active"}, now)
	store.AddProject(ctx, entities.Project{ProjectID: "proj-done", Status: entities.ProjectStatusCompleted}, now)
	store.AddProject(ctx, entities.Project{ProjectID: "proj-going", Status: entities.ProjectStatusDeleting}, now)
	store.AddProject(ctx, entities.Project{ProjectID: "local-1741608000000"}, now)

	poller := newTestPoller(store, nil)
	poller.Interval = time.Hour

	if resumed := poller.Resume(ctx); resumed != 1 {
		t.Fatalf("expected exactly one resumed loop, got %d", resumed)
	}
	if !poller.Active("proj-active") {
		t.Fatalf("expected loop for proj-active")
	}
	for _, projectID := range []string{"proj-done", "proj-going", "local-1741608000000"} {
		if poller.Active(projectID) {
			t.Fatalf("expected no loop for %s", projectID)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := poller.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("expected clean shutdown, got error: %v", err)
	}
}

func TestPollLoopStopsAfterCompletedObservation(t *testing.T) {
	store := memory.NewStore(nil, nil, slog.Default())
	publisher := &recordingPublisher{}
	poller := newTestPoller(store, publisher)
	poller.Interval = 10 * time.Millisecond
	ctx := context.Background()
	seedProject(t, store, "proj-1")

	twenty := 20
	forty := 40
	store.EnqueueStatus("proj-1", ports.ProjectStatusSnapshot{Status: "processing", Progress: &twenty})
	store.EnqueueStatus("proj-1", ports.ProjectStatusSnapshot{Status: "processing", Progress: &forty})
	store.EnqueueStatus("proj-1", ports.ProjectStatusSnapshot{Status: "completed"})

	if !poller.StartPolling(ctx, "proj-1") {
		t.Fatalf("expected loop to start")
	}

	deadline := time.Now().Add(3 * time.Second)
	for poller.Active("proj-1") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if poller.Active("proj-1") {
		t.Fatalf("expected loop to stop on the completed observation")
	}

	if requests := store.StatusRequests("proj-1"); requests != 3 {
		t.Fatalf("expected exactly three status requests, got %d", requests)
	}
	project, _ := store.GetProject(ctx, "proj-1")
	if project.Status != entities.ProjectStatusCompleted || project.Progress != 100 {
		t.Fatalf("expected completed at full progress, got %s/%d", project.Status, project.Progress)
	}
}
