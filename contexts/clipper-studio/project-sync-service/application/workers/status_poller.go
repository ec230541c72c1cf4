package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	application "clipperstudio/contexts/clipper-studio/project-sync-service/application"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	domainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollLifetime = 60 * time.Minute
)

// StatusPoller drives the background status loops, one per project id. A
// loop observes the backend every interval, merges what it reports into the
// store and stops on terminal status, on fatal responses or when the
// lifetime cap runs out. The registry guarantees at most one loop per id.
type StatusPoller struct {
	Store       ports.ProjectStore
	Processing  ports.ProcessingClient
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Interval    time.Duration
	MaxLifetime time.Duration
	Logger      *slog.Logger

	mu      sync.Mutex
	loops   map[string]*pollLoop
	baseCtx context.Context
	cancel  context.CancelFunc
}

type pollLoop struct {
	projectID string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

var _ ports.PollScheduler = (*StatusPoller)(nil)

// StartPolling registers a loop for the project and runs it on a background
// context, so the loop outlives the request that triggered it. Reports
// false when a loop for the id is already running.
func (p *StatusPoller) StartPolling(_ context.Context, projectID string) bool {
	logger := application.ResolveLogger(p.Logger)

	p.mu.Lock()
	if p.loops == nil {
		p.loops = make(map[string]*pollLoop)
	}
	if p.baseCtx == nil {
		p.baseCtx, p.cancel = context.WithCancel(context.Background())
	}
	if _, running := p.loops[projectID]; running {
		p.mu.Unlock()
		logger.Debug("poll loop already running",
			"event", "poll_loop_duplicate_refused",
			"module", "clipper-studio/project-sync-service",
			"layer", "worker",
			"project_id", projectID,
		)
		return false
	}
	loopCtx, loopCancel := context.WithCancel(p.baseCtx)
	loop := &pollLoop{
		projectID: projectID,
		startedAt: p.now(),
		cancel:    loopCancel,
		done:      make(chan struct{}),
	}
	p.loops[projectID] = loop
	p.mu.Unlock()

	logger.Info("poll loop started",
		"event", "poll_loop_started",
		"module", "clipper-studio/project-sync-service",
		"layer", "worker",
		"project_id", projectID,
	)
	go p.run(loopCtx, loop)
	return true
}

// Resume restarts loops for every non-terminal project in the store, used
// after a process restart so in-flight detections keep being tracked.
func (p *StatusPoller) Resume(ctx context.Context) int {
	resumed := 0
	for _, project := range p.Store.ListActiveProjects(ctx) {
		if project.IsTerminal() || project.Status == entities.ProjectStatusDeleting {
			continue
		}
		if entities.IsLocalProjectID(project.ProjectID) {
			// Placeholders have no backend counterpart to poll.
			continue
		}
		if p.StartPolling(ctx, project.ProjectID) {
			resumed++
		}
	}
	return resumed
}

// CancelPolling stops the loop for one project if it is running.
func (p *StatusPoller) CancelPolling(projectID string) {
	p.mu.Lock()
	loop, ok := p.loops[projectID]
	p.mu.Unlock()
	if !ok {
		return
	}
	loop.cancel()
	<-loop.done
}

// Active reports whether a loop is currently registered for the id.
func (p *StatusPoller) Active(projectID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.loops[projectID]
	return ok
}

// Shutdown cancels every loop and waits for them to exit or for the context
// to expire.
func (p *StatusPoller) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	pending := make([]*pollLoop, 0, len(p.loops))
	for _, loop := range p.loops {
		pending = append(pending, loop)
	}
	p.mu.Unlock()

	for _, loop := range pending {
		select {
		case <-loop.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *StatusPoller) run(ctx context.Context, loop *pollLoop) {
	logger := application.ResolveLogger(p.Logger)
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	lifetime := p.MaxLifetime
	if lifetime <= 0 {
		lifetime = DefaultPollLifetime
	}

	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		p.mu.Lock()
		delete(p.loops, loop.projectID)
		p.mu.Unlock()
		close(loop.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.now().Sub(loop.startedAt) >= lifetime {
				logger.Warn("poll lifetime cap reached, loop stopped",
					"event", "poll_lifetime_exceeded",
					"module", "clipper-studio/project-sync-service",
					"layer", "worker",
					"project_id", loop.projectID,
					"lifetime", lifetime.String(),
				)
				return
			}
			// Ticks are sequential: the next one is not considered
			// until this observation finished.
			if p.PollOnce(ctx, loop.projectID) {
				return
			}
		}
	}
}

// PollOnce performs a single status observation and reports whether the
// loop should stop. Transient fetch failures leave the project untouched
// and keep the loop alive; a missing project upstream is fatal and marks
// it failed. Terminal projects are never written to again.
func (p *StatusPoller) PollOnce(ctx context.Context, projectID string) bool {
	logger := application.ResolveLogger(p.Logger)

	project, ok := p.Store.GetProject(ctx, projectID)
	if !ok {
		logger.Debug("poll target no longer in store",
			"event", "poll_target_gone",
			"module", "clipper-studio/project-sync-service",
			"layer", "worker",
			"project_id", projectID,
		)
		return true
	}
	if project.IsTerminal() {
		return true
	}

	snapshot, err := p.Processing.FetchProjectStatus(ctx, projectID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrProjectNotFound) || errors.Is(err, domainerrors.ErrMissingProjectBody) {
			failed := entities.ProjectStatusFailed
			message := entities.DefaultProgressMessage(failed)
			updated, _ := p.Store.UpdateProject(ctx, projectID, entities.ProjectUpdate{
				Status:          &failed,
				ProgressMessage: &message,
			}, p.now())
			p.publishStatus(ctx, updated)
			logger.Warn("project missing upstream, marked failed",
				"event", "poll_project_missing",
				"module", "clipper-studio/project-sync-service",
				"layer", "worker",
				"project_id", projectID,
				"error", err.Error(),
			)
			return true
		}
		logger.Warn("status poll failed, retrying next tick",
			"event", "poll_tick_failed",
			"module", "clipper-studio/project-sync-service",
			"layer", "worker",
			"project_id", projectID,
			"error", err.Error(),
		)
		return false
	}

	update := buildStatusUpdate(snapshot)
	if update.IsZero() {
		return false
	}
	updated, applied := p.Store.UpdateProject(ctx, projectID, update, p.now())
	if !applied {
		return true
	}

	if updated.Status != project.Status || updated.Progress != project.Progress ||
		updated.ProgressMessage != project.ProgressMessage {
		p.publishStatus(ctx, updated)
	}

	if updated.IsTerminal() {
		logger.Info("project reached terminal status",
			"event", "poll_terminal_status",
			"module", "clipper-studio/project-sync-service",
			"layer", "worker",
			"project_id", projectID,
			"status", string(updated.Status),
		)
		return true
	}
	return false
}

// buildStatusUpdate translates one backend observation into a store patch.
// A backend-side "error" becomes the local terminal failed; completed
// forces progress to 100. Progress falls back to the analytics percentage
// when the top-level field is absent, and is otherwise applied exactly as
// reported.
func buildStatusUpdate(snapshot ports.ProjectStatusSnapshot) entities.ProjectUpdate {
	update := entities.ProjectUpdate{}

	if snapshot.AnalyticsError != "" {
		failed := entities.ProjectStatusFailed
		update.Status = &failed
		message := snapshot.AnalyticsError
		update.ProgressMessage = &message
		return update
	}

	if snapshot.Status != "" {
		status := entities.ProjectStatus(snapshot.Status)
		if status == entities.ProjectStatusError {
			status = entities.ProjectStatusFailed
		}
		update.Status = &status
		if status == entities.ProjectStatusCompleted {
			full := 100
			update.Progress = &full
		}
	}

	if update.Progress == nil {
		switch {
		case snapshot.Progress != nil:
			update.Progress = snapshot.Progress
		case snapshot.AnalyticsProgress != nil:
			update.Progress = snapshot.AnalyticsProgress
		}
	}
	if snapshot.ProgressMessage != "" {
		message := snapshot.ProgressMessage
		update.ProgressMessage = &message
	}
	return update
}

func (p *StatusPoller) publishStatus(ctx context.Context, project entities.Project) {
	if p.Publisher == nil || project.ProjectID == "" {
		return
	}
	payload, err := json.Marshal(ports.ProjectStatusChangedEvent{
		ProjectID:       project.ProjectID,
		Status:          string(project.Status),
		Progress:        project.Progress,
		ProgressMessage: project.ProgressMessage,
		Terminal:        project.IsTerminal(),
	})
	if err != nil {
		return
	}
	eventID, err := p.IDGenerator.NewID(ctx, "evt")
	if err != nil {
		return
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        ports.EventTypeStatusChanged,
		OccurredAt:       p.now(),
		SourceService:    "clipper-studio/project-sync-service",
		TraceID:          eventID,
		SchemaVersion:    ports.EventEnvelopeSchemaVersion,
		PartitionKeyPath: "project_id",
		PartitionKey:     project.ProjectID,
		Data:             payload,
	}
	if err := p.Publisher.Publish(ctx, ports.TopicProjectLifecycle, envelope); err != nil {
		application.ResolveLogger(p.Logger).Warn("status event publish failed",
			"event", "status_event_publish_failed",
			"module", "clipper-studio/project-sync-service",
			"layer", "worker",
			"project_id", project.ProjectID,
			"error", err.Error(),
		)
	}
}

func (p *StatusPoller) now() time.Time {
	if p.Clock != nil {
		return p.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
