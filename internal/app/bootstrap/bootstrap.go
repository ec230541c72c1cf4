package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	clipgalleryservice "clipperstudio/contexts/clipper-studio/clip-gallery-service"
	gallerymemory "clipperstudio/contexts/clipper-studio/clip-gallery-service/adapters/memory"
	redisadapter "clipperstudio/contexts/clipper-studio/clip-gallery-service/adapters/redis"
	galleryupstream "clipperstudio/contexts/clipper-studio/clip-gallery-service/adapters/upstream"
	galleryentities "clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	galleryports "clipperstudio/contexts/clipper-studio/clip-gallery-service/ports"
	projectsyncservice "clipperstudio/contexts/clipper-studio/project-sync-service"
	syncgdrive "clipperstudio/contexts/clipper-studio/project-sync-service/adapters/gdrive"
	syncmemory "clipperstudio/contexts/clipper-studio/project-sync-service/adapters/memory"
	postgresadapter "clipperstudio/contexts/clipper-studio/project-sync-service/adapters/postgres"
	syncupstream "clipperstudio/contexts/clipper-studio/project-sync-service/adapters/upstream"
	syncworkers "clipperstudio/contexts/clipper-studio/project-sync-service/application/workers"
	syncports "clipperstudio/contexts/clipper-studio/project-sync-service/ports"
	"clipperstudio/internal/platform/config"
	"clipperstudio/internal/platform/db"
	"clipperstudio/internal/platform/httpserver"
	"clipperstudio/internal/platform/messaging"
	platformupstream "clipperstudio/internal/platform/upstream"

	"github.com/redis/go-redis/v9"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	sync     projectsyncservice.Module
	gallery  clipgalleryservice.Module
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	repository    *postgresadapter.Repository
	kafka         *messaging.Kafka
	sweepInterval time.Duration
	sweepEnabled  bool
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.UpstreamBaseURL) == "" {
		return nil, errors.New("UPSTREAM_BASE_URL is required")
	}

	core, err := platformupstream.NewClient(platformupstream.Config{
		BaseURL: cfg.UpstreamBaseURL,
		APIKey:  cfg.UpstreamAPIKey,
		Timeout: cfg.UpstreamTimeout,
	})
	if err != nil {
		return nil, err
	}

	// Postgres is optional: without a DSN the session state is process-local
	// and a restart starts empty.
	var pg *db.Postgres
	var persistence syncports.StatePersistence
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.Migrate(); err != nil {
			return nil, err
		}
		persistence = repo
	}

	store := syncmemory.NewStore(loadState(persistence, logger), persistence, logger)

	processing := syncupstream.NewClient(core, logger).WithDetectTimeout(cfg.DetectTimeout)

	var uploads syncports.ThumbnailStore
	switch strings.ToLower(strings.TrimSpace(cfg.ThumbnailBackend)) {
	case "gdrive":
		uploads, err = syncgdrive.NewThumbnailStore(context.Background(), syncgdrive.Config{
			CredentialsFile: cfg.DriveCredentialsFile,
			TokenFile:       cfg.DriveTokenFile,
			FolderName:      cfg.DriveFolderName,
		}, logger)
		if err != nil {
			return nil, err
		}
	default:
		uploads = syncupstream.NewThumbnailStore(core, logger)
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	syncModule := projectsyncservice.NewModule(projectsyncservice.Dependencies{
		Store:        store,
		Staging:      store,
		Thumbnails:   store,
		Uploads:      uploads,
		Processing:   processing,
		Publisher:    kafka,
		Clock:        postgresadapter.SystemClock{},
		IDGenerator:  postgresadapter.UUIDGenerator{},
		ThumbnailTTL: cfg.ThumbnailTTL,
		PollInterval: cfg.PollInterval,
		PollLifetime: cfg.PollLifetime,
		Logger:       logger,
	})
	syncModule.Store = store

	// Rehydrated sessions may carry projects whose retention window lapsed
	// while the process was down; sweep before serving them.
	if cfg.EnableRetentionSweep {
		sweeper := syncworkers.RetentionSweeper{
			Store:       store,
			Publisher:   kafka,
			Clock:       postgresadapter.SystemClock{},
			IDGenerator: postgresadapter.UUIDGenerator{},
			Logger:      logger,
		}
		if err := sweeper.RunOnce(context.Background()); err != nil {
			logger.Warn("boot retention sweep failed",
				"event", "bootstrap_sweep_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}

	if cfg.EnablePollResume {
		resumed := syncModule.Poller.Resume(context.Background())
		logger.Info("status polling resumed",
			"event", "bootstrap_poll_resumed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"count", resumed,
		)
	}

	var galleryCache galleryports.GalleryCache
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		galleryCache = redisadapter.NewCache(client, logger)
	} else {
		galleryCache = gallerymemory.NewStore(logger)
	}

	var subscriber galleryports.EventSubscriber
	if cfg.EnableGalleryProjection {
		subscriber = kafka
	}

	galleryModule := clipgalleryservice.NewModule(clipgalleryservice.Dependencies{
		Upstream:   galleryupstream.NewReader(core, logger),
		Cache:      galleryCache,
		Local:      localProjectBridge{store: store},
		Subscriber: subscriber,
		Clock:      redisadapter.SystemClock{},
		ListingTTL: cfg.ListingCacheTTL,
		ClipsTTL:   cfg.ClipsCacheTTL,
		Logger:     logger,
	})

	server := httpserver.New(syncModule, galleryModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		sync:     syncModule,
		gallery:  galleryModule,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres:      pg,
		repository:    repo,
		kafka:         kafka,
		sweepInterval: cfg.SweepInterval,
		sweepEnabled:  cfg.EnableRetentionSweep,
		logger:        logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if err := a.gallery.Consumer.Start(ctx); err != nil {
		return err
	}
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.sync.Poller != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.sync.Poller.Shutdown(shutdownCtx)
	}
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_interval", w.sweepInterval.String(),
		"sweep_enabled", w.sweepEnabled,
	)

	for {
		if w.sweepEnabled {
			if err := w.runSweep(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runSweep reloads the durable snapshot each round so the sweep never acts
// on state another process has since rewritten.
func (w *WorkerApp) runSweep(ctx context.Context) error {
	state, ok, err := w.repository.Load(ctx)
	if err != nil {
		return err
	}
	var snapshot *syncports.PersistedState
	if ok {
		snapshot = &state
	}

	store := syncmemory.NewStore(snapshot, w.repository, w.logger)
	sweeper := syncworkers.RetentionSweeper{
		Store:       store,
		Publisher:   w.kafka,
		Clock:       postgresadapter.SystemClock{},
		IDGenerator: postgresadapter.UUIDGenerator{},
		Logger:      w.logger,
	}
	return sweeper.RunOnce(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// loadState hydrates the durable snapshot. Load failures degrade to an
// empty session rather than blocking startup.
func loadState(persistence syncports.StatePersistence, logger *slog.Logger) *syncports.PersistedState {
	if persistence == nil {
		return nil
	}
	state, ok, err := persistence.Load(context.Background())
	if err != nil {
		logger.Warn("session state load failed",
			"event", "bootstrap_state_load_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
		return nil
	}
	if !ok {
		return nil
	}
	return &state
}

// localProjectBridge feeds the gallery's merge fallback from the sync
// store. Clip counts live server-side, so local rows report zero.
type localProjectBridge struct {
	store *syncmemory.Store
}

var _ galleryports.LocalProjectSource = localProjectBridge{}

func (b localProjectBridge) ActiveProjects(ctx context.Context) []galleryentities.ProjectSummary {
	projects := b.store.ListActiveProjects(ctx)
	summaries := make([]galleryentities.ProjectSummary, 0, len(projects))
	for _, project := range projects {
		summaries = append(summaries, galleryentities.ProjectSummary{
			ProjectID:       project.ProjectID,
			Status:          string(project.Status),
			Progress:        project.Progress,
			ProgressMessage: project.ProgressMessage,
			Filename:        project.OriginalVideo.Filename,
			ThumbnailURL:    project.OriginalVideo.ThumbnailURL,
			IsSaved:         project.SaveStatus.IsSaved,
			CreatedAt:       project.CreatedAt,
			UpdatedAt:       project.UpdatedAt,
		})
	}
	return summaries
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
