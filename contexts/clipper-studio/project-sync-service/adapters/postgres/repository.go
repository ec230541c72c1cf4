package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists session snapshots. Writes mirror the snapshot
// semantics of the in-memory store: every save replaces the whole project
// slice for the namespace, so the table always holds exactly the durable
// state of the last committed mutation.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ ports.StatePersistence = (*Repository)(nil)

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the snapshot tables when they do not exist yet.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&stateModel{}, &projectModel{})
}

func (r *Repository) Load(ctx context.Context) (ports.PersistedState, bool, error) {
	var meta stateModel
	err := r.db.WithContext(ctx).
		Where("namespace = ?", ports.StorageNamespace).
		First(&meta).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PersistedState{}, false, nil
		}
		return ports.PersistedState{}, false, err
	}

	var rows []projectModel
	if err := r.db.WithContext(ctx).
		Where("namespace = ?", ports.StorageNamespace).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return ports.PersistedState{}, false, err
	}

	projects := make([]entities.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toEntity())
	}
	return ports.PersistedState{
		SchemaVersion:    meta.SchemaVersion,
		Projects:         projects,
		CurrentProjectID: meta.CurrentProjectID,
		GalleryVisible:   meta.GalleryVisible,
		LastUpdatedAt:    meta.LastUpdatedAt,
	}, true, nil
}

func (r *Repository) Save(ctx context.Context, state ports.PersistedState) error {
	err := r.save(ctx, state)
	if err != nil && isUniqueViolation(err) {
		// Two writers can race between the delete and the insert; the
		// retry rewrites the namespace against the settled table.
		return r.save(ctx, state)
	}
	return err
}

func (r *Repository) save(ctx context.Context, state ports.PersistedState) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meta := stateModel{
			Namespace:        ports.StorageNamespace,
			SchemaVersion:    state.SchemaVersion,
			CurrentProjectID: state.CurrentProjectID,
			GalleryVisible:   state.GalleryVisible,
			LastUpdatedAt:    state.LastUpdatedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}},
			UpdateAll: true,
		}).Create(&meta).Error; err != nil {
			return err
		}

		if err := tx.Where("namespace = ?", ports.StorageNamespace).
			Delete(&projectModel{}).Error; err != nil {
			return err
		}
		if len(state.Projects) == 0 {
			return nil
		}

		rows := make([]projectModel, 0, len(state.Projects))
		for _, project := range state.Projects {
			rows = append(rows, projectModelFromEntity(project))
		}
		return tx.Create(&rows).Error
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type stateModel struct {
	Namespace        string    `gorm:"column:namespace;primaryKey"`
	SchemaVersion    string    `gorm:"column:schema_version"`
	CurrentProjectID string    `gorm:"column:current_project_id"`
	GalleryVisible   bool      `gorm:"column:gallery_visible"`
	LastUpdatedAt    time.Time `gorm:"column:last_updated_at"`
}

func (stateModel) TableName() string {
	return "studio_session_state"
}

type projectModel struct {
	Namespace       string     `gorm:"column:namespace;primaryKey"`
	ProjectID       string     `gorm:"column:project_id;primaryKey"`
	Status          string     `gorm:"column:status"`
	Progress        int        `gorm:"column:progress"`
	ProgressMessage string     `gorm:"column:progress_message"`
	Filename        string     `gorm:"column:filename"`
	SizeBytes       int64      `gorm:"column:size_bytes"`
	ContentType     string     `gorm:"column:content_type"`
	SourceURL       string     `gorm:"column:source_url"`
	ThumbnailURL    string     `gorm:"column:thumbnail_url"`
	IsSaved         bool       `gorm:"column:is_saved"`
	SavedAt         *time.Time `gorm:"column:saved_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
	ExpiresAt       time.Time  `gorm:"column:expires_at"`
}

func (projectModel) TableName() string {
	return "studio_projects"
}

func projectModelFromEntity(project entities.Project) projectModel {
	return projectModel{
		Namespace:       ports.StorageNamespace,
		ProjectID:       project.ProjectID,
		Status:          string(project.Status),
		Progress:        project.Progress,
		ProgressMessage: project.ProgressMessage,
		Filename:        project.OriginalVideo.Filename,
		SizeBytes:       project.OriginalVideo.SizeBytes,
		ContentType:     project.OriginalVideo.ContentType,
		SourceURL:       project.OriginalVideo.SourceURL,
		ThumbnailURL:    project.OriginalVideo.ThumbnailURL,
		IsSaved:         project.SaveStatus.IsSaved,
		SavedAt:         project.SaveStatus.SavedAt,
		CreatedAt:       project.CreatedAt,
		UpdatedAt:       project.UpdatedAt,
		ExpiresAt:       project.ExpiresAt,
	}
}

func (m projectModel) toEntity() entities.Project {
	return entities.Project{
		ProjectID:       m.ProjectID,
		Status:          entities.ProjectStatus(m.Status),
		Progress:        m.Progress,
		ProgressMessage: m.ProgressMessage,
		OriginalVideo: entities.OriginalVideo{
			Filename:     m.Filename,
			SizeBytes:    m.SizeBytes,
			ContentType:  m.ContentType,
			SourceURL:    m.SourceURL,
			ThumbnailURL: m.ThumbnailURL,
		},
		SaveStatus: entities.SaveStatus{
			IsSaved: m.IsSaved,
			SavedAt: m.SavedAt,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}
