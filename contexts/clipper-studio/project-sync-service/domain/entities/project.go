package entities

import (
	"fmt"
	"strings"
	"time"
)

type ProjectStatus string

const (
	ProjectStatusProcessing   ProjectStatus = "processing"
	ProjectStatusDownloading  ProjectStatus = "downloading"
	ProjectStatusTranscribing ProjectStatus = "transcribing"
	ProjectStatusAnalyzing    ProjectStatus = "analyzing"
	ProjectStatusCutting      ProjectStatus = "cutting"
	ProjectStatusSaving       ProjectStatus = "saving"
	ProjectStatusCompleted    ProjectStatus = "completed"
	ProjectStatusFailed       ProjectStatus = "failed"
	ProjectStatusError        ProjectStatus = "error"
	ProjectStatusDeleting     ProjectStatus = "deleting"
	ProjectStatusTimeout      ProjectStatus = "timeout"
	ProjectStatusNetworkError ProjectStatus = "network_error"
)

// IsTerminal reports whether the processing pipeline is done with the
// project. Terminal projects are never polled again.
func (s ProjectStatus) IsTerminal() bool {
	switch s {
	case ProjectStatusCompleted, ProjectStatusFailed, ProjectStatusError:
		return true
	default:
		return false
	}
}

// IsPipelineStage reports whether the status is one the processing backend
// itself moves through while a detection run is in flight.
func (s ProjectStatus) IsPipelineStage() bool {
	switch s {
	case ProjectStatusProcessing, ProjectStatusDownloading, ProjectStatusTranscribing,
		ProjectStatusAnalyzing, ProjectStatusCutting, ProjectStatusSaving:
		return true
	default:
		return false
	}
}

// DefaultProgressMessage maps a status to the user-facing message shown when
// the backend sent none of its own.
func DefaultProgressMessage(s ProjectStatus) string {
	switch s {
	case ProjectStatusProcessing:
		return "Processing your video..."
	case ProjectStatusDownloading:
		return "Downloading video..."
	case ProjectStatusTranscribing:
		return "Transcribing audio..."
	case ProjectStatusAnalyzing:
		return "Analyzing content..."
	case ProjectStatusCutting:
		return "Cutting clips..."
	case ProjectStatusSaving:
		return "Saving clips..."
	case ProjectStatusCompleted:
		return "Clips ready"
	case ProjectStatusFailed:
		return "Processing failed"
	case ProjectStatusError:
		return "Something went wrong"
	case ProjectStatusDeleting:
		return "Deleting project..."
	case ProjectStatusTimeout:
		return "The request timed out"
	case ProjectStatusNetworkError:
		return "Network connection lost"
	default:
		return ""
	}
}

// OriginalVideo describes the source material a project was created from.
// ThumbnailURL normally holds a durable remote URL; it may temporarily hold
// an inline data URL when thumbnail upload failed, and that inline form is
// never written to durable storage.
type OriginalVideo struct {
	Filename     string
	SizeBytes    int64
	ContentType  string
	SourceURL    string
	ThumbnailURL string
}

type SaveStatus struct {
	IsSaved bool
	SavedAt *time.Time
}

// DefaultRetention is how long an unsaved project survives before the
// retention sweep may remove it.
const DefaultRetention = 7 * 24 * time.Hour

type Project struct {
	ProjectID       string
	Status          ProjectStatus
	Progress        int
	ProgressMessage string
	OriginalVideo   OriginalVideo
	SaveStatus      SaveStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

func (p Project) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// ExpiredUnsaved reports whether the retention sweep may drop the project.
// Saved projects are kept indefinitely.
func (p Project) ExpiredUnsaved(now time.Time) bool {
	if p.SaveStatus.IsSaved {
		return false
	}
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// WithDefaults fills the fields optimistic inserts leave blank. Status
// defaults to processing with its stock message, timestamps to now and
// expiry to the retention window.
func (p Project) WithDefaults(now time.Time) Project {
	if p.Status == "" {
		p.Status = ProjectStatusProcessing
	}
	if p.ProgressMessage == "" {
		p.ProgressMessage = DefaultProgressMessage(p.Status)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.ExpiresAt.IsZero() {
		p.ExpiresAt = now.Add(DefaultRetention)
	}
	return p
}

// LocalIDPrefix marks placeholder ids minted before the backend has assigned
// a real project id.
const LocalIDPrefix = "local-"

// NewLocalProjectID mints a placeholder id from the creation instant. The id
// is replaced by the backend-assigned one as soon as creation succeeds.
func NewLocalProjectID(now time.Time) string {
	return fmt.Sprintf("%s%d", LocalIDPrefix, now.UnixMilli())
}

func IsLocalProjectID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// ProjectUpdate is a partial update. Nil fields leave the current value
// untouched, mirroring how status polls patch only the fields the backend
// reported.
type ProjectUpdate struct {
	Status          *ProjectStatus
	Progress        *int
	ProgressMessage *string
	OriginalVideo   *OriginalVideo
	Saved           *bool
	ExpiresAt       *time.Time
}

func (u ProjectUpdate) IsZero() bool {
	return u.Status == nil && u.Progress == nil && u.ProgressMessage == nil &&
		u.OriginalVideo == nil && u.Saved == nil && u.ExpiresAt == nil
}

// ApplyTo merges the update into the project and stamps UpdatedAt. Progress
// values are applied exactly as reported; the backend restarts stages and a
// clamped bar would lie about that.
func (u ProjectUpdate) ApplyTo(p Project, now time.Time) Project {
	if u.Status != nil {
		p.Status = *u.Status
		if u.ProgressMessage == nil {
			p.ProgressMessage = DefaultProgressMessage(*u.Status)
		}
	}
	if u.Progress != nil {
		p.Progress = *u.Progress
	}
	if u.ProgressMessage != nil {
		p.ProgressMessage = *u.ProgressMessage
	}
	if u.OriginalVideo != nil {
		p.OriginalVideo = *u.OriginalVideo
	}
	if u.Saved != nil {
		p.SaveStatus.IsSaved = *u.Saved
		if *u.Saved {
			savedAt := now
			p.SaveStatus.SavedAt = &savedAt
		} else {
			p.SaveStatus.SavedAt = nil
		}
	}
	if u.ExpiresAt != nil {
		p.ExpiresAt = *u.ExpiresAt
	}
	p.UpdatedAt = now
	return p
}

// UploadedFile is the session-scoped handle for a file the user picked for
// detection. Ref points at the staged bytes (an upload id on the processing
// backend); the bytes themselves never live in project state.
type UploadedFile struct {
	Name        string
	SizeBytes   int64
	ContentType string
	Ref         string
}
