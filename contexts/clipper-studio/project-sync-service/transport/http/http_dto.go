package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StageSourceURLRequest struct {
	URL     string `json:"url"`
	Preview string `json:"preview,omitempty"`
}

type StageUploadRequest struct {
	FileName    string `json:"file_name"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
	UploadRef   string `json:"upload_ref"`
	Preview     string `json:"preview,omitempty"`
}

type StagePreviewRequest struct {
	Preview string `json:"preview"`
}

type UploadedFileDTO struct {
	FileName    string `json:"file_name"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
	UploadRef   string `json:"upload_ref"`
}

type StagingResponse struct {
	SourceURL        string           `json:"source_url,omitempty"`
	UploadedFile     *UploadedFileDTO `json:"uploaded_file,omitempty"`
	PreviewThumbnail string           `json:"preview_thumbnail,omitempty"`
	PreviewLoading   bool             `json:"preview_loading"`
}

type CreateProjectRequest struct {
	SourceURL     string           `json:"source_url,omitempty"`
	UploadedFile  *UploadedFileDTO `json:"uploaded_file,omitempty"`
	Thumbnail     string           `json:"thumbnail,omitempty"`
	DetectOptions map[string]any   `json:"detect_options,omitempty"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
}

type ProjectDTO struct {
	ProjectID       string `json:"project_id"`
	Status          string `json:"status"`
	Progress        int    `json:"progress"`
	ProgressMessage string `json:"progress_message,omitempty"`
	Filename        string `json:"filename,omitempty"`
	SizeBytes       int64  `json:"size_bytes,omitempty"`
	ContentType     string `json:"content_type,omitempty"`
	SourceURL       string `json:"source_url,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	IsSaved         bool   `json:"is_saved"`
	SavedAt         string `json:"saved_at,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	ExpiresAt       string `json:"expires_at,omitempty"`
}

type CreateProjectResponse struct {
	Project        ProjectDTO `json:"project"`
	PollingStarted bool       `json:"polling_started"`
	ClipsReady     bool       `json:"clips_ready"`
}

type ListProjectsResponse struct {
	Items []ProjectDTO `json:"items"`
}

type GetProjectResponse struct {
	Project ProjectDTO `json:"project"`
}

type SaveProjectResponse struct {
	Project ProjectDTO `json:"project"`
}

type DeleteProjectResponse struct {
	ProjectID string `json:"project_id"`
	Deleted   bool   `json:"deleted"`
}

type SetCurrentProjectRequest struct {
	ProjectID string `json:"project_id"`
}

type SetGalleryVisibleRequest struct {
	Visible bool `json:"visible"`
}

type SessionResponse struct {
	CurrentProjectID string `json:"current_project_id,omitempty"`
	GalleryVisible   bool   `json:"gallery_visible"`
	ProjectCount     int    `json:"project_count"`
}
