package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ProjectSummaryDTO struct {
	ProjectID       string `json:"project_id"`
	Status          string `json:"status"`
	Progress        int    `json:"progress"`
	ProgressMessage string `json:"progress_message,omitempty"`
	Filename        string `json:"filename,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	ClipCount       int    `json:"clip_count"`
	IsSaved         bool   `json:"is_saved"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type ListGalleryProjectsResponse struct {
	Items  []ProjectSummaryDTO `json:"items"`
	Source string              `json:"source"`
}

type ClipDTO struct {
	ClipID             string  `json:"clip_id"`
	Title              string  `json:"title,omitempty"`
	TemplateHeader     string  `json:"template_header,omitempty"`
	StartSeconds       float64 `json:"start_seconds"`
	EndSeconds         float64 `json:"end_seconds"`
	VideoURL           string  `json:"video_url,omitempty"`
	HorizontalVideoURL string  `json:"horizontal_video_url,omitempty"`
	VerticalVideoURL   string  `json:"vertical_video_url,omitempty"`
	ViralityScore      float64 `json:"virality_score"`
}

type ClipPageDTO struct {
	ProjectID       string    `json:"project_id"`
	Clips           []ClipDTO `json:"clips"`
	TotalClips      int       `json:"total_clips"`
	ProcessedClips  int       `json:"processed_clips"`
	StillProcessing bool      `json:"still_processing"`
}

type BulkClipsRequest struct {
	ProjectIDs []string `json:"project_ids"`
}

type BulkClipsResponse struct {
	Pages map[string]ClipPageDTO `json:"pages"`
}

type ProjectClipsResponse struct {
	Page ClipPageDTO `json:"page"`
}
