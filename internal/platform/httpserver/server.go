package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	clipgalleryservice "clipperstudio/contexts/clipper-studio/clip-gallery-service"
	projectsyncservice "clipperstudio/contexts/clipper-studio/project-sync-service"
	syncdomainerrors "clipperstudio/contexts/clipper-studio/project-sync-service/domain/errors"
	synchttp "clipperstudio/contexts/clipper-studio/project-sync-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "clipperstudio/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	projectSync projectsyncservice.Module
	clipGallery clipgalleryservice.Module
}

func New(
	projectSync projectsyncservice.Module,
	clipGallery clipgalleryservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		projectSync: projectSync,
		clipGallery: clipGallery,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /studio/projects", s.handleCreateProject)
	s.mux.HandleFunc("GET /studio/projects", s.handleListProjects)
	s.mux.HandleFunc("GET /studio/projects/{project_id}", s.handleGetProject)
	s.mux.HandleFunc("DELETE /studio/projects/{project_id}", s.handleDeleteProject)
	s.mux.HandleFunc("POST /studio/projects/{project_id}/save", s.handleSaveProject)
	s.mux.HandleFunc("GET /studio/input", s.handleGetStaging)
	s.mux.HandleFunc("DELETE /studio/input", s.handleClearInput)
	s.mux.HandleFunc("POST /studio/input/source-url", s.handleStageSourceURL)
	s.mux.HandleFunc("POST /studio/input/upload", s.handleStageUpload)
	s.mux.HandleFunc("POST /studio/input/preview", s.handleStagePreview)
	s.mux.HandleFunc("GET /studio/session", s.handleGetSession)
	s.mux.HandleFunc("PUT /studio/session/current-project", s.handleSetCurrentProject)
	s.mux.HandleFunc("PUT /studio/session/gallery-visible", s.handleSetGalleryVisible)

	s.mux.HandleFunc("POST /v1/studio/projects", s.handleCreateProject)
	s.mux.HandleFunc("GET /v1/studio/projects", s.handleListProjects)
	s.mux.HandleFunc("GET /v1/studio/projects/{project_id}", s.handleGetProject)
	s.mux.HandleFunc("DELETE /v1/studio/projects/{project_id}", s.handleDeleteProject)
	s.mux.HandleFunc("POST /v1/studio/projects/{project_id}/save", s.handleSaveProject)

	s.mux.HandleFunc("GET /gallery/projects", s.handleGalleryListProjects)
	s.mux.HandleFunc("POST /gallery/clips/bulk", s.handleGalleryBulkClips)
	s.mux.HandleFunc("GET /gallery/projects/{project_id}/clips", s.handleGalleryProjectClips)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req synchttp.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSyncError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.projectSync.Handler.CreateProjectHandler(r.Context(), req)
	if err != nil {
		writeSyncDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.projectSync.Handler.ListProjectsHandler(r.Context()))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	resp, err := s.projectSync.Handler.GetProjectHandler(r.Context(), projectID)
	if err != nil {
		writeSyncDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	if err := s.projectSync.Handler.DeleteProjectHandler(r.Context(), projectID); err != nil {
		writeSyncDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, synchttp.DeleteProjectResponse{
		ProjectID: projectID,
		Deleted:   true,
	})
}

func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	resp, err := s.projectSync.Handler.SaveProjectHandler(r.Context(), projectID)
	if err != nil {
		writeSyncDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetStaging(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.projectSync.Handler.GetStagingHandler(r.Context()))
}

func (s *Server) handleClearInput(w http.ResponseWriter, r *http.Request) {
	s.projectSync.Handler.ClearInputHandler(r.Context())
	writeJSON(w, http.StatusOK, s.projectSync.Handler.GetStagingHandler(r.Context()))
}

func (s *Server) handleStageSourceURL(w http.ResponseWriter, r *http.Request) {
	var req synchttp.StageSourceURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSyncError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.projectSync.Handler.StageSourceURLHandler(r.Context(), req); err != nil {
		writeSyncDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.projectSync.Handler.GetStagingHandler(r.Context()))
}

func (s *Server) handleStageUpload(w http.ResponseWriter, r *http.Request) {
	var req synchttp.StageUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSyncError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.projectSync.Handler.StageUploadHandler(r.Context(), req); err != nil {
		writeSyncDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.projectSync.Handler.GetStagingHandler(r.Context()))
}

func (s *Server) handleStagePreview(w http.ResponseWriter, r *http.Request) {
	var req synchttp.StagePreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSyncError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.projectSync.Handler.StagePreviewHandler(r.Context(), req); err != nil {
		writeSyncDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.projectSync.Handler.GetStagingHandler(r.Context()))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.projectSync.Handler.GetSessionHandler(r.Context()))
}

func (s *Server) handleSetCurrentProject(w http.ResponseWriter, r *http.Request) {
	var req synchttp.SetCurrentProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSyncError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.projectSync.Handler.SetCurrentProjectHandler(r.Context(), req); err != nil {
		writeSyncDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.projectSync.Handler.GetSessionHandler(r.Context()))
}

func (s *Server) handleSetGalleryVisible(w http.ResponseWriter, r *http.Request) {
	var req synchttp.SetGalleryVisibleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSyncError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	s.projectSync.Handler.SetGalleryVisibleHandler(r.Context(), req)
	writeJSON(w, http.StatusOK, s.projectSync.Handler.GetSessionHandler(r.Context()))
}

func writeSyncDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, syncdomainerrors.ErrProjectNotFound):
		writeSyncError(w, http.StatusNotFound, "project_not_found", err.Error())
	case errors.Is(err, syncdomainerrors.ErrInvalidProjectInput):
		writeSyncError(w, http.StatusBadRequest, "invalid_project_input", err.Error())
	case errors.Is(err, syncdomainerrors.ErrNoInputStaged):
		writeSyncError(w, http.StatusBadRequest, "no_input_staged", err.Error())
	case errors.Is(err, syncdomainerrors.ErrAmbiguousInput):
		writeSyncError(w, http.StatusBadRequest, "ambiguous_input", err.Error())
	case errors.Is(err, syncdomainerrors.ErrUpstreamTimeout):
		writeSyncError(w, http.StatusGatewayTimeout, "upstream_timeout", err.Error())
	case errors.Is(err, syncdomainerrors.ErrUpstreamUnreachable):
		writeSyncError(w, http.StatusBadGateway, "upstream_unreachable", err.Error())
	case errors.Is(err, syncdomainerrors.ErrUpstreamRejected):
		writeSyncError(w, http.StatusBadGateway, "upstream_rejected", err.Error())
	case errors.Is(err, syncdomainerrors.ErrMissingProjectBody):
		writeSyncError(w, http.StatusBadGateway, "missing_project_body", err.Error())
	case errors.Is(err, syncdomainerrors.ErrDeleteNotAcknowledged):
		writeSyncError(w, http.StatusBadGateway, "delete_not_acknowledged", err.Error())
	case errors.Is(err, syncdomainerrors.ErrSaveNotAcknowledged):
		writeSyncError(w, http.StatusBadGateway, "save_not_acknowledged", err.Error())
	default:
		writeSyncError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSyncError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, synchttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
