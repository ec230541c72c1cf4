package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	gallerydomainerrors "clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/errors"
	galleryhttp "clipperstudio/contexts/clipper-studio/clip-gallery-service/transport/http"
)

func writeGalleryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, galleryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeGalleryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gallerydomainerrors.ErrInvalidGalleryInput):
		writeGalleryError(w, http.StatusBadRequest, "invalid_gallery_input", err.Error())
	case errors.Is(err, gallerydomainerrors.ErrProjectNotFound):
		writeGalleryError(w, http.StatusNotFound, "project_not_found", err.Error())
	case errors.Is(err, gallerydomainerrors.ErrUpstreamUnavailable):
		writeGalleryError(w, http.StatusBadGateway, "upstream_unavailable", err.Error())
	default:
		writeGalleryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleGalleryListProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.clipGallery.Handler.ListGalleryProjectsHandler(r.Context()))
}

func (s *Server) handleGalleryBulkClips(w http.ResponseWriter, r *http.Request) {
	var req galleryhttp.BulkClipsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGalleryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.clipGallery.Handler.BulkClipsHandler(r.Context(), req)
	if err != nil {
		writeGalleryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGalleryProjectClips(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	resp, err := s.clipGallery.Handler.ProjectClipsHandler(r.Context(), projectID)
	if err != nil {
		writeGalleryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
