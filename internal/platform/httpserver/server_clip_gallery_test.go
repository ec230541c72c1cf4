package httpserver

import (
	"net/http"
	"testing"
	"time"

	galleryentities "clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/entities"
	galleryerrors "clipperstudio/contexts/clipper-studio/clip-gallery-service/domain/errors"
	galleryhttp "clipperstudio/contexts/clipper-studio/clip-gallery-service/transport/http"
)

func TestGalleryListServesUpstreamProjects(t *testing.T) {
	server, _, gallery := newTestServer()

	now := time.Now().UTC()
	gallery.Store.SetUpstreamProjects([]galleryentities.ProjectSummary{
		{ProjectID: "proj-1", Status: "completed", Progress: 100, ClipCount: 4, CreatedAt: now, UpdatedAt: now},
		{ProjectID: "proj-2", Status: "processing", Progress: 40, CreatedAt: now.Add(-time.Hour), UpdatedAt: now},
	})

	rr := doJSON(t, server, http.MethodGet, "/gallery/projects", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	listing := decodeBody[galleryhttp.ListGalleryProjectsResponse](t, rr)
	if listing.Source != "upstream" {
		t.Fatalf("expected upstream source, got %s", listing.Source)
	}
	if len(listing.Items) != 2 {
		t.Fatalf("expected two projects, got %d", len(listing.Items))
	}
	if listing.Items[0].ProjectID != "proj-1" {
		t.Fatalf("expected the newest project first, got %s", listing.Items[0].ProjectID)
	}
}

func TestGalleryListFallsBackToLocalSession(t *testing.T) {
	server, _, gallery := newTestServer()

	gallery.Store.FailList(galleryerrors.ErrUpstreamUnavailable)
	gallery.Store.SetLocalProjects([]galleryentities.ProjectSummary{
		{ProjectID: "local-1700000000000", Status: "uploading", Progress: 10},
	})

	rr := doJSON(t, server, http.MethodGet, "/gallery/projects", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 despite upstream outage, got %d body=%s", rr.Code, rr.Body.String())
	}
	listing := decodeBody[galleryhttp.ListGalleryProjectsResponse](t, rr)
	if listing.Source != "local" {
		t.Fatalf("expected local fallback, got %s", listing.Source)
	}
	if len(listing.Items) != 1 || listing.Items[0].ProjectID != "local-1700000000000" {
		t.Fatalf("expected the session list served, got %+v", listing.Items)
	}
}

func TestBulkClipsReportsProcessingPages(t *testing.T) {
	server, _, gallery := newTestServer()

	gallery.Store.SetUpstreamClips(galleryentities.ClipPage{
		ProjectID:      "proj-ready",
		Clips:          []galleryentities.Clip{{ClipID: "clip-1", StartSeconds: 3, EndSeconds: 18}},
		TotalClips:     1,
		ProcessedClips: 1,
	})
	gallery.Store.SetUpstreamClips(galleryentities.ClipPage{
		ProjectID:      "proj-rendering",
		TotalClips:     6,
		ProcessedClips: 0,
	})

	rr := doJSON(t, server, http.MethodPost, "/gallery/clips/bulk", `{"project_ids":["proj-ready","proj-rendering"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[galleryhttp.BulkClipsResponse](t, rr)
	if len(resp.Pages) != 2 {
		t.Fatalf("expected two pages, got %d", len(resp.Pages))
	}
	ready := resp.Pages["proj-ready"]
	if ready.StillProcessing {
		t.Fatalf("expected the rendered page openable, got %+v", ready)
	}
	if len(ready.Clips) != 1 || ready.Clips[0].ClipID != "clip-1" {
		t.Fatalf("expected the rendered clip in the page, got %+v", ready.Clips)
	}
	rendering := resp.Pages["proj-rendering"]
	if !rendering.StillProcessing {
		t.Fatalf("expected a zero-rendered page flagged as processing, got %+v", rendering)
	}
}

func TestBulkClipsRejectsMalformedJSON(t *testing.T) {
	server, _, _ := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/gallery/clips/bulk", `{"project_ids":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	errResp := decodeBody[galleryhttp.ErrorResponse](t, rr)
	if errResp.Code != "invalid_json" {
		t.Fatalf("expected invalid_json, got %s", errResp.Code)
	}
}

func TestBulkClipsRequiresProjectIDs(t *testing.T) {
	server, _, _ := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/gallery/clips/bulk", `{"project_ids":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	errResp := decodeBody[galleryhttp.ErrorResponse](t, rr)
	if errResp.Code != "invalid_gallery_input" {
		t.Fatalf("expected invalid_gallery_input, got %s", errResp.Code)
	}
}

func TestProjectClipsRoute(t *testing.T) {
	server, _, gallery := newTestServer()

	gallery.Store.SetUpstreamClips(galleryentities.ClipPage{
		ProjectID:      "proj-1",
		Clips:          []galleryentities.Clip{{ClipID: "clip-1", StartSeconds: 0, EndSeconds: 12}},
		TotalClips:     1,
		ProcessedClips: 1,
	})

	rr := doJSON(t, server, http.MethodGet, "/gallery/projects/proj-1/clips", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[galleryhttp.ProjectClipsResponse](t, rr)
	if resp.Page.ProjectID != "proj-1" || len(resp.Page.Clips) != 1 {
		t.Fatalf("expected the seeded page, got %+v", resp.Page)
	}

	rr = doJSON(t, server, http.MethodGet, "/gallery/projects/proj-ghost/clips", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown project, got %d body=%s", rr.Code, rr.Body.String())
	}
	errResp := decodeBody[galleryhttp.ErrorResponse](t, rr)
	if errResp.Code != "project_not_found" {
		t.Fatalf("expected project_not_found, got %s", errResp.Code)
	}
}
