package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: timeout,
	})
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	return client
}

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected an error for a missing base url")
	}
	if _, err := NewClient(Config{BaseURL: "ftp://backend"}); err == nil {
		t.Fatalf("expected an error for a non-http scheme")
	}
}

func TestDoJSONSendsAuthAndDecodes(t *testing.T) {
	var gotAuth, gotAccept, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"project_id":"proj-1"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)

	var out struct {
		ProjectID string `json:"project_id"`
	}
	err := client.DoJSON(context.Background(), http.MethodPost, "/projects", map[string]string{"url": "https://example.com/talk.mp4"}, &out)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if out.ProjectID != "proj-1" {
		t.Fatalf("expected decoded body, got %+v", out)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotAccept != "application/json" || gotContentType != "application/json" {
		t.Fatalf("expected json headers, got accept=%q content-type=%q", gotAccept, gotContentType)
	}
}

func TestDoJSONWrapsNonSuccessResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such project", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)

	err := client.GetJSON(context.Background(), "/projects/proj-ghost", nil)
	if err == nil {
		t.Fatalf("expected an error for a 404")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a StatusError, got %T: %v", err, err)
	}
	if statusErr.Code != http.StatusNotFound || statusErr.Body != "no such project" {
		t.Fatalf("expected the response captured, got %+v", statusErr)
	}
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound for a 404")
	}
	if IsTimeout(err) {
		t.Fatalf("expected a 404 not to classify as a timeout")
	}
}

func TestDoJSONClassifiesTimeouts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 30*time.Millisecond)

	err := client.GetJSON(context.Background(), "/projects/proj-1/status", nil)
	if err == nil {
		t.Fatalf("expected a timeout error")
	}
	if !IsTimeout(err) {
		t.Fatalf("expected a timeout classification, got %v", err)
	}
	if errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected timeouts to keep their identity, got %v", err)
	}
}

func TestDoJSONClassifiesConnectionFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := newTestClient(t, baseURL, time.Second)

	err := client.GetJSON(context.Background(), "/projects", nil)
	if err == nil {
		t.Fatalf("expected an error against a closed server")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected an unreachable classification, got %v", err)
	}
	if IsTimeout(err) {
		t.Fatalf("expected a refused connection not to classify as a timeout")
	}
}

func TestPostMultipartCarriesField(t *testing.T) {
	var gotFilename, gotContentType string
	var gotData []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("thumbnail")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotContentType = header.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(file)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/thumb.jpg"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)

	var out struct {
		URL string `json:"url"`
	}
	err := client.PostMultipart(context.Background(), "/thumbnails", "thumbnail", "talk.jpg", "image/jpeg", []byte{0xFF, 0xD8, 0xFF}, &out)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if gotFilename != "talk.jpg" || gotContentType != "image/jpeg" {
		t.Fatalf("expected the part metadata forwarded, got filename=%q content-type=%q", gotFilename, gotContentType)
	}
	if len(gotData) != 3 {
		t.Fatalf("expected the payload forwarded, got %d bytes", len(gotData))
	}
	if out.URL == "" {
		t.Fatalf("expected the response decoded")
	}
}
