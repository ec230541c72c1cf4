package gdrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"clipperstudio/contexts/clipper-studio/project-sync-service/ports"
	"clipperstudio/internal/platform/images"
)

// ThumbnailStore keeps preview images in a Google Drive folder and hands
// back direct-content links. It is the deployment alternative to the
// backend media endpoint for installations that archive previews
// alongside saved exports.
type ThumbnailStore struct {
	service  *drive.Service
	folderID string
	logger   *slog.Logger
}

var _ ports.ThumbnailStore = (*ThumbnailStore)(nil)

type Config struct {
	CredentialsFile string
	TokenFile       string
	FolderName      string
}

// NewThumbnailStore builds the Drive client from an OAuth credentials
// file plus a previously issued token file. There is no interactive
// consent flow here; a missing or stale token is an operator error.
func NewThumbnailStore(ctx context.Context, cfg Config, logger *slog.Logger) (*ThumbnailStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(raw, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("read drive token (run the authorization flow first): %w", err)
	}

	service, err := drive.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	store := &ThumbnailStore{service: service, logger: logger}
	folderName := cfg.FolderName
	if folderName == "" {
		folderName = "ClipperStudioThumbnails"
	}
	if err := store.ensureFolder(folderName); err != nil {
		return nil, err
	}
	return store, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *ThumbnailStore) ensureFolder(name string) error {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false", name)
	list, err := s.service.Files.List().Q(query).Spaces("drive").Fields("files(id, name)").Do()
	if err != nil {
		return fmt.Errorf("search drive folder: %w", err)
	}
	if len(list.Files) > 0 {
		s.folderID = list.Files[0].Id
		return nil
	}

	folder := &drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
	}
	created, err := s.service.Files.Create(folder).Fields("id").Do()
	if err != nil {
		return fmt.Errorf("create drive folder: %w", err)
	}
	s.folderID = created.Id
	return nil
}

func (s *ThumbnailStore) Upload(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	filename := name
	normalized, err := images.NormalizeThumbnail(data)
	if err != nil {
		s.logger.Warn("thumbnail normalization skipped",
			"event", "thumbnail_normalize_skipped",
			"module", "clipper-studio/project-sync-service",
			"layer", "adapter",
			"name", name,
			"error", err.Error(),
		)
		normalized = data
	} else {
		contentType = "image/jpeg"
		if !strings.HasSuffix(filename, ".jpg") {
			filename += ".jpg"
		}
	}

	file := &drive.File{
		Name:    filename,
		Parents: []string{s.folderID},
	}
	created, err := s.service.Files.Create(file).
		Media(bytes.NewReader(normalized), googleapi.ContentType(contentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload thumbnail to drive: %w", err)
	}

	// Gallery cards embed the URL directly, so the file must be readable
	// without a Google session.
	permission := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := s.service.Permissions.Create(created.Id, permission).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("share drive thumbnail: %w", err)
	}

	return fmt.Sprintf("https://drive.google.com/uc?export=view&id=%s", created.Id), nil
}
