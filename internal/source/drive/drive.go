// Package drive reads Google Docs from Google Drive as plain text.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"faqbot/internal/domain"
)

const (
	googleDocMimeType = "application/vnd.google-apps.document"
	defaultQuery      = "mimeType='" + googleDocMimeType + "' and trashed=false"
)

// Source lists Google Docs visible to the credentials and exports them as text.
type Source struct {
	service *drive.Service
	query   string
}

// Config configures the Drive source. CredentialsFile is a service account or
// authorized-user JSON key; when empty, Application Default Credentials are used.
type Config struct {
	CredentialsFile string
	Query           string
}

// New creates a Drive source with read-only scope.
func New(ctx context.Context, cfg Config) (*Source, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read drive credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, drive.DriveReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("parse drive credentials: %w", err)
		}
		opts = append(opts, option.WithTokenSource(creds.TokenSource))
	} else {
		creds, err := google.FindDefaultCredentials(ctx, drive.DriveReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("find default credentials: %w", err)
		}
		opts = append(opts, option.WithTokenSource(creds.TokenSource))
	}
	return NewWithOptions(ctx, cfg.Query, opts...)
}

// NewWithOptions creates a Drive source from explicit client options.
func NewWithOptions(ctx context.Context, query string, opts ...option.ClientOption) (*Source, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	if query == "" {
		query = defaultQuery
	}
	return &Source{service: svc, query: query}, nil
}

// List returns every matching file, following pagination.
func (s *Source) List(ctx context.Context) ([]domain.DocumentRef, error) {
	var refs []domain.DocumentRef
	pageToken := ""
	for {
		call := s.service.Files.List().
			Q(s.query).
			Spaces("drive").
			Fields("nextPageToken, files(id, name)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list drive files: %w", err)
		}
		for _, f := range list.Files {
			refs = append(refs, domain.DocumentRef{ID: f.Id, Name: f.Name})
		}
		if list.NextPageToken == "" {
			return refs, nil
		}
		pageToken = list.NextPageToken
	}
}

// Content exports a Google Doc as plain text.
func (s *Source) Content(ctx context.Context, id string) (string, error) {
	resp, err := s.service.Files.Export(id, "text/plain").Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export %s: %w", id, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read export %s: %w", id, err)
	}
	// Docs exports start with a byte order mark
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
