package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/api/option"

	"faqbot/internal/domain"
)

func newFakeDrive(t *testing.T) *httptest.Server {
	t.Helper()
	docs := map[string]string{"doc-1": "\ufeffJKKN Dental College offers BDS.", "doc-2": "JKKN Engineering offers B.Tech."}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/export"):
			parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/export"), "/")
			id := parts[len(parts)-1]
			if r.URL.Query().Get("mimeType") != "text/plain" {
				http.Error(w, "bad mime", http.StatusBadRequest)
				return
			}
			content, ok := docs[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(content))
		case strings.HasSuffix(r.URL.Path, "/files"):
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Query().Get("pageToken") == "" {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"nextPageToken": "p2",
					"files":         []map[string]string{{"id": "doc-1", "name": "Dental FAQ"}},
				})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"files": []map[string]string{{"id": "doc-2", "name": "Engineering FAQ"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSource_ListAndExport(t *testing.T) {
	srv := newFakeDrive(t)
	ctx := context.Background()
	src, err := NewWithOptions(ctx, "", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	refs, err := src.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []domain.DocumentRef{{ID: "doc-1", Name: "Dental FAQ"}, {ID: "doc-2", Name: "Engineering FAQ"}}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Errorf("unexpected refs (-want +got):\n%s", diff)
	}

	content, err := src.Content(ctx, "doc-1")
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if content != "JKKN Dental College offers BDS." {
		t.Errorf("unexpected content %q", content)
	}
	if _, err := src.Content(ctx, "missing"); err == nil {
		t.Error("expected error for missing document")
	}
}
