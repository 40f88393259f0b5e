package qdrant

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"faqbot/internal/domain"
)

// fakeQdrant implements the subset of the Qdrant REST API used by Storage.
type fakeQdrant struct {
	mu       sync.Mutex
	distance string
	points   map[int][]float64
	apiKeys  []string
	limits   []int
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
	switch {
	case r.Method == http.MethodDelete:
		f.points = nil
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/points"):
		var body struct {
			Points []struct {
				ID     int       `json:"id"`
				Vector []float64 `json:"vector"`
			} `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[p.ID] = p.Vector
		}
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	case r.Method == http.MethodPut:
		var body struct {
			Vectors struct {
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.distance = body.Vectors.Distance
		f.points = map[int][]float64{}
		_, _ = w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/points/search"):
		var body struct {
			Vector []float64 `json:"vector"`
			Limit  int       `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.limits = append(f.limits, body.Limit)
		type scored struct {
			ID    int     `json:"id"`
			Score float64 `json:"score"`
		}
		var res []scored
		// deliberately reverse id order on ties to check client re-sorting
		ids := make([]int, 0, len(f.points))
		for id := range f.points {
			ids = append(ids, id)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ids)))
		for _, id := range ids {
			sum := 0.0
			for i, x := range f.points[id] {
				d := x - body.Vector[i]
				sum += d * d
			}
			res = append(res, scored{ID: id, Score: math.Sqrt(sum)})
		}
		sort.SliceStable(res, func(i, j int) bool { return res[i].Score < res[j].Score })
		if len(res) > body.Limit {
			res = res[:body.Limit]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": res})
	default:
		http.NotFound(w, r)
	}
}

func TestStorage_BuildAndSearch(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, Collection: "faq", APIKey: "secret", BatchSize: 2})
	ctx := context.Background()
	if err := s.Build(ctx, [][]float64{{1, 0}, {4, 4}, {-1, 0}}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if fake.distance != "Euclid" {
		t.Errorf("expected Euclid collection, got %q", fake.distance)
	}
	if s.Size() != 3 || s.Dimension() != 2 {
		t.Errorf("unexpected size/dimension %d/%d", s.Size(), s.Dimension())
	}

	hits, err := s.Search(ctx, []float64{0, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []domain.Hit{{Index: 0, Distance: 1}, {Index: 2, Distance: 1}}
	if diff := cmp.Diff(want, hits); diff != "" {
		t.Errorf("unexpected hits (-want +got):\n%s", diff)
	}

	hits, err = s.Search(ctx, []float64{4, 4}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 3 || hits[0].Index != 1 {
		t.Errorf("expected 3 hits led by index 1, got %+v", hits)
	}
	for _, k := range fake.apiKeys {
		if k != "secret" {
			t.Errorf("api key header missing on a request")
			break
		}
	}
}

func TestStorage_EmptyIndex(t *testing.T) {
	s := NewStorage(Config{URL: "http://127.0.0.1:0", Collection: "faq"})
	hits, err := s.Search(context.Background(), []float64{1}, 3)
	if err != nil || hits != nil {
		t.Errorf("expected no hits and no error, got %v %v", hits, err)
	}
	if _, err := s.Search(context.Background(), []float64{1}, 0); err == nil {
		t.Error("expected error for k=0 on an empty index")
	}
}

func TestStorage_TiesResolvedByIndex(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, Collection: "faq"})
	ctx := context.Background()
	same := []float64{1, 1}
	if err := s.Build(ctx, [][]float64{same, same, same, same, {9, 9}}); err != nil {
		t.Fatalf("build: %v", err)
	}

	hits, err := s.Search(ctx, []float64{1, 1}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if diff := cmp.Diff([]domain.Hit{{Index: 0, Distance: 0}}, hits); diff != "" {
		t.Errorf("unexpected hits (-want +got):\n%s", diff)
	}

	hits, err = s.Search(ctx, []float64{1, 1}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if diff := cmp.Diff([]domain.Hit{{Index: 0, Distance: 0}, {Index: 1, Distance: 0}}, hits); diff != "" {
		t.Errorf("unexpected hits (-want +got):\n%s", diff)
	}
	if got := fake.limits[len(fake.limits)-1]; got < 4 {
		t.Errorf("tie group must be fetched completely, last limit %d", got)
	}
}
