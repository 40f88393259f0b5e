package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"faqbot/internal/domain"
	"faqbot/internal/generation"
	"faqbot/internal/prompt"
)

type fakeRetriever struct {
	context string
	queries []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string) ([]domain.SearchResult, string) {
	f.queries = append(f.queries, query)
	if f.context == "" {
		return nil, ""
	}
	return []domain.SearchResult{{Document: domain.Document{Name: "faq", Content: f.context}}}, f.context
}

type fakeGenerator struct {
	reply    generation.Reply
	err      error
	requests []generation.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req generation.Request) (generation.Reply, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func newSession(t *testing.T, r ContextRetriever, g generation.Generator) *Session {
	t.Helper()
	s, err := New(Config{
		Retriever: r,
		Generator: g,
		Template:  "C={context} Q={question}",
		Tools:     []generation.ToolSpec{prompt.CourseInformationTool},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestSession_GroundedAnswer(t *testing.T) {
	r := &fakeRetriever{context: "JKKN Dental College offers BDS."}
	g := &fakeGenerator{reply: generation.Reply{Text: "Yes, BDS is offered."}}
	s := newSession(t, r, g)

	ans, err := s.Ask(context.Background(), "dental program?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !ans.Grounded || ans.Text != "Yes, BDS is offered." {
		t.Errorf("unexpected answer %+v", ans)
	}
	if len(ans.Passages) != 1 || ans.Passages[0].Document.Content != r.context || len(r.queries) != 1 {
		t.Errorf("answer must carry the passages of a single retrieval, got %+v after %d queries", ans.Passages, len(r.queries))
	}
	req := g.requests[0]
	if req.System != prompt.Identity || req.MaxTokens != DefaultMaxTokens || len(req.Tools) != 1 {
		t.Errorf("unexpected request settings %+v", req)
	}
	if len(req.History) != 3 || req.History[0].Content != prompt.TaskInstructions {
		t.Fatalf("history must start from the seeded turns, got %+v", req.History)
	}
	if last := req.History[2]; last.Content != "C=JKKN Dental College offers BDS. Q=dental program?" {
		t.Errorf("unexpected prompt %q", last.Content)
	}

	want := []generation.Message{
		{Role: generation.RoleUser, Content: "C=JKKN Dental College offers BDS. Q=dental program?"},
		{Role: generation.RoleAssistant, Content: "Yes, BDS is offered."},
	}
	if diff := cmp.Diff(want, s.Transcript()); diff != "" {
		t.Errorf("unexpected transcript (-want +got):\n%s", diff)
	}
}

func TestSession_UngroundedCaveat(t *testing.T) {
	for name, r := range map[string]ContextRetriever{
		"empty context":         &fakeRetriever{},
		"retrieval unavailable": nil,
	} {
		t.Run(name, func(t *testing.T) {
			g := &fakeGenerator{reply: generation.Reply{Text: "I am not sure."}}
			s := newSession(t, r, g)
			ans, err := s.Ask(context.Background(), "hostel fees?")
			if err != nil {
				t.Fatalf("ask: %v", err)
			}
			if ans.Grounded || !strings.HasPrefix(ans.Text, UngroundedCaveat) {
				t.Errorf("expected caveat, got %+v", ans)
			}
			if got := s.Transcript()[1].Content; got != "I am not sure." {
				t.Errorf("caveat must not be stored in history, got %q", got)
			}
		})
	}
}

func TestSession_ToolCallIsSurfaced(t *testing.T) {
	call := &generation.ToolCall{Name: "get_course_information", Arguments: map[string]any{"institution": "Dental College", "course_level": "undergraduate"}}
	g := &fakeGenerator{reply: generation.Reply{ToolCall: call}}
	s := newSession(t, &fakeRetriever{context: "ctx"}, g)
	ans, err := s.Ask(context.Background(), "courses?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if ans.ToolCall != call {
		t.Errorf("tool call not surfaced: %+v", ans)
	}
	if ans.Text != "Tool use requested: get_course_information with parameters course_level=undergraduate, institution=Dental College" {
		t.Errorf("unexpected text %q", ans.Text)
	}
}

func TestSession_FailedGenerationKeepsHistory(t *testing.T) {
	g := &fakeGenerator{err: errors.New("backend down")}
	s := newSession(t, &fakeRetriever{context: "ctx"}, g)
	if _, err := s.Ask(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
	if got := s.Transcript(); got != nil {
		t.Errorf("failed turn must not be recorded, got %+v", got)
	}
}

func TestSession_Close(t *testing.T) {
	s := newSession(t, nil, &fakeGenerator{reply: generation.Reply{Text: "ok"}})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Ask(context.Background(), "q"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
