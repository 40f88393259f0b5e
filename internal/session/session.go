// Package session holds the state of one conversation with the assistant:
// the chat history, the retriever and the generator. A Session is created at
// start-up and torn down with Close; nothing is kept in package globals.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"faqbot/internal/domain"
	"faqbot/internal/generation"
	"faqbot/internal/prompt"
)

var ErrClosed = errors.New("session closed")

// UngroundedCaveat prefixes answers produced without any retrieved context.
const UngroundedCaveat = "Note: I could not find this in the institution documents, so this answer is not grounded in them.\n\n"

const DefaultMaxTokens = 2048

// ContextRetriever returns the passages relevant to a question and their
// assembled context, or nothing when none could be retrieved.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.SearchResult, string)
}

type Config struct {
	// Retriever may be nil when the index could not be built; questions are
	// then answered without context.
	Retriever ContextRetriever
	Generator generation.Generator
	System    string
	Template  string
	MaxTokens int
	Tools     []generation.ToolSpec
	Logger    *slog.Logger
}

// Answer is the outcome of one question.
type Answer struct {
	Text     string
	ToolCall *generation.ToolCall
	Context  string
	Passages []domain.SearchResult
	Grounded bool
}

type Session struct {
	retriever ContextRetriever
	generator generation.Generator
	system    string
	template  string
	maxTokens int
	tools     []generation.ToolSpec
	logger    *slog.Logger

	mu      sync.Mutex
	history []generation.Message
	closed  bool
}

func New(cfg Config) (*Session, error) {
	if cfg.Generator == nil {
		return nil, errors.New("session requires a generator")
	}
	s := &Session{
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		system:    cfg.System,
		template:  cfg.Template,
		maxTokens: cfg.MaxTokens,
		tools:     cfg.Tools,
		logger:    cfg.Logger,
		history:   prompt.SeedHistory(),
	}
	if s.system == "" {
		s.system = prompt.Identity
	}
	if s.maxTokens <= 0 {
		s.maxTokens = DefaultMaxTokens
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.retriever == nil {
		s.logger.Warn("retrieval unavailable, answers will not be grounded")
	}
	return s, nil
}

// RetrievalAvailable reports whether the session has a working retriever.
func (s *Session) RetrievalAvailable() bool {
	return s.retriever != nil
}

// Ask retrieves context for question, sends the rendered prompt with the
// conversation so far and records the exchange. Tool calls are returned to the
// caller and recorded as an assistant turn; they are never executed.
// A failed generation leaves the history unchanged.
func (s *Session) Ask(ctx context.Context, question string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Answer{}, ErrClosed
	}

	var passages []domain.SearchResult
	var retrieved string
	if s.retriever != nil {
		passages, retrieved = s.retriever.Retrieve(ctx, question)
	}
	grounded := retrieved != ""

	turn := generation.Message{Role: generation.RoleUser, Content: prompt.Render(s.template, retrieved, question)}
	history := append(append([]generation.Message(nil), s.history...), turn)
	reply, err := s.generator.Generate(ctx, generation.Request{
		System:    s.system,
		History:   history,
		MaxTokens: s.maxTokens,
		Tools:     s.tools,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	ans := Answer{Context: retrieved, Passages: passages, Grounded: grounded}
	if reply.ToolCall != nil {
		ans.ToolCall = reply.ToolCall
		ans.Text = describeToolCall(reply.ToolCall)
		s.logger.Info("tool use requested", "tool", reply.ToolCall.Name)
	} else {
		ans.Text = reply.Text
	}
	s.history = append(history, generation.Message{Role: generation.RoleAssistant, Content: ans.Text})

	if !grounded {
		ans.Text = UngroundedCaveat + ans.Text
	}
	return ans, nil
}

// Transcript returns the user-visible turns, without the seeded instructions.
func (s *Session) Transcript() []generation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	seeded := len(prompt.SeedHistory())
	if len(s.history) <= seeded {
		return nil
	}
	return append([]generation.Message(nil), s.history[seeded:]...)
}

// Close ends the session and releases the generator when it holds resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.history = nil
	if c, ok := s.generator.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func describeToolCall(call *generation.ToolCall) string {
	keys := make([]string, 0, len(call.Arguments))
	for k := range call.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]string, len(keys))
	for i, k := range keys {
		params[i] = fmt.Sprintf("%s=%v", k, call.Arguments[k])
	}
	return fmt.Sprintf("Tool use requested: %s with parameters %s", call.Name, strings.Join(params, ", "))
}
