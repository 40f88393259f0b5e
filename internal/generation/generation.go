// Package generation defines the chat generation service used to answer
// questions over retrieved context.
package generation

import (
	"context"
	"errors"
)

// ErrEmptyReply is returned when the backend answers with neither text nor a tool call.
var ErrEmptyReply = errors.New("empty generation reply")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// ToolSpec declares a function the model may ask for. Parameters is a JSON schema.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single generation call. History ends with the user turn to answer.
type Request struct {
	System    string
	History   []Message
	MaxTokens int
	Tools     []ToolSpec
}

// ToolCall is a structured request from the model. It is surfaced to the
// caller, never executed.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// Reply carries either Text or a ToolCall.
type Reply struct {
	Text     string
	ToolCall *ToolCall
}

// Generator produces the next assistant turn.
type Generator interface {
	Generate(ctx context.Context, req Request) (Reply, error)
}
