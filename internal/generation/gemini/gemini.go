// Package gemini answers chat turns with Gemini models through google.golang.org/genai.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"faqbot/internal/generation"
)

// Generator wraps a genai.Client to implement generation.Generator.
type Generator struct {
	client    *genai.Client
	modelName string
}

// NewGenerator creates a new Gemini generator
// client: genai.Client from google.golang.org/genai
// modelName: the model to use (e.g., "gemini-2.5-flash")
func NewGenerator(client *genai.Client, modelName string) *Generator {
	return &Generator{client: client, modelName: modelName}
}

func (g *Generator) Generate(ctx context.Context, req generation.Request) (generation.Reply, error) {
	contents := make([]*genai.Content, 0, len(req.History))
	for _, m := range req.History {
		role := "user"
		if m.Role == generation.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return generation.Reply{}, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return generation.Reply{}, fmt.Errorf("%w: no candidates returned", generation.ErrEmptyReply)
	}

	var text string
	var call *generation.ToolCall
	for _, p := range resp.Candidates[0].Content.Parts {
		switch {
		case p.FunctionCall != nil:
			call = &generation.ToolCall{Name: p.FunctionCall.Name, Arguments: p.FunctionCall.Args}
		case p.Text != "":
			text += p.Text
		}
	}
	if call != nil {
		return generation.Reply{ToolCall: call}, nil
	}
	if text == "" {
		return generation.Reply{}, fmt.Errorf("%w: no parts in response", generation.ErrEmptyReply)
	}
	return generation.Reply{Text: text}, nil
}
