package prompt

import (
	"strings"
	"testing"

	"faqbot/internal/generation"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		context  string
		question string
		want     string
	}{
		{"custom", "C={context} Q={question}", "BDS is offered.", "dental?", "C=BDS is offered. Q=dental?"},
		{"empty context", "C={context} Q={question}", "", "fees?", "C= Q=fees?"},
		{"placeholders in input are not expanded", "{context}|{question}", "{question}", "x", "{question}|x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.template, tt.context, tt.question); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}

	got := Render("", "JKKN Dental College offers BDS.", "dental program")
	if !strings.Contains(got, "Context: JKKN Dental College offers BDS.\n\nUser Question: dental program") {
		t.Errorf("default template not applied: %q", got)
	}
}

func TestSeedHistory(t *testing.T) {
	h := SeedHistory()
	if len(h) != 2 || h[0].Role != generation.RoleUser || h[1].Role != generation.RoleAssistant {
		t.Fatalf("unexpected seed history %+v", h)
	}
	h[0].Content = "mutated"
	if SeedHistory()[0].Content != TaskInstructions {
		t.Error("seed history must be a fresh copy")
	}
}
