package core

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestPlanUsesModelQueries(t *testing.T) {
	llm := &stubLLM{plan: "```json\n{\"queries\": [\"Acme pricing tiers\", \"acme PRICING tiers\", \"  \", \"Acme churn\", 42]}\n```"}
	p := NewPlanner(llm, nil, nil)

	got := p.Plan(context.Background(), "Acme", []string{"pricing"}, DepthQuick)
	want := []string{"Acme pricing tiers", "Acme churn", "42"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Plan = %q, want %q", got, want)
	}
	prompt := llm.prompts["plan"]
	if !strings.Contains(prompt, "Need exactly 4 focused queries") || !strings.Contains(prompt, "Company: Acme") {
		t.Fatalf("unexpected planner prompt %q", prompt)
	}
}

func TestPlanFallsBackToTemplates(t *testing.T) {
	cases := []struct {
		name string
		llm  Synthesizer
	}{
		{"model error", &stubLLM{err: errBackend}},
		{"empty object", &stubLLM{plan: "{}"}},
		{"not json", &stubLLM{plan: "sorry, I cannot help"}},
		{"no model", nil},
	}
	want := []string{"Acme pricing", "Acme company overview", "Acme business model", "Acme competitors"}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewPlanner(tc.llm, nil, nil).Plan(context.Background(), "Acme", []string{"pricing"}, DepthQuick)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("Plan = %q, want %q", got, want)
			}
		})
	}
}

func TestPlanTruncatesToDepth(t *testing.T) {
	p := NewPlanner(nil, nil, nil)
	for depth, n := range map[Depth]int{DepthQuick: 4, DepthStandard: 8, DepthDeep: 12} {
		if got := p.Plan(context.Background(), "Acme", nil, depth); len(got) != n {
			t.Fatalf("%s: got %d queries, want %d", depth, len(got), n)
		}
	}
}

func TestExpandSkipsExistingQueries(t *testing.T) {
	p := NewPlanner(nil, nil, nil)
	existing := []string{"Acme pricing", "ACME ANNUAL REPORT"}

	got := p.Expand("Acme", []string{"pricing"}, existing)
	want := []string{
		"Acme pricing",
		"ACME ANNUAL REPORT",
		"Acme investor relations",
		"Acme pricing page",
		"Acme competitive landscape",
		"Acme litigation regulatory filing",
		"Acme pricing analysis",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Expand = %q, want %q", got, want)
	}
	if len(existing) != 2 {
		t.Fatalf("Expand mutated its input")
	}
}
