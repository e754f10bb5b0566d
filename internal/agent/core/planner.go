package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/telemetry"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/helpers"
	"go.uber.org/zap"
)

const plannerSystemPrompt = "You are a due diligence planning agent. Return only valid JSON with key 'queries' containing a list of search queries."

// baseQueryTopics are appended to the company name when the model yields
// no usable plan.
var baseQueryTopics = []string{
	"company overview",
	"business model",
	"pricing",
	"competitors",
	"market share",
	"risks",
	"SWOT analysis",
	"latest news",
	"customer segments",
	"revenue streams",
	"regulatory risks",
	"growth opportunities",
}

// deepeningTopics widen a plan that produced too little evidence.
var deepeningTopics = []string{
	"annual report",
	"investor relations",
	"pricing page",
	"competitive landscape",
	"litigation regulatory filing",
}

// Planner builds and widens search query plans.
type Planner struct {
	llm     Synthesizer
	logger  *zap.SugaredLogger
	metrics *telemetry.Metrics
}

func NewPlanner(llm Synthesizer, logger *zap.SugaredLogger, metrics *telemetry.Metrics) *Planner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Planner{llm: llm, logger: logger.Named("planner"), metrics: metrics}
}

// Plan asks the model for a depth-sized query list and falls back to the
// fixed templates when it returns nothing usable. The result is
// case-insensitively unique and at most depth.Profile().Queries long.
func (p *Planner) Plan(ctx context.Context, company string, focus []string, depth Depth) []string {
	target := depth.Profile().Queries
	user := fmt.Sprintf(
		"Company: %s\nFocus: %v\nDepth: %s\nNeed exactly %d focused queries across business model, pricing, financials, competitors, market, risks.",
		company, focus, depth, target,
	)

	var queries []string
	if p.llm != nil {
		out, err := p.llm.Complete(ctx, plannerSystemPrompt, user)
		if err != nil {
			p.logger.Warnw("planner model call failed", "company", company, "error", err)
		} else {
			queries = stringList(helpers.ParseJSONObject(out)["queries"])
		}
	}

	if len(queries) == 0 {
		p.metrics.SynthFallback("plan")
		for _, f := range focus {
			queries = append(queries, company+" "+f)
		}
		for _, topic := range baseQueryTopics {
			queries = append(queries, company+" "+topic)
		}
	}

	queries = dedupeFold(queries)
	if len(queries) > target {
		queries = queries[:target]
	}
	return queries
}

// Expand appends the deepening templates and one analysis query per focus
// term to existing, skipping anything already planned.
func (p *Planner) Expand(company string, focus []string, existing []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, q := range existing {
		seen[strings.ToLower(q)] = struct{}{}
	}
	merged := append([]string(nil), existing...)
	extra := make([]string, 0, len(deepeningTopics)+len(focus))
	for _, topic := range deepeningTopics {
		extra = append(extra, company+" "+topic)
	}
	for _, f := range focus {
		extra = append(extra, company+" "+f+" analysis")
	}
	for _, q := range extra {
		if _, dup := seen[strings.ToLower(q)]; dup {
			continue
		}
		merged = append(merged, q)
	}
	return merged
}

// stringList keeps the non-blank string entries of a decoded JSON array.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		switch t := item.(type) {
		case string:
			s = t
		case nil:
			continue
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupeFold(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
