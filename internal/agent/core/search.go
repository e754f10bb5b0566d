package core

import (
	"context"
	"strings"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/helpers"
	searchmodels "github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// searchAll runs every query with at most parallelism searches in flight and
// returns the hits deduplicated by normalized URL. Order follows the plan and
// each provider's ranking, never completion order. A failing query
// contributes nothing.
func searchAll(ctx context.Context, provider SearchProvider, queries []string, perQuery, parallelism int, logger *zap.SugaredLogger) []Source {
	if provider == nil || len(queries) == 0 {
		return nil
	}
	if parallelism < 1 {
		parallelism = 1
	}
	batches := make([][]searchmodels.Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, q := range queries {
		g.Go(func() error {
			rows, err := provider.Search(gctx, q, perQuery)
			if err != nil {
				logger.Warnw("search failed", "query", q, "error", err)
				return nil
			}
			batches[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	var found []Source
	for _, rows := range batches {
		for _, r := range rows {
			if strings.TrimSpace(r.URL) == "" {
				continue
			}
			found = append(found, Source{URL: r.URL, Title: r.Title, Snippet: r.Snippet})
		}
	}
	return dedupeSources(found)
}

// dedupeSources keeps the first source for each normalized URL and stores
// the normalized form.
func dedupeSources(in []Source) []Source {
	out := helpers.DedupeBy(in, func(s Source) string { return helpers.NormalizeURL(s.URL) })
	for i := range out {
		out[i].URL = helpers.NormalizeURL(out[i].URL)
	}
	return out
}

// shouldRetry is the evidence router: one widening retry when the source
// count is under the depth minimum, never more.
func shouldRetry(sourceCount int, depth Depth, retryCount int) bool {
	return sourceCount < depth.Profile().MinSources && retryCount < 1
}

// fetchAll fetches up to len(sources) pages with bounded parallelism and
// keeps, in input order, the sources whose page yielded text.
func fetchAll(ctx context.Context, fetcher ContentFetcher, sources []Source, parallelism int, onOutcome func(string)) []Source {
	if fetcher == nil || len(sources) == 0 {
		return nil
	}
	if parallelism < 1 {
		parallelism = 1
	}
	texts := make([]string, len(sources))
	outcomes := make([]string, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, src := range sources {
		g.Go(func() error {
			res := fetcher.Fetch(gctx, src.URL)
			texts[i] = res.Text
			outcomes[i] = string(res.Outcome)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Source, 0, len(sources))
	for i, src := range sources {
		if onOutcome != nil && outcomes[i] != "" {
			onOutcome(outcomes[i])
		}
		if texts[i] == "" {
			continue
		}
		src.Text = texts[i]
		out = append(out, src)
	}
	return out
}
