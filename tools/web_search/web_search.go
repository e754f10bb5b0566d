package web_search

import (
	"context"
	"errors"
	"net/http"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/helpers"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search/brave"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search/duckduckgo"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search/models"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search/serper"
	"golang.org/x/time/rate"
)

// WebSearcher returns up to maxResults hits for a query. Implementations
// may return errors; the research pipeline absorbs them.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.Result, error)
}

type Provider string

const (
	DuckDuckGoProvider Provider = "duckduckgo"
	SerperProvider     Provider = "serper"
	BraveProvider      Provider = "brave"
	NoneProvider       Provider = "none"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

// Options configures NewWebSearcher.
type Options struct {
	Provider   Provider
	Enabled    bool
	APIKey     string
	UserAgent  string
	RatePerSec float64
	Client     *http.Client
}

// NewWebSearcher builds the configured provider, paced by a token bucket and
// with markup stripped from titles and snippets. A disabled search or the
// "none" provider yields a searcher that always returns no results.
func NewWebSearcher(opts Options) (WebSearcher, error) {
	if !opts.Enabled || opts.Provider == NoneProvider {
		return Disabled{}, nil
	}
	var base WebSearcher
	switch opts.Provider {
	case DuckDuckGoProvider, "":
		base = duckduckgo.Search{UserAgent: opts.UserAgent, Client: opts.Client}
	case SerperProvider:
		base = serper.Search{ApiKey: opts.APIKey, Client: opts.Client}
	case BraveProvider:
		base = brave.Search{ApiKey: opts.APIKey, Client: opts.Client}
	default:
		return nil, ErrUnsupportedProvider
	}
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return &paced{next: base, limiter: limiter}, nil
}

// Disabled never returns results.
type Disabled struct{}

func (Disabled) Search(context.Context, string, int) ([]models.Result, error) { return nil, nil }

type paced struct {
	next    WebSearcher
	limiter *rate.Limiter
}

func (p *paced) Search(ctx context.Context, query string, maxResults int) ([]models.Result, error) {
	if maxResults <= 0 {
		return nil, nil
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	results, err := p.next.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	out := make([]models.Result, 0, len(results))
	for _, r := range results {
		out = append(out, models.Result{
			Title:   helpers.PlainText(r.Title),
			URL:     r.URL,
			Snippet: helpers.PlainText(r.Snippet),
		})
	}
	return out, nil
}
