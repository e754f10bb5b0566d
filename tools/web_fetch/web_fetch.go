package web_fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/helpers"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_fetch/chromedp"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_fetch/models"
	"go.uber.org/zap"
)

const (
	DefaultTimeout  = 12 * time.Second
	DefaultMinChars = 400
	DefaultMaxChars = 20000
)

// Policy decides whether a URL may be fetched at all.
type Policy interface {
	Allowed(url string) bool
}

type LoaderType string

const (
	HTTPLoaderType     LoaderType = "http"
	ChromedpLoaderType LoaderType = "chromedp"
)

type ExtractorType string

const (
	HTMLExtractorType        ExtractorType = "html"
	ReadabilityExtractorType ExtractorType = "readability"
)

// NewLoader builds a page loader by name.
func NewLoader(kind LoaderType, userAgent string) (Loader, error) {
	switch kind {
	case HTTPLoaderType, "":
		return HTTPLoader{Client: &http.Client{}, UserAgent: userAgent}, nil
	case ChromedpLoaderType:
		return chromedp.Loader{UserAgent: userAgent}, nil
	default:
		return nil, fmt.Errorf("unsupported loader %q", kind)
	}
}

// NewExtractor builds a text extractor by name.
func NewExtractor(kind ExtractorType) (Extractor, error) {
	switch kind {
	case HTMLExtractorType, "":
		return HTMLExtractor{}, nil
	case ReadabilityExtractorType:
		return ReadabilityExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported extractor %q", kind)
	}
}

// Options tunes a Fetcher. Zero values take the package defaults.
type Options struct {
	Timeout  time.Duration
	MinChars int
	MaxChars int
	Policy   Policy
	Logger   *zap.SugaredLogger
}

// Fetcher downloads a page, reduces it to compact plain text and caches the
// result. It never returns an error: every failure becomes an empty Result.
type Fetcher struct {
	loader    Loader
	extractor Extractor
	cache     Cache
	opts      Options
	log       *zap.SugaredLogger
}

func NewFetcher(loader Loader, extractor Extractor, cache Cache, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Fetcher{loader: loader, extractor: extractor, cache: cache, opts: opts, log: log.Named("fetch")}
}

// Fetch returns cached text when present. Otherwise it loads the page within
// the configured timeout, extracts text, compacts whitespace and truncates to
// MaxChars. Text shorter than MinChars is discarded and not cached.
func (f *Fetcher) Fetch(ctx context.Context, url string) models.Result {
	start := time.Now()
	res := models.Result{URL: url}
	done := func(outcome models.Outcome) models.Result {
		res.Outcome = outcome
		res.ElapsedMS = int(time.Since(start) / time.Millisecond)
		return res
	}

	if strings.TrimSpace(url) == "" {
		return done(models.OutcomeFailed)
	}
	if f.opts.Policy != nil && !f.opts.Policy.Allowed(url) {
		f.log.Debugw("fetch blocked by domain policy", "url", url)
		return done(models.OutcomeBlocked)
	}

	if f.cache != nil {
		text, err := f.cache.Get(ctx, url)
		if err == nil {
			res.Text = text
			return done(models.OutcomeHit)
		}
		if !errors.Is(err, ErrCacheMiss) {
			f.log.Warnw("cache read failed", "url", url, "error", err)
		}
	}

	lctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()
	page, err := f.loader.Load(lctx, url)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			res.Status = se.Code
		}
		f.log.Warnw("fetch failed", "url", url, "error", err)
		return done(models.OutcomeFailed)
	}
	res.Status = http.StatusOK

	raw, err := f.extractor.Extract(page, url)
	if err != nil {
		f.log.Warnw("extract failed", "url", url, "error", err)
		return done(models.OutcomeFailed)
	}
	text := helpers.Truncate(helpers.CompactWhitespace(raw), f.opts.MaxChars)
	if utf8.RuneCountInString(text) < f.opts.MinChars {
		return done(models.OutcomeThin)
	}

	if f.cache != nil {
		if err := f.cache.Put(ctx, url, text); err != nil {
			f.log.Warnw("cache write failed", "url", url, "error", err)
		}
	}
	res.Text = text
	return done(models.OutcomeFetched)
}
