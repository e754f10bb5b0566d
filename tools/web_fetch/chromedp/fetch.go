// Package chromedp renders pages in headless Chrome for sites that build
// their content client-side.
package chromedp

import (
	"context"
	"errors"
	"strings"

	"github.com/chromedp/chromedp"
)

// Loader returns the rendered outer HTML of a page. It launches a fresh
// browser per call; the caller's context bounds the whole render.
type Loader struct {
	UserAgent string
}

func (l Loader) Load(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", errors.New("invalid url")
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if l.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.UserAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
