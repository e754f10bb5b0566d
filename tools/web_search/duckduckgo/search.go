// Package duckduckgo scrapes the keyless HTML endpoint of DuckDuckGo.
package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const DefaultEndpoint = "https://html.duckduckgo.com/html/"

type Search struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

func (s Search) Search(ctx context.Context, q string, k int) ([]models.Result, error) {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	form := url.Values{}
	form.Set("q", q)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("duckduckgo: http status %d", resp.StatusCode)
	}
	return parseResults(resp.Body, k)
}

// parseResults reads result__a anchors (title and link) and the
// result__snippet that follows each of them.
func parseResults(r io.Reader, k int) ([]models.Result, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse: %w", err)
	}
	var out []models.Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) > k {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			switch {
			case hasClass(n, "result__a"):
				out = append(out, models.Result{Title: nodeText(n), URL: resolveLink(attr(n, "href"))})
				return
			case hasClass(n, "result__snippet") && len(out) > 0:
				out[len(out)-1].Snippet = nodeText(n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// resolveLink unwraps the //duckduckgo.com/l/?uddg=<target> redirect.
func resolveLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
