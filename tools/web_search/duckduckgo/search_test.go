package duckduckgo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

const resultsPage = `<html><body>
<div class="result results_links web-result">
  <h2 class="result__title"><a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Facme.com%2Fabout&amp;rut=abc">About <b>Acme</b></a></h2>
  <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Facme.com%2Fabout">Acme builds <b>widgets</b>.</a>
</div>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="https://news.example.com/acme">Acme news</a></h2>
  <a class="result__snippet" href="#">Latest coverage</a>
</div>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="https://third.example.com">Third</a></h2>
</div>
</body></html>`

func TestSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("q") != "acme pricing" {
			t.Errorf("unexpected query %q", r.PostForm.Get("q"))
		}
		io.WriteString(w, resultsPage)
	}))
	defer srv.Close()

	res, err := Search{Endpoint: srv.URL}.Search(context.Background(), "acme pricing", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if res[0].URL != "https://acme.com/about" || res[0].Title != "About Acme" || res[0].Snippet != "Acme builds widgets." {
		t.Fatalf("unexpected first result: %+v", res[0])
	}
	if res[1].URL != "https://news.example.com/acme" || res[1].Snippet != "Latest coverage" {
		t.Fatalf("unexpected second result: %+v", res[1])
	}
}

func TestSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	if _, err := (Search{Endpoint: srv.URL}).Search(context.Background(), "acme", 3); err == nil {
		t.Fatalf("expected error on 429")
	}
}
