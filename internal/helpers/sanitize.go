package helpers

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// StrictHTMLPolicy returns a shared bluemonday policy that strips every
// element and attribute.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// PlainText reduces a provider snippet or title to plain text: markup is
// stripped, entities are decoded and whitespace is compacted.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return CompactWhitespace(html.UnescapeString(StrictHTMLPolicy().Sanitize(s)))
}
