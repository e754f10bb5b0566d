package config

import "testing"

func TestDomainPolicyNormalize(t *testing.T) {
	cfg := DomainPolicyConfig{
		Allow:    []string{"Example.com", "https://IR.example.com/investors", "example.com"},
		Disallow: []string{"www.Spam.net", "  ", "spam.net"},
	}

	norm := cfg.Normalize()
	if len(norm.Allow) != 2 || norm.Allow[0] != "example.com" || norm.Allow[1] != "ir.example.com" {
		t.Fatalf("unexpected allow list: %#v", norm.Allow)
	}
	if len(norm.Disallow) != 1 || norm.Disallow[0] != "spam.net" {
		t.Fatalf("unexpected disallow list: %#v", norm.Disallow)
	}
}

func TestDomainPolicyValidate(t *testing.T) {
	valid := DomainPolicyConfig{Allow: []string{"example.com"}, Disallow: []string{"blocked.com"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	conflict := DomainPolicyConfig{Allow: []string{"example.com"}, Disallow: []string{"www.example.com"}}
	if err := conflict.Validate(); err == nil {
		t.Fatalf("expected conflict validation error")
	}
}

func TestDomainPolicyAllowed(t *testing.T) {
	open := DomainPolicyConfig{Disallow: []string{"spam.net"}}.Normalize()
	if !open.Allowed("https://acme.com/about") {
		t.Fatalf("expected open policy to allow acme.com")
	}
	if open.Allowed("https://cdn.spam.net/page") {
		t.Fatalf("expected subdomain of disallowed host to be blocked")
	}
	if open.Allowed("not a url") {
		t.Fatalf("expected host-less url to be rejected")
	}

	strict := DomainPolicyConfig{Allow: []string{"acme.com"}}.Normalize()
	if !strict.Allowed("https://www.acme.com/pricing") {
		t.Fatalf("expected www host to match allow entry")
	}
	if strict.Allowed("https://acme.com.evil.io/") {
		t.Fatalf("expected suffix lookalike to be rejected")
	}
}
