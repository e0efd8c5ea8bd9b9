package server

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestDocumentLinksRoundTrip(t *testing.T) {
	links := NewDocumentLinks("secret", time.Minute)
	now := time.Now()
	links.now = func() time.Time { return now }

	token, expires, err := links.Sign("financing_proposal_1_a.txt")
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if !expires.Equal(now.Add(time.Minute)) {
		t.Errorf("expected expiry %v, got %v", now.Add(time.Minute), expires)
	}
	if err := links.Verify(token, "financing_proposal_1_a.txt"); err != nil {
		t.Errorf("expected valid token, got %v", err)
	}

	tests := []struct {
		name  string
		token string
		doc   string
	}{
		{"empty token", "", "financing_proposal_1_a.txt"},
		{"other document", token, "financing_proposal_1_b.txt"},
		{"tampered", token + "x", "financing_proposal_1_a.txt"},
		{"garbage", "not-a-token", "financing_proposal_1_a.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := links.Verify(tt.token, tt.doc); !errors.Is(err, ErrInvalidDocumentLink) {
				t.Errorf("expected ErrInvalidDocumentLink, got %v", err)
			}
		})
	}
}

func TestDocumentLinksExpire(t *testing.T) {
	links := NewDocumentLinks("secret", time.Minute)
	links.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := links.Sign("doc.txt")
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if err := links.Verify(token, "doc.txt"); !errors.Is(err, ErrInvalidDocumentLink) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}
}

func TestDocumentLinksKeys(t *testing.T) {
	first := NewDocumentLinks("", 0)
	second := NewDocumentLinks("", 0)
	if first.ttl != 15*time.Minute {
		t.Errorf("expected default ttl of 15m, got %v", first.ttl)
	}

	token, _, err := first.Sign("doc.txt")
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if err := first.Verify(token, "doc.txt"); err != nil {
		t.Errorf("expected own token to verify, got %v", err)
	}
	if err := second.Verify(token, "doc.txt"); !errors.Is(err, ErrInvalidDocumentLink) {
		t.Errorf("generated keys must differ, got %v", err)
	}

	shared := NewDocumentLinks("shared", 0)
	if err := NewDocumentLinks("shared", time.Hour).Verify(mustSign(t, shared, "doc.txt"), "doc.txt"); err != nil {
		t.Errorf("configured secret must verify across instances, got %v", err)
	}
}

func TestDocumentLinksURL(t *testing.T) {
	links := NewDocumentLinks("secret", time.Minute)
	link, _, err := links.URL("financing proposal.txt")
	if err != nil {
		t.Fatalf("failed to build url: %v", err)
	}
	if !strings.HasPrefix(link, "/api/documents/financing%20proposal.txt?token=") {
		t.Fatalf("unexpected url %q", link)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("failed to parse url: %v", err)
	}
	if err := links.Verify(parsed.Query().Get("token"), "financing proposal.txt"); err != nil {
		t.Errorf("expected url token to verify, got %v", err)
	}
}

func mustSign(t *testing.T, links *DocumentLinks, name string) string {
	t.Helper()
	token, _, err := links.Sign(name)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	return token
}
