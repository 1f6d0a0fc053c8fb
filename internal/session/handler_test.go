package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"empty list allows any", nil, "https://evil.example", true},
		{"empty list allows none set", nil, "", true},
		{"listed origin allowed", []string{"https://app.lunavoice.io"}, "https://app.lunavoice.io", true},
		{"case insensitive", []string{"https://app.lunavoice.io"}, "https://App.Lunavoice.IO", true},
		{"trailing slash in config", []string{"https://app.lunavoice.io/"}, "https://app.lunavoice.io", true},
		{"unlisted origin rejected", []string{"https://app.lunavoice.io"}, "https://evil.example", false},
		{"scheme mismatch rejected", []string{"https://app.lunavoice.io"}, "http://app.lunavoice.io", false},
		{"no origin header allowed", []string{"https://app.lunavoice.io"}, "", true},
		{"malformed origin rejected", []string{"https://app.lunavoice.io"}, "::bad::", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := originChecker(tt.allowed)
			r := httptest.NewRequest(http.MethodGet, "/listen", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := check(r); got != tt.want {
				t.Errorf("originChecker(%v) with origin %q = %v, want %v", tt.allowed, tt.origin, got, tt.want)
			}
		})
	}
}
