package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.2.0", false},
		{"1.10.0", "1.9.3", true},
		{"1.2", "1.2.1", false},
		{"1.2.1", "1.2", true},
		{"2.0.0", "10.0.0", false},
	}
	for _, tt := range tests {
		if got := isNewer(tt.latest, tt.current); got != tt.want {
			t.Errorf("isNewer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestCheckUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name": "v0.3.0", "html_url": "https://example.invalid/v0.3.0"}`))
	}))
	defer srv.Close()

	oldURL, oldCurrent := ReleasesURL, Current
	defer func() { ReleasesURL, Current = oldURL, oldCurrent }()
	ReleasesURL = srv.URL

	Current = "v0.2.9"
	rel, err := CheckUpdate(context.Background(), srv.Client())
	if err != nil {
		t.Fatalf("CheckUpdate returned error: %v", err)
	}
	if rel.TagName != "v0.3.0" {
		t.Errorf("release = %+v, want v0.3.0", rel)
	}

	Current = "0.3.0"
	if rel, _ := CheckUpdate(context.Background(), srv.Client()); rel.TagName != "" {
		t.Errorf("no update expected, got %+v", rel)
	}

	Current = "dev"
	if rel, _ := CheckUpdate(context.Background(), srv.Client()); rel.TagName != "" {
		t.Errorf("dev build reported update %+v", rel)
	}
}
