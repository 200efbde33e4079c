package http

import "testing"

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          bool
	}{
		{"/getFileLog", "/getFileLog", true},
		{"/uploads/a.gpx", "/uploads/:name", true},
		{"/uploads/", "/uploads/:name", false},
		{"/uploads", "/uploads/:name", false},
		{"/uploads/a/b", "/uploads/:name", false},
		{"/v1/documents/x.gpx/routes", "/v1/documents/:id/routes", true},
		{"/v1/documents/x.gpx/tracks", "/v1/documents/:id/routes", false},
	}
	for _, tt := range tests {
		if got := matchPattern(tt.path, tt.pattern); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
		}
	}
}

func TestETagMatches(t *testing.T) {
	etag := `W/"abc"`
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`W/"abc"`, true},
		{`"abc"`, true},
		{`"x", W/"abc"`, true},
		{"*", true},
		{`"abd"`, false},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Errorf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
