package http_test

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	handler "github.com/samirrijal/gpxcorpus/internal/adapters/http"
)

func TestDocs(t *testing.T) {
	file := findOpenAPISpec(t)
	app := setupApp(makeDeps(t, defaultCorpus(t), func(d *handler.Dependencies) {
		d.OpenAPIFile = file
	}))

	code, body, headers := get(t, app, "/docs")
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	if !strings.HasPrefix(headers["Content-Type"], "text/html") {
		t.Errorf("unexpected content type %q", headers["Content-Type"])
	}
	page := string(body)
	for _, want := range []string{
		"<title>GPX Corpus API 1.0.0 | Swagger UI</title>",
		"openapi.json",
		`"get"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page is missing %s", want)
		}
	}
	if headers["Cache-Control"] != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", headers["Cache-Control"])
	}

	code, body, headers = get(t, app, "/docs/openapi.yaml")
	if code != 200 || !strings.Contains(string(body), "/v1/documents/{id}/waypoints/{name}") {
		t.Errorf("expected the YAML document, got %d", code)
	}
	if headers["Content-Type"] != "application/yaml" {
		t.Errorf("unexpected content type %q", headers["Content-Type"])
	}

	code, body, _ = get(t, app, "/docs/openapi.json")
	if code != 200 {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	decode(t, body, &doc)
	if !strings.HasPrefix(doc.OpenAPI, "3.") {
		t.Errorf("unexpected openapi version %q", doc.OpenAPI)
	}
	if _, ok := doc.Paths["/v1/paths"]; !ok {
		t.Errorf("JSON rendition is missing /v1/paths, has %d paths", len(doc.Paths))
	}
}

func TestDocsMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	app := setupApp(makeDeps(t, defaultCorpus(t), func(d *handler.Dependencies) {
		d.OpenAPIFile = missing
	}))

	for _, path := range []string{"/docs", "/docs/openapi.yaml", "/docs/openapi.json"} {
		code, body, _ := get(t, app, path)
		expectError(t, code, body, 404, "not_found")
	}
}
