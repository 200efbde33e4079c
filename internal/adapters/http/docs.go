package http

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// DefaultOpenAPIFile is read when Dependencies.OpenAPIFile is empty.
const DefaultOpenAPIFile = "api/openapi.yaml"

const (
	docsPath     = "/docs"
	docsYAMLPath = "/docs/openapi.yaml"
	docsJSONPath = "/docs/openapi.json"
)

var swaggerPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}} {{.Version}} | Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>body{margin:0;background:#f7f7f2}.topbar{display:none}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: {{.SpecURL}},
      dom_id: '#swagger-ui',
      docExpansion: 'list',
      tagsSorter: 'alpha',
      tryItOutEnabled: true,
      supportedSubmitMethods: {{.SubmitMethods}},
      presets: [SwaggerUIBundle.presets.apis],
    });
  </script>
</body>
</html>`))

type swaggerPageData struct {
	Title         string
	Version       string
	SpecURL       string
	SubmitMethods []string
}

// apiDocs loads the OpenAPI document on first use and keeps the YAML, its JSON
// rendition and the rendered page.
type apiDocs struct {
	file string

	once sync.Once
	yaml []byte
	json []byte
	page []byte
	err  error
}

func (d *apiDocs) load() error {
	d.once.Do(func() {
		data, err := os.ReadFile(d.file)
		if err != nil {
			d.err = err
			return
		}
		spec, err := (&openapi3.Loader{}).LoadFromData(data)
		if err != nil {
			d.err = fmt.Errorf("parse %s: %w", d.file, err)
			return
		}
		js, err := spec.MarshalJSON()
		if err != nil {
			d.err = fmt.Errorf("encode %s: %w", d.file, err)
			return
		}

		pd := swaggerPageData{
			Title:   "GPX Corpus API",
			SpecURL: docsJSONPath,
			// only reads are tried from the page; writes change the corpus
			SubmitMethods: []string{"get"},
		}
		if spec.Info != nil {
			if spec.Info.Title != "" {
				pd.Title = spec.Info.Title
			}
			pd.Version = spec.Info.Version
		}
		var page bytes.Buffer
		if err := swaggerPage.Execute(&page, pd); err != nil {
			d.err = err
			return
		}
		d.yaml, d.json, d.page = data, js, page.Bytes()
	})
	return d.err
}

func (d *apiDocs) serve(contentType string, body func() []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := d.load(); err != nil {
			slog.Warn("api docs unavailable", "file", d.file, "error", err)
			return errNotFound(c, "api documentation not available")
		}
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(body())
	}
}

// SetupDocs registers Swagger UI at /docs and the OpenAPI document as YAML and
// JSON under /docs/openapi.*. An empty file means DefaultOpenAPIFile.
func SetupDocs(app *fiber.App, file string) {
	if file == "" {
		file = DefaultOpenAPIFile
	}
	d := &apiDocs{file: file}

	app.Get(docsPath, d.serve(fiber.MIMETextHTMLCharsetUTF8, func() []byte { return d.page }))
	app.Get(docsYAMLPath, d.serve("application/yaml", func() []byte { return d.yaml }))
	app.Get(docsJSONPath, d.serve(fiber.MIMEApplicationJSON, func() []byte { return d.json }))
}
