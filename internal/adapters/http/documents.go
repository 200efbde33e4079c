package http

import (
	"io"
	"math"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// ComponentView is a route or track with its derived values and points.
type ComponentView struct {
	domain.ComponentSummary
	Extras []domain.Extra    `json:"extras"`
	Points []domain.Waypoint `json:"points"`
}

// DocumentView is the per-document detail response.
type DocumentView struct {
	ID        string            `json:"id"`
	Version   float64           `json:"version"`
	Creator   string            `json:"creator"`
	Namespace string            `json:"namespace"`
	Waypoints []domain.Waypoint `json:"waypoints"`
	Routes    []ComponentView   `json:"routes"`
	Tracks    []ComponentView   `json:"tracks"`
}

func routeView(r domain.Route) ComponentView {
	return ComponentView{ComponentSummary: r.Summary(), Extras: nonNil(r.Extras), Points: nonNil(r.Points)}
}

func trackView(t domain.Track) ComponentView {
	return ComponentView{ComponentSummary: t.Summary(), Extras: nonNil(t.Extras), Points: nonNil(t.Points())}
}

func newDocumentView(id string, doc *domain.Document) DocumentView {
	v := DocumentView{
		ID:        id,
		Version:   doc.Version,
		Creator:   doc.Creator,
		Namespace: doc.Namespace,
		Waypoints: nonNil(doc.Waypoints),
		Routes:    make([]ComponentView, 0, len(doc.Routes)),
		Tracks:    make([]ComponentView, 0, len(doc.Tracks)),
	}
	for _, r := range doc.Routes {
		v.Routes = append(v.Routes, routeView(r))
	}
	for _, t := range doc.Tracks {
		v.Tracks = append(v.Tracks, trackView(t))
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// requiredFloat parses a mandatory numeric query parameter. Unlike
// c.QueryFloat it reports garbage instead of silently returning a default.
func requiredFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fiber.NewError(400, name+" is required")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, fiber.NewError(400, name+" must be a number")
	}
	return f, nil
}

// param reads a route parameter, which may be percent-encoded.
func param(c *fiber.Ctx, key string) string {
	v := c.Params(key)
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}

func documentID(c *fiber.Ctx) string { return param(c, "id") }

// ListDocumentsHandler returns the summary of every parsable document.
func ListDocumentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := deps.Corpus.ListSummaries(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(paginate(c, entries))
	}
}

// GetDocumentHandler returns one document with its routes, tracks and waypoints.
func GetDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := documentID(c)
		doc, err := deps.Corpus.GetDocument(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(newDocumentView(id, doc))
	}
}

// RawDocumentHandler returns the stored GPX bytes.
func RawDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := documentID(c)
		data, err := deps.Corpus.GetRaw(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Content-Type", "application/gpx+xml")
		c.Attachment(id)
		return c.Send(data)
	}
}

// DocumentWaypointHandler returns the first waypoint with the given name.
func DocumentWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := deps.Corpus.GetDocument(c.UserContext(), documentID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		name := param(c, "name")
		w := doc.WaypointByName(name)
		if w == nil {
			return errNotFound(c, "waypoint not found: "+name)
		}
		out := *w
		out.Extras = nonNil(out.Extras)
		return c.JSON(out)
	}
}

// DocumentRouteHandler returns the first route with the given name.
func DocumentRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := deps.Corpus.GetDocument(c.UserContext(), documentID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		name := param(c, "name")
		r := doc.RouteByName(name)
		if r == nil {
			return errNotFound(c, "route not found: "+name)
		}
		return c.JSON(routeView(*r))
	}
}

// DocumentTrackHandler returns the first track with the given name.
func DocumentTrackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := deps.Corpus.GetDocument(c.UserContext(), documentID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		name := param(c, "name")
		t := doc.TrackByName(name)
		if t == nil {
			return errNotFound(c, "track not found: "+name)
		}
		return c.JSON(trackView(*t))
	}
}

// LengthMatchesHandler counts routes and tracks whose length is within delta
// metres of the requested length.
func LengthMatchesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		length, err := requiredFloat(c, "length")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		delta, err := requiredFloat(c, "delta")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		routes, tracks, err := deps.Corpus.LengthMatches(c.UserContext(), documentID(c), length, delta)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"routes": routes, "tracks": tracks})
	}
}

type createDocumentRequest struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Creator string `json:"creator"`
}

// CreateDocumentHandler writes a new empty document.
func CreateDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		doc, err := deps.Documents.CreateDocument(c.UserContext(), req.ID, req.Version, req.Creator)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/documents/" + url.PathEscape(req.ID))
		return c.Status(201).JSON(newDocumentView(req.ID, doc))
	}
}

type addRouteRequest struct {
	Name   string            `json:"name"`
	Points []domain.GeoPoint `json:"points"`
}

// AddRouteHandler appends a route to an existing document.
func AddRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req addRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		doc, err := deps.Documents.AddRoute(c.UserContext(), documentID(c), req.Name, req.Points)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(201).JSON(routeView(doc.Routes[len(doc.Routes)-1]))
	}
}

// UploadDocumentHandler stores a GPX file sent as multipart field uploadFile.
func UploadDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("uploadFile")
		if err != nil {
			return errBadRequest(c, "uploadFile is required")
		}
		f, err := fh.Open()
		if err != nil {
			return errInternal(c, err.Error())
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return errInternal(c, err.Error())
		}

		id := filepath.Base(fh.Filename)
		doc, err := deps.Documents.Upload(c.UserContext(), id, data)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/documents/" + url.PathEscape(id))
		return c.Status(201).JSON(fiber.Map{"id": id, "summary": doc.Summary()})
	}
}
