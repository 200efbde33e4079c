package http

import (
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// legacySunset is when the unversioned endpoints go away.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// LegacyRoutes lists the deprecated endpoints and their /v1 successors.
var LegacyRoutes = []DeprecatedRoute{
	{Path: "/getFileLog", SunsetDate: legacySunset, Alternative: "/v1/documents"},
	{Path: "/getGPXView", SunsetDate: legacySunset, Alternative: "/v1/documents/{id}"},
	{Path: "/findPath", SunsetDate: legacySunset, Alternative: "/v1/paths"},
	{Path: "/create", SunsetDate: legacySunset, Alternative: "/v1/documents"},
	{Path: "/addRoute", SunsetDate: legacySunset, Alternative: "/v1/documents/{id}/routes"},
	{Path: "/upload", SunsetDate: legacySunset, Alternative: "/v1/documents/upload"},
	{Path: "/uploads/:name", SunsetDate: legacySunset, Alternative: "/v1/documents/{id}/raw"},
	{Path: "/storeFiles", SunsetDate: legacySunset, Alternative: "/v1/mirror/sync"},
	{Path: "/clearData", SunsetDate: legacySunset, Alternative: "/v1/mirror"},
	{Path: "/dbstatus", SunsetDate: legacySunset, Alternative: "/v1/mirror/status"},
	{Path: "/query", SunsetDate: legacySunset, Alternative: "/v1/mirror/routes"},
}

// legacyComponent is the camelCase component record older clients parse.
// len is rounded to the nearest 10 metres.
type legacyComponent struct {
	Name      string  `json:"name"`
	NumPoints int     `json:"numPoints"`
	Len       float64 `json:"len"`
	Loop      bool    `json:"loop"`
}

type legacySummary struct {
	Version      float64 `json:"version"`
	Creator      string  `json:"creator"`
	NumWaypoints int     `json:"numWaypoints"`
	NumRoutes    int     `json:"numRoutes"`
	NumTracks    int     `json:"numTracks"`
}

func toLegacy(s domain.ComponentSummary) legacyComponent {
	return legacyComponent{
		Name:      s.Name,
		NumPoints: s.NumPoints,
		Len:       domain.RoundToTen(s.Length),
		Loop:      s.Loop,
	}
}

func legacyResult(c *fiber.Ctx, ok bool) error {
	return c.JSON(fiber.Map{"Result": ok})
}

// LegacyFileLogHandler serves GET /getFileLog.
func LegacyFileLogHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := deps.Corpus.ListSummaries(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		names := make([]string, 0, len(entries))
		files := make([]legacySummary, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.ID)
			files = append(files, legacySummary{
				Version:      e.Version,
				Creator:      e.Creator,
				NumWaypoints: e.NumWaypoints,
				NumRoutes:    e.NumRoutes,
				NumTracks:    e.NumTracks,
			})
		}
		return c.JSON(fiber.Map{
			"numFiles":  len(entries),
			"fileNames": names,
			"files":     files,
		})
	}
}

// LegacyGPXViewHandler serves GET /getGPXView?file=.
func LegacyGPXViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := deps.Corpus.GetDocument(c.UserContext(), c.Query("file"))
		if err != nil {
			return errFromDomain(c, err)
		}
		routes := make([]legacyComponent, 0, len(doc.Routes))
		routeData := make([][]domain.Extra, 0, len(doc.Routes))
		for _, r := range doc.Routes {
			routes = append(routes, toLegacy(r.Summary()))
			routeData = append(routeData, nonNil(r.Extras))
		}
		tracks := make([]legacyComponent, 0, len(doc.Tracks))
		trackData := make([][]domain.Extra, 0, len(doc.Tracks))
		for _, t := range doc.Tracks {
			tracks = append(tracks, toLegacy(t.Summary()))
			trackData = append(trackData, nonNil(t.Extras))
		}
		return c.JSON(fiber.Map{
			"routesList":     routes,
			"tracksList":     tracks,
			"routeOtherData": routeData,
			"trackOtherData": trackData,
		})
	}
}

// LegacyFindPathHandler serves GET /findPath. Matches are grouped per
// document and component kind, one group per non-empty list.
func LegacyFindPathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		src, dst, delta, err := pathQuery(c, "slat", "slon", "dlat", "dlon", "delta")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		matches, err := deps.Corpus.SearchCorpus(c.UserContext(), src, dst, delta)
		if err != nil {
			return errFromDomain(c, err)
		}

		groups := [][]legacyComponent{}
		var lastDoc string
		var lastKind domain.ComponentKind
		for i, m := range matches {
			if i == 0 || m.SourceDocument != lastDoc || m.Component != lastKind {
				groups = append(groups, nil)
				lastDoc, lastKind = m.SourceDocument, m.Component
			}
			groups[len(groups)-1] = append(groups[len(groups)-1], toLegacy(m.ComponentSummary))
		}
		return c.JSON(fiber.Map{
			"numPathFiles":  len(groups),
			"foundPathData": groups,
		})
	}
}

// LegacyCreateHandler serves GET /create?version=&creator=&fName=.
func LegacyCreateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Query("fName") + domain.DocumentExt
		_, err := deps.Documents.CreateDocument(c.UserContext(), id, c.Query("version"), c.Query("creator"))
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("legacy create failed", "id", id, "error", err)
		}
		return legacyResult(c, err == nil)
	}
}

// LegacyAddRouteHandler serves GET /addRoute?fileName=&routeJSON=&wptJSON=.
// wptJSON repeats once per point, optionally with a [] suffix.
func LegacyAddRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var route struct {
			Name string `json:"name"`
		}
		if raw := c.Query("routeJSON"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &route); err != nil {
				return legacyResult(c, false)
			}
		}

		args := c.Context().QueryArgs()
		raw := args.PeekMulti("wptJSON")
		raw = append(raw, args.PeekMulti("wptJSON[]")...)
		points := make([]domain.GeoPoint, 0, len(raw))
		for _, r := range raw {
			var p domain.GeoPoint
			if err := json.Unmarshal(r, &p); err != nil {
				return legacyResult(c, false)
			}
			points = append(points, p)
		}

		id := c.Query("fileName")
		if _, err := deps.Documents.AddRoute(c.UserContext(), id, route.Name, points); err != nil {
			LoggerFromCtx(c.UserContext()).Warn("legacy add route failed", "id", id, "error", err)
			return legacyResult(c, false)
		}
		return legacyResult(c, true)
	}
}

// LegacyUploadHandler serves POST /upload and redirects home on success.
func LegacyUploadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("uploadFile")
		if err != nil {
			return c.Status(400).SendString("No files were uploaded.")
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
		if _, err := deps.Documents.Upload(c.UserContext(), filepath.Base(fh.Filename), data); err != nil {
			return errFromDomain(c, err)
		}
		return c.Redirect("/")
	}
}

// LegacyDownloadHandler serves GET /uploads/:name. Missing files yield an
// empty 200 response.
func LegacyDownloadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := deps.Corpus.GetRaw(c.UserContext(), param(c, "name"))
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidArgument) {
			return c.SendString("")
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Content-Type", "application/gpx+xml")
		return c.Send(data)
	}
}

// LegacyStoreFilesHandler serves GET /storeFiles.
func LegacyStoreFilesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := deps.Mirror.StoreAll(c.UserContext()); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendString("Success!")
	}
}

// LegacyClearDataHandler serves GET /clearData.
func LegacyClearDataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result := "Success!"
		if err := deps.Mirror.Clear(c.UserContext()); err != nil {
			result = "Error: Unable to clear table!"
		}
		return c.JSON(fiber.Map{"Result": result})
	}
}

// LegacyDBStatusHandler serves GET /dbstatus.
func LegacyDBStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := deps.Mirror.Status(c.UserContext())
		if err != nil {
			return c.Status(400).SendString("Could not retrieve db status")
		}
		return c.JSON(fiber.Map{"FILE": st.Files, "ROUTE": st.Routes, "POINT": st.Points})
	}
}

// LegacyQueryHandler serves GET /query?num=1..4. The order parameter only
// accepts the whitelisted column names.
func LegacyQueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		var (
			result interface{}
			err    error
		)
		switch c.Query("num") {
		case "1":
			result, err = deps.Mirror.Routes(ctx, c.Query("order"))
		case "2":
			result, err = deps.Mirror.RoutesByDocument(ctx, c.Query("filename"), c.Query("order"))
		case "3":
			result, err = deps.Mirror.PointsByRoute(ctx, c.Query("routename"))
		case "4":
			result, err = deps.Mirror.PointsByDocument(ctx, c.Query("filename"))
		default:
			return errBadRequest(c, "num must be 1, 2, 3 or 4")
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"Result": result})
	}
}
