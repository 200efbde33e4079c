package domain

import "time"

// DefaultNamespace is the GPX 1.1 namespace written when a document does not carry its own.
const DefaultNamespace = "http://www.topografix.com/GPX/1/1"

// Document is a parsed GPX file.
type Document struct {
	Version   float64    `json:"version"`
	Creator   string     `json:"creator"`
	Namespace string     `json:"namespace,omitempty"`
	Waypoints []Waypoint `json:"waypoints"`
	Routes    []Route    `json:"routes"`
	Tracks    []Track    `json:"tracks"`
}

// Waypoint is a single geographic point. Used standalone and inside routes and track segments.
type Waypoint struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation,omitempty"`
	Name      string   `json:"name,omitempty"`
	Extras    []Extra  `json:"extras,omitempty"`
}

// Point returns the waypoint's coordinates.
func (w Waypoint) Point() GeoPoint {
	return GeoPoint{Lat: w.Lat, Lon: w.Lon}
}

// Route is an ordered list of route points.
type Route struct {
	Name   string     `json:"name"`
	Points []Waypoint `json:"points"`
	Extras []Extra    `json:"extras,omitempty"`
}

// Track is a recorded path made of one or more segments.
type Track struct {
	Name     string         `json:"name"`
	Segments []TrackSegment `json:"segments"`
	Extras   []Extra        `json:"extras,omitempty"`
}

// TrackSegment is a contiguous run of track points.
type TrackSegment struct {
	Points []Waypoint `json:"points"`
}

// Extra is an unrecognised child element kept as a name/value pair.
type Extra struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ComponentKind distinguishes routes from tracks.
type ComponentKind string

const (
	ComponentRoute ComponentKind = "route"
	ComponentTrack ComponentKind = "track"
)

// ComponentSummary carries the derived values of a route or track.
type ComponentSummary struct {
	Component ComponentKind `json:"component"`
	Name      string        `json:"name"`
	NumPoints int           `json:"num_points"`
	Length    float64       `json:"length"` // meters
	Loop      bool          `json:"loop"`
}

// PathMatch is a route or track whose endpoints matched a path query.
type PathMatch struct {
	SourceDocument string `json:"source_document"`
	ComponentSummary
}

// Summary is the per-document listing record.
type Summary struct {
	Version      float64 `json:"version"`
	Creator      string  `json:"creator"`
	NumWaypoints int     `json:"num_waypoints"`
	NumRoutes    int     `json:"num_routes"`
	NumTracks    int     `json:"num_tracks"`
}

// NamedDocument pairs a parsed document with the corpus identifier it was read from.
type NamedDocument struct {
	ID       string
	Document *Document
}

// CorpusEntry is one row of a corpus listing.
type CorpusEntry struct {
	ID string `json:"id"`
	Summary
}

// Document event types.
const (
	EventDocumentCreated  = "document.created"
	EventDocumentUploaded = "document.uploaded"
	EventRouteAdded       = "route.added"
)

// DocumentEvent announces a change to a corpus document.
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"document_id"`
	RouteName  string    `json:"route_name,omitempty"`
	Time       time.Time `json:"time"`
}

// MirrorStatus reports row counts of the relational mirror.
type MirrorStatus struct {
	Files  int `json:"files"`
	Routes int `json:"routes"`
	Points int `json:"points"`
}

// MirrorRoute is a route or track row read back from the mirror.
type MirrorRoute struct {
	ID         int64         `json:"id"`
	DocumentID string        `json:"document_id"`
	Component  ComponentKind `json:"component"`
	Name       string        `json:"name"`
	NumPoints  int           `json:"num_points"`
	Length     float64       `json:"length"`
	Loop       bool          `json:"loop"`
}

// MirrorPoint is a point row read back from the mirror.
type MirrorPoint struct {
	RouteID   int64   `json:"route_id"`
	RouteName string  `json:"route_name"`
	Index     int     `json:"index"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Name      string  `json:"name,omitempty"`
}

// RouteOrder selects the sort order of mirror route queries.
type RouteOrder string

const (
	OrderByName   RouteOrder = "name"
	OrderByLength RouteOrder = "length"
)

// ParseRouteOrder maps user input onto a known order. Empty input means OrderByName.
func ParseRouteOrder(s string) (RouteOrder, error) {
	switch RouteOrder(s) {
	case "", OrderByName:
		return OrderByName, nil
	case OrderByLength:
		return OrderByLength, nil
	}
	return "", invalidf("unknown order %q", s)
}
