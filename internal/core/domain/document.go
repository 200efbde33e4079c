package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NewDocument creates an empty document. version must be a non-negative decimal
// number and creator must not be blank.
func NewDocument(version, creator string) (*Document, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(creator) == "" {
		return nil, invalidf("creator must not be empty")
	}
	if err := ValidateText("creator", creator); err != nil {
		return nil, err
	}
	return &Document{
		Version:   v,
		Creator:   creator,
		Namespace: DefaultNamespace,
		Waypoints: []Waypoint{},
		Routes:    []Route{},
		Tracks:    []Track{},
	}, nil
}

// AddRoute appends a route built from points. Existing content is left untouched.
func (d *Document) AddRoute(name string, points []GeoPoint) error {
	if len(points) == 0 {
		return invalidf("route needs at least one point")
	}
	if err := ValidateText("route name", name); err != nil {
		return err
	}
	rp := make([]Waypoint, 0, len(points))
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		rp = append(rp, Waypoint{Lat: p.Lat, Lon: p.Lon})
	}
	d.Routes = append(d.Routes, Route{Name: name, Points: rp})
	return nil
}

// Validate checks the invariants a document must hold before it is written out.
// Every string must survive an XML round trip unchanged.
func (d *Document) Validate() error {
	if math.IsNaN(d.Version) || math.IsInf(d.Version, 0) || d.Version < 0 {
		return invalidf("version %v is not a non-negative number", d.Version)
	}
	if strings.TrimSpace(d.Creator) == "" {
		return invalidf("creator must not be empty")
	}
	if err := ValidateText("creator", d.Creator); err != nil {
		return err
	}
	if err := ValidateText("namespace", d.Namespace); err != nil {
		return err
	}
	check := func(where string, pts []Waypoint) error {
		for i, w := range pts {
			if err := w.Point().Validate(); err != nil {
				return fmt.Errorf("%s point %d: %w", where, i, err)
			}
			if err := ValidateText(fmt.Sprintf("%s point %d name", where, i), w.Name); err != nil {
				return err
			}
			if err := checkExtras(fmt.Sprintf("%s point %d", where, i), w.Extras); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check("waypoint", d.Waypoints); err != nil {
		return err
	}
	for _, r := range d.Routes {
		where := "route " + strconv.Quote(r.Name)
		if err := ValidateText(where+" name", r.Name); err != nil {
			return err
		}
		if err := check(where, r.Points); err != nil {
			return err
		}
		if err := checkExtras(where, r.Extras); err != nil {
			return err
		}
	}
	for _, t := range d.Tracks {
		where := "track " + strconv.Quote(t.Name)
		if err := ValidateText(where+" name", t.Name); err != nil {
			return err
		}
		for _, seg := range t.Segments {
			if err := check(where, seg.Points); err != nil {
				return err
			}
		}
		if err := checkExtras(where, t.Extras); err != nil {
			return err
		}
	}
	return nil
}

func checkExtras(where string, extras []Extra) error {
	for _, e := range extras {
		if e.Name == "" {
			return invalidf("%s: extra with empty name", where)
		}
		if err := ValidateText(where+" extra "+strconv.Quote(e.Name), e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) NumWaypoints() int { return len(d.Waypoints) }
func (d *Document) NumRoutes() int    { return len(d.Routes) }
func (d *Document) NumTracks() int    { return len(d.Tracks) }

// IsEmpty reports whether the document has no waypoints, routes or tracks.
func (d *Document) IsEmpty() bool {
	return len(d.Waypoints) == 0 && len(d.Routes) == 0 && len(d.Tracks) == 0
}

// Summary returns the listing record for the document.
func (d *Document) Summary() Summary {
	return Summary{
		Version:      d.Version,
		Creator:      d.Creator,
		NumWaypoints: d.NumWaypoints(),
		NumRoutes:    d.NumRoutes(),
		NumTracks:    d.NumTracks(),
	}
}

// WaypointByName returns the first waypoint with the given name, or nil.
func (d *Document) WaypointByName(name string) *Waypoint {
	for i := range d.Waypoints {
		if d.Waypoints[i].Name == name {
			return &d.Waypoints[i]
		}
	}
	return nil
}

// RouteByName returns the first route with the given name, or nil.
func (d *Document) RouteByName(name string) *Route {
	for i := range d.Routes {
		if d.Routes[i].Name == name {
			return &d.Routes[i]
		}
	}
	return nil
}

// TrackByName returns the first track with the given name, or nil.
func (d *Document) TrackByName(name string) *Track {
	for i := range d.Tracks {
		if d.Tracks[i].Name == name {
			return &d.Tracks[i]
		}
	}
	return nil
}

// RoutesWithLength counts routes whose length is within delta meters of length.
// Negative arguments match nothing.
func (d *Document) RoutesWithLength(length, delta float64) int {
	if length < 0 || delta < 0 {
		return 0
	}
	n := 0
	for _, r := range d.Routes {
		if math.Abs(r.Length()-length) <= delta {
			n++
		}
	}
	return n
}

// TracksWithLength counts tracks whose length is within delta meters of length.
func (d *Document) TracksWithLength(length, delta float64) int {
	if length < 0 || delta < 0 {
		return 0
	}
	n := 0
	for _, t := range d.Tracks {
		if math.Abs(t.Length()-length) <= delta {
			n++
		}
	}
	return n
}

func (r Route) NumPoints() int  { return len(r.Points) }
func (r Route) Length() float64 { return PathLength(r.Points) }
func (r Route) IsLoop() bool    { return IsLoop(r.Points) }

func (r Route) Summary() ComponentSummary {
	return ComponentSummary{
		Component: ComponentRoute,
		Name:      r.Name,
		NumPoints: r.NumPoints(),
		Length:    r.Length(),
		Loop:      r.IsLoop(),
	}
}

// Points returns the concatenation of all segment points.
func (t Track) Points() []Waypoint {
	n := 0
	for _, s := range t.Segments {
		n += len(s.Points)
	}
	pts := make([]Waypoint, 0, n)
	for _, s := range t.Segments {
		pts = append(pts, s.Points...)
	}
	return pts
}

func (t Track) NumPoints() int {
	n := 0
	for _, s := range t.Segments {
		n += len(s.Points)
	}
	return n
}

// Length spans segment boundaries.
func (t Track) Length() float64 { return PathLength(t.Points()) }
func (t Track) IsLoop() bool    { return IsLoop(t.Points()) }

func (t Track) Summary() ComponentSummary {
	pts := t.Points()
	return ComponentSummary{
		Component: ComponentTrack,
		Name:      t.Name,
		NumPoints: len(pts),
		Length:    PathLength(pts),
		Loop:      IsLoop(pts),
	}
}

// Component is a route or track reduced to its kind, name and point sequence.
type Component struct {
	Kind   ComponentKind
	Name   string
	Points []Waypoint
}

// Summary derives the listing record of the component.
func (c Component) Summary() ComponentSummary {
	return ComponentSummary{
		Component: c.Kind,
		Name:      c.Name,
		NumPoints: len(c.Points),
		Length:    PathLength(c.Points),
		Loop:      IsLoop(c.Points),
	}
}

// Components returns the routes followed by the tracks, each in document order.
func (d *Document) Components() []Component {
	out := make([]Component, 0, len(d.Routes)+len(d.Tracks))
	for _, r := range d.Routes {
		out = append(out, Component{Kind: ComponentRoute, Name: r.Name, Points: r.Points})
	}
	for _, t := range d.Tracks {
		out = append(out, Component{Kind: ComponentTrack, Name: t.Name, Points: t.Points()})
	}
	return out
}
