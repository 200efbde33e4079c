// Package pathfind searches parsed documents for routes and tracks that
// connect two points.
package pathfind

import (
	"fmt"
	"math"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// Query is a path search between two points. Delta is in meters.
type Query struct {
	Source      domain.GeoPoint
	Destination domain.GeoPoint
	Delta       float64
}

// Validate checks the query before any document is touched.
func (q Query) Validate() error {
	if math.IsNaN(q.Delta) || q.Delta < 0 {
		return fmt.Errorf("%w: delta must be a non-negative number of meters", domain.ErrInvalidArgument)
	}
	if err := q.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := q.Destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	return nil
}

// FindPaths returns every route and track whose endpoints lie within delta
// meters of src and dst, in either direction. Results follow document order,
// then routes before tracks, each in their original order.
func FindPaths(docs []domain.NamedDocument, src, dst domain.GeoPoint, delta float64) ([]domain.PathMatch, error) {
	q := Query{Source: src, Destination: dst, Delta: delta}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	matches := []domain.PathMatch{}
	for _, nd := range docs {
		matches = append(matches, q.Match(nd)...)
	}
	return matches, nil
}

// Match returns the matches within a single document. The query must be valid.
func (q Query) Match(nd domain.NamedDocument) []domain.PathMatch {
	if nd.Document == nil {
		return nil
	}
	var out []domain.PathMatch
	for _, r := range nd.Document.Routes {
		if q.connects(r.Points) {
			out = append(out, domain.PathMatch{SourceDocument: nd.ID, ComponentSummary: r.Summary()})
		}
	}
	for _, t := range nd.Document.Tracks {
		if q.connects(t.Points()) {
			out = append(out, domain.PathMatch{SourceDocument: nd.ID, ComponentSummary: t.Summary()})
		}
	}
	return out
}

func (q Query) connects(points []domain.Waypoint) bool {
	if len(points) < 2 {
		return false
	}
	first := points[0].Point()
	last := points[len(points)-1].Point()

	if q.near(first, q.Source) && q.near(last, q.Destination) {
		return true
	}
	return q.near(first, q.Destination) && q.near(last, q.Source)
}

func (q Query) near(a, b domain.GeoPoint) bool {
	return a.Within(b, q.Delta)
}
