// Package gpx reads and writes GPX 1.1 documents.
package gpx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// ctxCheckEvery is how many tokens are read between context checks.
const ctxCheckEvery = 512

// Parse decodes a GPX document.
func Parse(data []byte) (*domain.Document, error) {
	return ParseContext(context.Background(), data)
}

// ParseContext decodes a GPX document, giving up with ErrMalformedDocument
// when ctx is done before decoding finishes.
func ParseContext(ctx context.Context, data []byte) (*domain.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed("empty input")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
	}

	p := &parser{ctx: ctx, dec: xml.NewDecoder(bytes.NewReader(data))}

	root, err := p.rootElement()
	if err != nil {
		return nil, err
	}
	doc, err := documentFromRoot(root)
	if err != nil {
		return nil, err
	}
	if err := p.parseBody(doc); err != nil {
		return nil, err
	}
	if err := p.trailer(); err != nil {
		return nil, err
	}
	return doc, nil
}

type parser struct {
	ctx    context.Context
	dec    *xml.Decoder
	tokens int
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedDocument, fmt.Sprintf(format, args...))
}

// next returns the next token. EOF inside the root element is malformed.
func (p *parser) next() (xml.Token, error) {
	p.tokens++
	if p.tokens%ctxCheckEvery == 0 {
		if err := p.ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
		}
	}
	tok, err := p.dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, malformed("unexpected end of document")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
	}
	return tok, nil
}

func (p *parser) rootElement() (xml.StartElement, error) {
	for {
		tok, err := p.next()
		if err != nil {
			return xml.StartElement{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "gpx" {
				return xml.StartElement{}, malformed("root element is <%s>, want <gpx>", t.Name.Local)
			}
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return xml.StartElement{}, malformed("text before root element")
			}
		}
	}
}

// trailer accepts only whitespace, comments and processing instructions after the root.
func (p *parser) trailer() error {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrMalformedDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return malformed("second root element <%s>", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return malformed("text after root element")
			}
		}
	}
}

func documentFromRoot(root xml.StartElement) (*domain.Document, error) {
	doc := &domain.Document{
		Namespace: root.Name.Space,
		Waypoints: []domain.Waypoint{},
		Routes:    []domain.Route{},
		Tracks:    []domain.Track{},
	}
	if doc.Namespace == "" {
		doc.Namespace = domain.DefaultNamespace
	}

	version, ok := attr(root, "version")
	if !ok {
		return nil, malformed("missing version attribute")
	}
	v, err := domain.ParseVersion(version)
	if err != nil {
		return nil, malformed("invalid version %q", version)
	}
	doc.Version = v

	creator, _ := attr(root, "creator")
	if strings.TrimSpace(creator) == "" {
		return nil, malformed("missing creator attribute")
	}
	doc.Creator = creator
	return doc, nil
}

func attr(el xml.StartElement, local string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

func (p *parser) parseBody(doc *domain.Document) error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "wpt":
				w, err := p.parsePoint(t)
				if err != nil {
					return err
				}
				doc.Waypoints = append(doc.Waypoints, w)
			case "rte":
				r, err := p.parseRoute()
				if err != nil {
					return err
				}
				doc.Routes = append(doc.Routes, r)
			case "trk":
				tr, err := p.parseTrack()
				if err != nil {
					return err
				}
				doc.Tracks = append(doc.Tracks, tr)
			default:
				// metadata, extensions
				if err := p.skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) parsePoint(start xml.StartElement) (domain.Waypoint, error) {
	var w domain.Waypoint
	var err error
	if w.Lat, err = coordinate(start, "lat", domain.ValidLatitude); err != nil {
		return w, err
	}
	if w.Lon, err = coordinate(start, "lon", domain.ValidLongitude); err != nil {
		return w, err
	}

	for {
		tok, err := p.next()
		if err != nil {
			return w, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				if w.Name, err = p.text(); err != nil {
					return w, err
				}
			case "ele":
				s, err := p.text()
				if err != nil {
					return w, err
				}
				ele, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil || math.IsNaN(ele) || math.IsInf(ele, 0) {
					return w, malformed("<%s> has invalid elevation %q", start.Name.Local, s)
				}
				w.Elevation = &ele
			case "extensions":
				if err := p.skip(); err != nil {
					return w, err
				}
			default:
				s, err := p.text()
				if err != nil {
					return w, err
				}
				w.Extras = append(w.Extras, domain.Extra{Name: t.Name.Local, Value: s})
			}
		case xml.EndElement:
			return w, nil
		}
	}
}

func coordinate(el xml.StartElement, name string, valid func(float64) bool) (float64, error) {
	raw, ok := attr(el, name)
	if !ok {
		return 0, malformed("<%s> missing %s attribute", el.Name.Local, name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !valid(v) {
		return 0, malformed("<%s> has invalid %s %q", el.Name.Local, name, raw)
	}
	return v, nil
}

func (p *parser) parseRoute() (domain.Route, error) {
	r := domain.Route{Points: []domain.Waypoint{}}
	for {
		tok, err := p.next()
		if err != nil {
			return r, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				if r.Name, err = p.text(); err != nil {
					return r, err
				}
			case "rtept":
				w, err := p.parsePoint(t)
				if err != nil {
					return r, err
				}
				r.Points = append(r.Points, w)
			case "extensions":
				if err := p.skip(); err != nil {
					return r, err
				}
			default:
				s, err := p.text()
				if err != nil {
					return r, err
				}
				r.Extras = append(r.Extras, domain.Extra{Name: t.Name.Local, Value: s})
			}
		case xml.EndElement:
			return r, nil
		}
	}
}

func (p *parser) parseTrack() (domain.Track, error) {
	tr := domain.Track{Segments: []domain.TrackSegment{}}
	for {
		tok, err := p.next()
		if err != nil {
			return tr, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				if tr.Name, err = p.text(); err != nil {
					return tr, err
				}
			case "trkseg":
				seg, err := p.parseSegment()
				if err != nil {
					return tr, err
				}
				tr.Segments = append(tr.Segments, seg)
			case "extensions":
				if err := p.skip(); err != nil {
					return tr, err
				}
			default:
				s, err := p.text()
				if err != nil {
					return tr, err
				}
				tr.Extras = append(tr.Extras, domain.Extra{Name: t.Name.Local, Value: s})
			}
		case xml.EndElement:
			return tr, nil
		}
	}
}

func (p *parser) parseSegment() (domain.TrackSegment, error) {
	seg := domain.TrackSegment{Points: []domain.Waypoint{}}
	for {
		tok, err := p.next()
		if err != nil {
			return seg, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "trkpt" {
				if err := p.skip(); err != nil {
					return seg, err
				}
				continue
			}
			w, err := p.parsePoint(t)
			if err != nil {
				return seg, err
			}
			seg.Points = append(seg.Points, w)
		case xml.EndElement:
			return seg, nil
		}
	}
}

// text returns the character data of the current element and its
// descendants verbatim, consuming the closing tag.
func (p *parser) text() (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := p.next()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return sb.String(), nil
			}
			depth--
		}
	}
}

// skip consumes the current element and all of its children.
func (p *parser) skip() error {
	depth := 0
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}
