package gpx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// Serialize encodes doc as an indented GPX document. It fails with
// ErrInvalidArgument when doc does not satisfy the model invariants.
func Serialize(doc *domain.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidArgument)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	w := &writer{enc: xml.NewEncoder(&buf)}
	w.enc.Indent("", "  ")

	ns := doc.Namespace
	if ns == "" {
		ns = domain.DefaultNamespace
	}
	w.start("gpx",
		xml.Attr{Name: xml.Name{Local: "version"}, Value: formatVersion(doc.Version)},
		xml.Attr{Name: xml.Name{Local: "creator"}, Value: doc.Creator},
		xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: ns},
	)
	for _, wp := range doc.Waypoints {
		w.point("wpt", wp)
	}
	for _, r := range doc.Routes {
		w.start("rte")
		w.name(r.Name)
		w.extras(r.Extras, "rtept")
		for _, p := range r.Points {
			w.point("rtept", p)
		}
		w.end("rte")
	}
	for _, t := range doc.Tracks {
		w.start("trk")
		w.name(t.Name)
		w.extras(t.Extras, "trkseg")
		for _, seg := range t.Segments {
			w.start("trkseg")
			for _, p := range seg.Points {
				w.point("trkpt", p)
			}
			w.end("trkseg")
		}
		w.end("trk")
	}
	w.end("gpx")

	if w.err == nil {
		w.err = w.enc.Flush()
	}
	if w.err != nil {
		return nil, w.err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// formatVersion always keeps a decimal point, so 1 becomes "1.0".
func formatVersion(v float64) string {
	if v == 0 {
		v = 0 // never "-0.0"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type writer struct {
	enc *xml.Encoder
	err error
}

func (w *writer) start(name string, attrs ...xml.Attr) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *writer) end(name string) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *writer) element(name, value string) {
	w.start(name)
	if w.err == nil {
		w.err = w.enc.EncodeToken(xml.CharData(value))
	}
	w.end(name)
}

func (w *writer) name(n string) {
	if n != "" {
		w.element("name", n)
	}
}

// extras writes unrecognised children. Names the parser would read back as
// structure are rejected.
func (w *writer) extras(extras []domain.Extra, reserved string) {
	for _, e := range extras {
		if w.err != nil {
			return
		}
		if !validElementName(e.Name) {
			w.err = fmt.Errorf("%w: %q is not a valid element name", domain.ErrInvalidArgument, e.Name)
			return
		}
		if e.Name == "name" || e.Name == "extensions" || e.Name == reserved {
			w.err = fmt.Errorf("%w: extra may not be named %q", domain.ErrInvalidArgument, e.Name)
			return
		}
		w.element(e.Name, e.Value)
	}
}

func (w *writer) point(tag string, p domain.Waypoint) {
	w.start(tag,
		xml.Attr{Name: xml.Name{Local: "lat"}, Value: formatCoord(p.Lat)},
		xml.Attr{Name: xml.Name{Local: "lon"}, Value: formatCoord(p.Lon)},
	)
	if p.Elevation != nil {
		w.element("ele", formatCoord(*p.Elevation))
	}
	w.name(p.Name)
	w.extras(p.Extras, "ele")
	w.end(tag)
}

// validElementName accepts unprefixed XML names.
func validElementName(s string) bool {
	if s == "" || strings.HasPrefix(strings.ToLower(s), "xml") {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
