package annotation

import (
	"encoding/json"
	"strings"
)

// DefaultStyle is applied to new drafts until the host overrides it, and
// fills in style fields missing from persisted records.
var DefaultStyle = Style{StrokeColor: "#22d3ee", StrokeWidth: 2}

type pointRecord struct {
	LogicalIndex *float64 `json:"logicalIndex,omitempty"`
	Price        *float64 `json:"price,omitempty"`

	// legacy field name written by earlier releases
	Logical *float64 `json:"logical,omitempty"`
}

type shapeRecord struct {
	ID          string       `json:"id"`
	Kind        string       `json:"kind"`
	StrokeColor string       `json:"strokeColor"`
	StrokeWidth float64      `json:"strokeWidth"`
	A           *pointRecord `json:"a,omitempty"`
	B           *pointRecord `json:"b,omitempty"`
	Center      *pointRecord `json:"center,omitempty"`
	Edge        *pointRecord `json:"edge,omitempty"`

	// legacy field names
	T      string       `json:"t,omitempty"`
	Stroke string       `json:"stroke,omitempty"`
	Width  float64      `json:"width,omitempty"`
	C      *pointRecord `json:"c,omitempty"`
	E      *pointRecord `json:"e,omitempty"`
}

// DecodeReport summarizes a defensive decode.
type DecodeReport struct {
	Kept    int
	Dropped int
	// Corrupt is set when the payload itself could not be parsed.
	Corrupt bool
}

func toRecordPoint(p DataPoint) *pointRecord {
	l, pr := p.LogicalIndex, p.Price
	return &pointRecord{LogicalIndex: &l, Price: &pr}
}

func (r *pointRecord) point() (DataPoint, bool) {
	if r == nil || r.Price == nil {
		return DataPoint{}, false
	}
	l := r.LogicalIndex
	if l == nil {
		l = r.Logical
	}
	if l == nil {
		return DataPoint{}, false
	}
	p := DataPoint{LogicalIndex: *l, Price: *r.Price}
	return p, p.Valid()
}

// Encode serializes shapes into the persisted record layout.
func Encode(shapes []Shape) ([]byte, error) {
	records := make([]shapeRecord, 0, len(shapes))
	for _, s := range shapes {
		rec := shapeRecord{
			ID:          s.ID,
			Kind:        string(s.Kind),
			StrokeColor: s.Style.StrokeColor,
			StrokeWidth: s.Style.StrokeWidth,
		}
		switch s.Kind {
		case KindLine, KindRect:
			rec.A = toRecordPoint(s.P1)
			rec.B = toRecordPoint(s.P2)
		case KindCircle:
			rec.Center = toRecordPoint(s.P1)
			rec.Edge = toRecordPoint(s.P2)
		default:
			continue
		}
		records = append(records, rec)
	}
	return json.Marshal(records)
}

// Decode parses a persisted payload. It never fails: a corrupt payload yields
// no shapes, and individual malformed records are dropped.
func Decode(data []byte) ([]Shape, DecodeReport) {
	var report DecodeReport
	if len(data) == 0 {
		return nil, report
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		report.Corrupt = true
		return nil, report
	}

	shapes := make([]Shape, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, msg := range raw {
		var rec shapeRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			report.Dropped++
			continue
		}
		s, ok := rec.shape()
		if !ok || seen[s.ID] {
			report.Dropped++
			continue
		}
		seen[s.ID] = true
		shapes = append(shapes, s)
	}
	report.Kept = len(shapes)
	return shapes, report
}

func legacyKind(t string) Kind {
	switch strings.ToLower(t) {
	case "line":
		return KindLine
	case "rect":
		return KindRect
	case "circle":
		return KindCircle
	}
	return ""
}

func (r shapeRecord) shape() (Shape, bool) {
	kind := Kind(r.Kind)
	if kind == "" {
		kind = legacyKind(r.T)
	}
	if r.ID == "" || !kind.Valid() {
		return Shape{}, false
	}

	style := Style{StrokeColor: r.StrokeColor, StrokeWidth: r.StrokeWidth}
	if style.StrokeColor == "" {
		style.StrokeColor = r.Stroke
	}
	if style.StrokeWidth <= 0 {
		style.StrokeWidth = r.Width
	}
	if style.StrokeColor == "" {
		style.StrokeColor = DefaultStyle.StrokeColor
	}
	if style.StrokeWidth <= 0 {
		style.StrokeWidth = DefaultStyle.StrokeWidth
	}

	var first, second *pointRecord
	switch kind {
	case KindLine, KindRect:
		first, second = r.A, r.B
	case KindCircle:
		first, second = r.Center, r.Edge
		if first == nil && second == nil {
			first, second = r.C, r.E
		}
	}

	p1, ok1 := first.point()
	p2, ok2 := second.point()
	if !ok1 || !ok2 {
		return Shape{}, false
	}
	return Shape{ID: r.ID, Kind: kind, Style: style, P1: p1, P2: p2}, true
}
