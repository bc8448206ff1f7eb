// Package zones keeps inline [DROP_ZONE:<id>] placeholders consistent across
// the primary and highlight text of a passage.
package zones

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"
)

const (
	tokenPrefix = "[DROP_ZONE:"
	tokenSuffix = "]"
)

var tokenRe = regexp.MustCompile(`\[DROP_ZONE:(\d+)\]`)

// Token returns the literal placeholder for id.
func Token(id int) string {
	return tokenPrefix + strconv.Itoa(id) + tokenSuffix
}

// Label is the display name shown for a zone in the editor.
func Label(id int) string {
	return "Zone " + strconv.Itoa(id)
}

type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentZone
)

func (k SegmentKind) String() string {
	if k == SegmentZone {
		return "zone"
	}
	return "text"
}

func (k SegmentKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *SegmentKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "text":
		*k = SegmentText
	case "zone":
		*k = SegmentZone
	default:
		return fmt.Errorf("unknown segment kind %q", b)
	}
	return nil
}

// Segment is one piece of split passage text: either plain text or a zone
// placeholder. For zones RawID holds the captured digits exactly as written.
type Segment struct {
	Kind  SegmentKind `json:"kind"`
	Text  string      `json:"text,omitempty"`
	RawID string      `json:"raw_id,omitempty"`
}

// ID parses RawID. Captures that do not fit in an int yield 0.
func (s Segment) ID() int { return parseID(s.RawID) }

// Literal returns the exact source text the segment was cut from.
func (s Segment) Literal() string {
	if s.Kind == SegmentZone {
		return tokenPrefix + s.RawID + tokenSuffix
	}
	return s.Text
}

// canonical reports whether the token is written exactly as Token(ID()) would
// write it. Only canonical tokens are rewritten during renumbering.
func (s Segment) canonical() bool {
	return s.Kind == SegmentZone && s.RawID == strconv.Itoa(s.ID())
}

// Segments yields text and zone segments of text in order. Each call starts
// a fresh scan.
func Segments(text string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		pos := 0
		for _, m := range tokenRe.FindAllStringSubmatchIndex(text, -1) {
			if m[0] > pos {
				if !yield(Segment{Kind: SegmentText, Text: text[pos:m[0]]}) {
					return
				}
			}
			if !yield(Segment{Kind: SegmentZone, RawID: text[m[2]:m[3]]}) {
				return
			}
			pos = m[1]
		}
		if pos < len(text) {
			yield(Segment{Kind: SegmentText, Text: text[pos:]})
		}
	}
}

// Split materializes Segments(text). The result is never nil.
func Split(text string) []Segment {
	out := make([]Segment, 0, 8)
	for s := range Segments(text) {
		out = append(out, s)
	}
	return out
}

// Join concatenates the literal text of segs.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Literal())
	}
	return b.String()
}

// ExtractIDs returns the distinct zone ids in text in order of first
// appearance.
func ExtractIDs(text string) []int {
	ids := []int{}
	seen := map[int]struct{}{}
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		id := parseID(m[1])
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func parseID(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
