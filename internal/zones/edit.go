package zones

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrDuplicateToken = errors.New("zones: token already present in buffer")
	ErrUnknownBuffer  = errors.New("zones: unknown buffer")
)

type Buffer string

const (
	BufferPrimary   Buffer = "primary"
	BufferHighlight Buffer = "highlight"
)

func ParseBuffer(s string) (Buffer, error) {
	switch b := Buffer(strings.ToLower(strings.TrimSpace(s))); b {
	case BufferPrimary, BufferHighlight:
		return b, nil
	case "":
		return BufferPrimary, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBuffer, s)
	}
}

// DualText is the primary passage text and its highlighted variant. Both
// refer to the same zone ids, each possibly a subset.
type DualText struct {
	Primary   string `json:"content"`
	Highlight string `json:"highlight_content"`
}

func (d DualText) Get(b Buffer) string {
	if b == BufferHighlight {
		return d.Highlight
	}
	return d.Primary
}

func (d DualText) With(b Buffer, text string) DualText {
	switch b {
	case BufferPrimary:
		d.Primary = text
	case BufferHighlight:
		d.Highlight = text
	}
	return d
}

// Selection is a cursor or selected range in rune offsets. Start == End is a
// plain cursor.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RemoveReport describes what Remove did.
type RemoveReport struct {
	Removed     int         `json:"removed"`
	InPrimary   bool        `json:"in_primary"`
	InHighlight bool        `json:"in_highlight"`
	Renumbered  map[int]int `json:"renumbered"` // old id -> new id for every surviving zone
}

// Remove drops id from the registry, renumbers the survivors 1..N in
// registry order, and rewrites both buffers: tokens of id disappear and
// every surviving token takes its new id. Tokens whose id is not in the
// registry are left as they are.
func Remove(r Registry, dt DualText, id int) (Registry, DualText, RemoveReport) {
	tok := Token(id)
	rep := RemoveReport{
		Removed:     id,
		InPrimary:   strings.Contains(dt.Primary, tok),
		InHighlight: strings.Contains(dt.Highlight, tok),
		Renumbered:  make(map[int]int, len(r.Zones)),
	}

	zs := make([]Zone, 0, len(r.Zones))
	for _, z := range r.Zones {
		if z.ID == id {
			continue
		}
		if _, dup := rep.Renumbered[z.ID]; dup {
			continue
		}
		n := len(zs) + 1
		rep.Renumbered[z.ID] = n
		zs = append(zs, newZone(n))
	}
	out := Registry{Zones: zs}
	out.Next = nextID(out.IDs())

	return out, DualText{
		Primary:   rewrite(dt.Primary, id, rep.Renumbered),
		Highlight: rewrite(dt.Highlight, id, rep.Renumbered),
	}, rep
}

// rewrite works on segments of the original text, so a token renamed to 2
// is never picked up again by the rule for old id 2.
func rewrite(text string, removed int, mapping map[int]int) string {
	var b strings.Builder
	b.Grow(len(text))
	for seg := range Segments(text) {
		if seg.canonical() {
			id := seg.ID()
			if id == removed {
				continue
			}
			if n, ok := mapping[id]; ok {
				b.WriteString(Token(n))
				continue
			}
		}
		b.WriteString(seg.Literal())
	}
	return b.String()
}

// Insert splices Token(id) into buffer b over sel and returns the cursor
// position right after the token. When b already holds the token the text is
// returned unchanged with ErrDuplicateToken. The other buffer is not checked.
func Insert(dt DualText, b Buffer, id int, sel Selection) (DualText, int, error) {
	if b != BufferPrimary && b != BufferHighlight {
		return dt, sel.Start, fmt.Errorf("%w: %q", ErrUnknownBuffer, b)
	}
	text := dt.Get(b)
	tok := Token(id)
	if strings.Contains(text, tok) {
		return dt, sel.Start, fmt.Errorf("%w: %s in %s", ErrDuplicateToken, tok, b)
	}

	n := utf8.RuneCountInString(text)
	start, end := clamp(sel.Start, n), clamp(sel.End, n)
	if end < start {
		start, end = end, start
	}
	bStart := byteOffset(text, start)
	bEnd := bStart + byteOffset(text[bStart:], end-start)

	var sb strings.Builder
	sb.Grow(len(text) + len(tok))
	sb.WriteString(text[:bStart])
	sb.WriteString(tok)
	sb.WriteString(text[bEnd:])

	return dt.With(b, sb.String()), start + utf8.RuneCountInString(tok), nil
}

// byteOffset converts a rune offset into a byte offset of s. An invalid byte
// counts as one rune, as utf8.RuneCountInString counts it, and is kept as is.
func byteOffset(s string, runes int) int {
	off := 0
	for ; runes > 0 && off < len(s); runes-- {
		_, size := utf8.DecodeRuneInString(s[off:])
		off += size
	}
	return off
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
