package passage

import (
	"fmt"
	"strings"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

type Kind string

const (
	KindReading   Kind = "reading"
	KindListening Kind = "listening"
)

// Passage is a reading passage or a listening task transcript. Content and
// HighlightContent carry [DROP_ZONE:n] placeholders for drag-and-drop items.
type Passage struct {
	ID               string `json:"id"`
	Kind             Kind   `json:"kind"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	HighlightContent string `json:"highlight_content"`
	AudioKey         string `json:"audio_key,omitempty"` // listening tasks only

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

type Summary struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Title     string `json:"title"`
	ZoneCount int    `json:"zone_count"`
	UpdatedAt int64  `json:"updated_at"`
}

func (p Passage) Text() zones.DualText {
	return zones.DualText{Primary: p.Content, Highlight: p.HighlightContent}
}

func (p Passage) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalid)
	}
	switch p.Kind {
	case KindReading, KindListening:
	default:
		return fmt.Errorf("%w: kind must be reading or listening", ErrInvalid)
	}
	if p.AudioKey != "" && p.Kind != KindListening {
		return ErrNotListening
	}
	return nil
}
