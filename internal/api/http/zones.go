package http

import (
	"net/http"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

type zoneAnalysis struct {
	Registry     zones.Registry  `json:"registry"`
	HighlightIDs []int           `json:"highlight_ids"`
	Orphans      []int           `json:"orphans"` // in highlight but not in primary
	Segments     []zones.Segment `json:"segments"`
}

func analyze(dt zones.DualText) zoneAnalysis {
	reg := zones.Sync(dt.Primary)
	hl := zones.ExtractIDs(dt.Highlight)
	orphans := []int{}
	for _, id := range hl {
		if !reg.Contains(id) {
			orphans = append(orphans, id)
		}
	}
	return zoneAnalysis{
		Registry:     reg,
		HighlightIDs: hl,
		Orphans:      orphans,
		Segments:     zones.Split(dt.Primary),
	}
}

// POST /zones/analyze  { "content": "...", "highlight_content": "..." }
func AnalyzeZonesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var dt zones.DualText
		if !decode(w, r, &dt) {
			return
		}
		writeJSON(w, http.StatusOK, analyze(dt))
	}
}
