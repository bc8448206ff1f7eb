package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRegistry(w io.Writer, reg zones.Registry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tLABEL\tTOKEN")
	for _, z := range reg.Zones {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", z.ID, z.Label, zones.Token(z.ID))
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "next id: %d\n", reg.Next)
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
