package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

type LintCmd struct {
	flags *Flags
}

// NewLintCmd creates a new lint command
func NewLintCmd(flags *Flags) *LintCmd {
	return &LintCmd{flags: flags}
}

// Register adds the lint command to the application
func (cmd *LintCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "lint",
		Usage:     "Check passage files for zone numbering problems",
		UsageText: "zonectl lint <file|glob>...",
		Description: `Reports gaps in zone numbering, tokens placed twice in one text, tokens
the editor cannot renumber (such as leading zeros), highlight tokens with
no matching zone in the primary text, and invalid passage metadata.

Patterns support ** (for example 'passages/**/*.yaml'). Exits non-zero when
any problem is found.`,
		Action: cmd.run,
	})
	return app
}

type Finding struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

func (cmd *LintCmd) run(_ context.Context, c *cli.Command) error {
	files, err := expandPatterns(c.Args().Slice())
	if err != nil {
		return err
	}

	findings := []Finding{}
	for _, f := range files {
		pf, err := ReadPassageFile(f)
		if err != nil {
			findings = append(findings, Finding{File: f, Message: err.Error()})
			continue
		}
		for _, msg := range lintPassage(pf) {
			findings = append(findings, Finding{File: f, Message: msg})
		}
	}

	out := c.Root().Writer
	if cmd.flags.JSON {
		if err := printJSON(out, findings); err != nil {
			return err
		}
	} else {
		for _, fd := range findings {
			_, _ = fmt.Fprintf(out, "%s: %s\n", fd.File, fd.Message)
		}
	}
	if len(findings) > 0 {
		return fmt.Errorf("%d problem(s) in %d file(s)", len(findings), len(files))
	}
	return nil
}

func lintPassage(pf PassageFile) []string {
	var msgs []string
	if err := pf.Passage().Validate(); err != nil {
		msgs = append(msgs, err.Error())
	}

	dt := pf.Text()
	for _, b := range []zones.Buffer{zones.BufferPrimary, zones.BufferHighlight} {
		seen := map[string]bool{}
		for seg := range zones.Segments(dt.Get(b)) {
			if seg.Kind != zones.SegmentZone {
				continue
			}
			if tok := zones.Token(seg.ID()); seg.Literal() != tok {
				msgs = append(msgs, fmt.Sprintf("%s: %s is not renumbered by the editor; write %s", b, seg.Literal(), tok))
			}
			if seen[seg.RawID] {
				msgs = append(msgs, fmt.Sprintf("%s: %s appears more than once", b, seg.Literal()))
			}
			seen[seg.RawID] = true
		}
	}

	reg := zones.Sync(dt.Primary)
	ids := slices.Sorted(slices.Values(reg.IDs()))
	for i, id := range ids {
		if id != i+1 {
			msgs = append(msgs, fmt.Sprintf("primary: zone ids %s are not numbered 1..%d", joinInts(ids), len(ids)))
			break
		}
	}
	for _, id := range zones.ExtractIDs(dt.Highlight) {
		if !reg.Contains(id) {
			msgs = append(msgs, fmt.Sprintf("highlight: %s has no zone in primary", zones.Token(id)))
		}
	}
	return msgs
}
