package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

type ExtractCmd struct {
	flags *Flags
}

// NewExtractCmd creates a new extract command
func NewExtractCmd(flags *Flags) *ExtractCmd {
	return &ExtractCmd{flags: flags}
}

// Register adds the extract command to the application
func (cmd *ExtractCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "extract",
		Usage:     "Show the zone registry of a passage file",
		UsageText: "zonectl extract <file>",
		Description: `Lists the zone ids referenced by the primary text in order of first
appearance, the next id the editor would hand out, and the ids used by the
highlight text.`,
		Action: cmd.run,
	})
	return app
}

type extractResult struct {
	Registry     zones.Registry `json:"registry"`
	HighlightIDs []int          `json:"highlight_ids"`
}

func (cmd *ExtractCmd) run(_ context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one passage file")
	}
	pf, err := ReadPassageFile(c.Args().First())
	if err != nil {
		return err
	}
	res := extractResult{
		Registry:     zones.Sync(pf.Content),
		HighlightIDs: zones.ExtractIDs(pf.HighlightContent),
	}

	out := c.Root().Writer
	if cmd.flags.JSON {
		return printJSON(out, res)
	}
	printRegistry(out, res.Registry)
	_, _ = fmt.Fprintf(out, "highlight: %s\n", joinInts(res.HighlightIDs))
	return nil
}
