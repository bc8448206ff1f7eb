package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

type RenderCmd struct {
	flags *Flags

	buffer string
}

// NewRenderCmd creates a new render command
func NewRenderCmd(flags *Flags) *RenderCmd {
	return &RenderCmd{flags: flags}
}

// Register adds the render command to the application
func (cmd *RenderCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "render",
		Usage:     "Split passage text into text and zone segments",
		UsageText: "zonectl render [--buffer primary|highlight] <file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "buffer",
				Aliases:     []string{"b"},
				Usage:       "which text to render (primary, highlight)",
				Value:       string(zones.BufferPrimary),
				Destination: &cmd.buffer,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *RenderCmd) run(_ context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one passage file")
	}
	b, err := zones.ParseBuffer(cmd.buffer)
	if err != nil {
		return err
	}
	pf, err := ReadPassageFile(c.Args().First())
	if err != nil {
		return err
	}
	segs := zones.Split(pf.Text().Get(b))

	out := c.Root().Writer
	if cmd.flags.JSON {
		return printJSON(out, segs)
	}
	for _, s := range segs {
		if s.Kind == zones.SegmentZone {
			_, _ = fmt.Fprintf(out, "zone  %s\n", zones.Label(s.ID()))
			continue
		}
		_, _ = fmt.Fprintf(out, "text  %s\n", strconv.Quote(s.Text))
	}
	return nil
}
