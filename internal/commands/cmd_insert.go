package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

type InsertCmd struct {
	flags *Flags

	zone   int
	buffer string
	at     int
	end    int
	dryRun bool
}

// NewInsertCmd creates a new insert command
func NewInsertCmd(flags *Flags) *InsertCmd {
	return &InsertCmd{flags: flags}
}

// Register adds the insert command to the application
func (cmd *InsertCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "insert",
		Usage:     "Place a zone token into a passage text",
		UsageText: "zonectl insert --zone N [--buffer primary|highlight] --at P [--end Q] <file>",
		Description: `Inserts [DROP_ZONE:N] at character offset P, replacing the characters up to
Q when --end is given. Fails if the token is already present in that text.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "zone",
				Aliases:     []string{"z"},
				Usage:       "zone id to insert",
				Required:    true,
				Destination: &cmd.zone,
			},
			&cli.StringFlag{
				Name:        "buffer",
				Aliases:     []string{"b"},
				Usage:       "target text (primary, highlight)",
				Value:       string(zones.BufferPrimary),
				Destination: &cmd.buffer,
			},
			&cli.IntFlag{
				Name:        "at",
				Usage:       "character offset of the cursor",
				Destination: &cmd.at,
			},
			&cli.IntFlag{
				Name:        "end",
				Usage:       "end of the selection to replace (defaults to --at)",
				Value:       -1,
				Destination: &cmd.end,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "print the result without writing the file",
				Destination: &cmd.dryRun,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InsertCmd) run(_ context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one passage file")
	}
	if cmd.zone < 1 {
		return fmt.Errorf("--zone must be a positive integer")
	}
	b, err := zones.ParseBuffer(cmd.buffer)
	if err != nil {
		return err
	}
	path := c.Args().First()
	pf, err := ReadPassageFile(path)
	if err != nil {
		return err
	}

	sel := zones.Selection{Start: cmd.at, End: cmd.end}
	if cmd.end < 0 {
		sel.End = cmd.at
	}
	dt, cursor, err := zones.Insert(pf.Text(), b, cmd.zone, sel)
	if err != nil {
		return fmt.Errorf("insert zone %d into %s: %w", cmd.zone, b, err)
	}
	pf = pf.WithText(dt)

	out := c.Root().Writer
	if !cmd.dryRun {
		if err := WritePassageFile(path, pf); err != nil {
			return err
		}
		log.Info().Str("file", path).Int("zone", cmd.zone).Str("buffer", string(b)).Msg("zone token inserted")
	}
	if cmd.flags.JSON {
		return printJSON(out, map[string]any{"cursor": cursor, "file": pf})
	}
	_, _ = fmt.Fprintf(out, "cursor: %d\n", cursor)
	if cmd.dryRun {
		_, _ = fmt.Fprintf(out, "\n%s\n", dt.Get(b))
	}
	return nil
}
