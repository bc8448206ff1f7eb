package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

type RemoveCmd struct {
	flags *Flags

	zone   int
	dryRun bool
}

// NewRemoveCmd creates a new remove command
func NewRemoveCmd(flags *Flags) *RemoveCmd {
	return &RemoveCmd{flags: flags}
}

// Register adds the remove command to the application
func (cmd *RemoveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "remove",
		Usage:     "Delete a zone and renumber the rest",
		UsageText: "zonectl remove --zone N [--dry-run] <file>",
		Description: `Removes every [DROP_ZONE:N] token from both texts, then renumbers the
surviving zones 1..n in registry order. The file is rewritten in place
unless --dry-run is given.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "zone",
				Aliases:     []string{"z"},
				Usage:       "zone id to remove",
				Required:    true,
				Destination: &cmd.zone,
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

type removeResult struct {
	File   PassageFile        `json:"file"`
	Report zones.RemoveReport `json:"report"`
	Before zones.Registry     `json:"before"`
	After  zones.Registry     `json:"after"`
}

func (cmd *RemoveCmd) run(_ context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one passage file")
	}
	if cmd.zone < 1 {
		return fmt.Errorf("--zone must be a positive integer")
	}
	path := c.Args().First()
	pf, err := ReadPassageFile(path)
	if err != nil {
		return err
	}

	before := zones.Sync(pf.Content)
	if !before.Contains(cmd.zone) {
		log.Warn().Int("zone", cmd.zone).Str("file", path).Msg("zone not in primary text; renumbering only")
	}
	after, dt, rep := zones.Remove(before, pf.Text(), cmd.zone)
	res := removeResult{File: pf.WithText(dt), Report: rep, Before: before, After: after}

	out := c.Root().Writer
	if !cmd.dryRun {
		if err := WritePassageFile(path, res.File); err != nil {
			return err
		}
		log.Info().Str("file", path).Int("zone", cmd.zone).Int("renumbered", len(rep.Renumbered)).Msg("zone removed")
	}
	if cmd.flags.JSON {
		return printJSON(out, res)
	}
	for _, old := range slices.Sorted(maps.Keys(rep.Renumbered)) {
		if nw := rep.Renumbered[old]; nw != old {
			_, _ = fmt.Fprintf(out, "%d -> %d\n", old, nw)
		}
	}
	printRegistry(out, after)
	if cmd.dryRun {
		_, _ = fmt.Fprintf(out, "\n%s\n", dt.Primary)
		if dt.Highlight != "" {
			_, _ = fmt.Fprintf(out, "\n%s\n", dt.Highlight)
		}
	}
	return nil
}
