package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/mind-engage/ielts-studio/internal/db"
	"github.com/mind-engage/ielts-studio/internal/passage"
)

type ImportCmd struct {
	flags *Flags

	driver string
	dsn    string
	write  bool
}

// NewImportCmd creates a new import command
func NewImportCmd(flags *Flags) *ImportCmd {
	return &ImportCmd{flags: flags}
}

// Register adds the import command to the application
func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "import",
		Usage:     "Load passage files into the passage database",
		UsageText: "zonectl import [--db-driver sqlite|postgres] [--db-dsn DSN] [--write-ids] <file|glob>...",
		Description: `Upserts each passage file. Files with an id replace the stored passage with
that id; files without one get a new id, which --write-ids records back
into the file.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "db-driver",
				Usage:       "database driver (sqlite, postgres)",
				Sources:     cli.EnvVars("DB_DRIVER"),
				Value:       string(db.DriverSQLite),
				Destination: &cmd.driver,
			},
			&cli.StringFlag{
				Name:        "db-dsn",
				Usage:       "database DSN",
				Sources:     cli.EnvVars("DB_DSN"),
				Destination: &cmd.dsn,
			},
			&cli.BoolFlag{
				Name:        "write-ids",
				Usage:       "write newly assigned ids back into the files",
				Destination: &cmd.write,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	files, err := expandPatterns(c.Args().Slice())
	if err != nil {
		return err
	}

	dbh, err := db.Open(ctx, db.Driver(cmd.driver), cmd.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dbh.Close()

	return importFiles(ctx, passage.NewSQLStore(dbh, cmd.driver), files, cmd.write, c.Root().Writer)
}

func importFiles(ctx context.Context, store passage.Store, files []string, writeIDs bool, out io.Writer) error {
	for _, f := range files {
		pf, err := ReadPassageFile(f)
		if err != nil {
			return err
		}
		p, err := carryAudio(ctx, store, pf.Passage())
		if err != nil {
			return fmt.Errorf("import %s: %w", f, err)
		}
		saved, err := store.Put(ctx, p)
		if err != nil {
			return fmt.Errorf("import %s: %w", f, err)
		}
		if writeIDs && pf.ID == "" {
			pf.ID = saved.ID
			if err := WritePassageFile(f, pf); err != nil {
				return err
			}
		}
		log.Debug().Str("file", f).Str("id", saved.ID).Msg("passage imported")
		_, _ = fmt.Fprintf(out, "%s\t%s\n", saved.ID, f)
	}
	log.Info().Int("count", len(files)).Msg("import finished")
	return nil
}

// carryAudio keeps the audio key of a listening passage being re-imported.
// Passage files do not carry audio, which is uploaded through the API.
func carryAudio(ctx context.Context, store passage.Store, p passage.Passage) (passage.Passage, error) {
	if p.ID == "" || p.Kind != passage.KindListening {
		return p, nil
	}
	cur, err := store.Get(ctx, p.ID)
	switch {
	case errors.Is(err, passage.ErrNotFound):
		return p, nil
	case err != nil:
		return p, err
	}
	p.AudioKey = cur.AudioKey
	return p, nil
}
