package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/mind-engage/ielts-studio/internal/commands"
	"github.com/mind-engage/ielts-studio/pkg/logutils"
)

// Populated at build-time via -ldflags.
var version = "dev"

func main() {
	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "zonectl",
		Usage:     "Inspect and edit drop-zone placeholders in passage files",
		UsageText: "zonectl [global options] command [command options]",
		Description: `zonectl works on YAML passage files with 'content' and 'highlight_content'
texts that carry [DROP_ZONE:n] placeholders. It applies the same numbering
rules as the editor: removing a zone renumbers the rest 1..n, and a token
can only appear once per text.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("ZONECTL_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print results as JSON",
				Destination: &flags.JSON,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			log.Logger = logutils.Console(flags.LogLevel)
			return ctx, nil
		},
	}

	app = commands.NewExtractCmd(flags).Register(app)
	app = commands.NewRenderCmd(flags).Register(app)
	app = commands.NewRemoveCmd(flags).Register(app)
	app = commands.NewInsertCmd(flags).Register(app)
	app = commands.NewLintCmd(flags).Register(app)
	app = commands.NewImportCmd(flags).Register(app)

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
