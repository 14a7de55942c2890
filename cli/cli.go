package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "e2email"

const defaultSuiteConfig = "e2e.yaml"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Run the browser end-to-end suite and email the results",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "run",
		Usage:  "Run the end-to-end suite and send the report email",
		Action: app.run,
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringSliceFlag{
				Name:  "project",
				Usage: "Only run the named project (repeatable)",
			},
			&cli.StringFlag{
				Name:    "grep",
				Aliases: []string{"g"},
				Usage:   "Only run tests whose full title matches this regular expression",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of tests to run in parallel (default: from config)",
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Retry failed tests this many times (default: from config)",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "headed",
				Usage: "Show the browser window",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for test media and the email artifacts",
			},
			&cli.BoolFlag{
				Name:  "no-email",
				Usage: "Run without sending the report email",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "install",
		Usage:  "Install the playwright driver and the browsers used by the suite",
		Action: app.install,
		Flags: []cli.Flag{
			configFlag(),
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "config",
		Usage:  "Show the effective mail and suite configuration",
		Action: app.showConfig,
		Flags: []cli.Flag{
			configFlag(),
		},
	})
	return app
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Suite configuration file",
		Value:   defaultSuiteConfig,
		EnvVars: []string{"E2E_CONFIG"},
	}
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
