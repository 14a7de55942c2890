package cli

// This file contains the run command: it wires the configuration, the
// runner, the email reporter and the mailer together.

import (
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"slices"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/cheerchampion/e2email/artifacts"
	"github.com/cheerchampion/e2email/config"
	"github.com/cheerchampion/e2email/mailer"
	"github.com/cheerchampion/e2email/report"
	"github.com/cheerchampion/e2email/reporter"
	"github.com/cheerchampion/e2email/runner"
	"github.com/cheerchampion/e2email/scenarios"
)

const (
	exitFailed      = 1
	exitInterrupted = 130
)

// overrides are command line settings that take precedence over the suite
// file. Zero values leave the file setting alone.
type overrides struct {
	baseURL   string
	projects  []string
	workers   int
	retries   int // negative keeps the configured value
	headed    bool
	outputDir string
}

func overridesFromContext(ctx *cli.Context, cfg *config.Config) overrides {
	o := overrides{
		baseURL: cfg.BaseURL,
		retries: -1,
	}
	if ctx.Command == nil || ctx.Command.Name != "run" {
		return o
	}
	o.projects = ctx.StringSlice("project")
	o.workers = ctx.Int("workers")
	o.retries = ctx.Int("retries")
	o.headed = ctx.Bool("headed")
	o.outputDir = ctx.String("output-dir")
	return o
}

// resolveSuite applies o and the defaults to s and validates the result.
func resolveSuite(s *config.Suite, ci bool, o overrides) error {
	if o.baseURL != "" {
		s.BaseURL = o.baseURL
	}
	if o.workers > 0 {
		s.Workers = o.workers
	}
	if o.retries >= 0 {
		retries := o.retries
		s.Retries = &retries
	}
	if o.headed {
		headless := false
		s.Headless = &headless
	}
	if o.outputDir != "" {
		s.OutputDir = o.outputDir
	}

	s.ApplyDefaults(ci)

	if len(o.projects) > 0 {
		var selected []config.Project
		for _, name := range o.projects {
			idx := slices.IndexFunc(s.Projects, func(p config.Project) bool { return p.Name == name })
			if idx < 0 {
				return fmt.Errorf("unknown project %q", name)
			}
			selected = append(selected, s.Projects[idx])
		}
		s.Projects = selected
	}

	return s.Validate()
}

// loadSettings reads the environment and the suite file named by --config.
func (a *App) loadSettings(ctx *cli.Context) (*config.Config, *config.Suite, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	path := ctx.String("config")
	suite, err := config.LoadSuite(path)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug().Str("path", path).Msg("Loaded suite configuration")

	if err := resolveSuite(suite, cfg.CI, overridesFromContext(ctx, cfg)); err != nil {
		return nil, nil, fmt.Errorf("invalid suite configuration: %w", err)
	}
	return cfg, suite, nil
}

func (a *App) run(ctx *cli.Context) error {
	cfg, suite, err := a.loadSettings(ctx)
	if err != nil {
		return err
	}

	opts := runner.OptionsFromSuite(suite)
	if pattern := ctx.String("grep"); pattern != "" {
		opts.Grep, err = regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
	}

	root := runner.NewSuite("")
	scenarios.Register(root, cfg.Kudo)

	reporters := []runner.Reporter{runner.NewLineReporter(a.logger)}
	if ctx.Bool("no-email") {
		a.logger.Info().Msg("Email report disabled by --no-email")
	} else {
		reporters = append(reporters, a.emailReporter(cfg, suite))
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	status, err := runner.New(a.logger, opts).Run(runCtx, root, runner.Multi(reporters...))
	switch status {
	case runner.StatusPassed:
		return nil
	case runner.StatusInterrupted:
		a.logger.Debug().Err(err).Msg("Run ended early")
		return cli.Exit("test run interrupted", exitInterrupted)
	default:
		return cli.Exit("", exitFailed)
	}
}

func (a *App) emailReporter(cfg *config.Config, suite *config.Suite) *reporter.EmailReporter {
	info := reporter.RunInfo{
		Args: os.Args,
	}
	if cwd, err := os.Getwd(); err == nil {
		info.WorkDir = cwd
	}
	// Capture git info (non-fatal if it fails)
	if git, err := a.getGitInfo(); err == nil {
		info.Git = git
	} else {
		a.logger.Debug().Err(err).Msg("Git information unavailable")
	}

	m := mailer.New(a.logger, cfg.Mail, mailer.NewSMTPTransport(a.logger, cfg.Mail))
	dispatcher := reporter.NewDispatcher(a.logger, m, info.Git, report.DefaultCommand)
	return reporter.New(a.logger, artifacts.New(a.logger, suite.OutputDir), dispatcher, info)
}
