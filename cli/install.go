package cli

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"github.com/urfave/cli/v2"

	"github.com/cheerchampion/e2email/config"
)

// browsersFor returns the distinct browsers used by the suite's projects.
func browsersFor(projects []config.Project) []string {
	var browsers []string
	seen := make(map[string]bool)
	for _, p := range projects {
		if !seen[p.Browser] {
			seen[p.Browser] = true
			browsers = append(browsers, p.Browser)
		}
	}
	return browsers
}

func (a *App) install(ctx *cli.Context) error {
	_, suite, err := a.loadSettings(ctx)
	if err != nil {
		return err
	}

	browsers := browsersFor(suite.Projects)
	a.logger.Info().Strs("browsers", browsers).Msg("Installing playwright driver and browsers")

	if err := playwright.Install(&playwright.RunOptions{Browsers: browsers}); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	a.logger.Info().Msg("Playwright installed")
	return nil
}
