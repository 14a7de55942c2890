package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func (a *App) showConfig(ctx *cli.Context) error {
	cfg, suite, err := a.loadSettings(ctx)
	if err != nil {
		return err
	}

	out := ctx.App.Writer
	fmt.Fprint(out, cfg.String())

	data, err := yaml.Marshal(suite)
	if err != nil {
		return fmt.Errorf("failed to encode suite configuration: %w", err)
	}
	fmt.Fprintf(out, "\nSuite (%s):\n======================\n%s", ctx.String("config"), data)
	return nil
}
