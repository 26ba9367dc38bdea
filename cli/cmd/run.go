package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/formstep-io/formstep/cli/config"
	"github.com/formstep-io/formstep/cli/tui"
	"github.com/formstep-io/formstep/iox"
	"github.com/formstep-io/formstep/log"
)

// RunCommand returns the run command: the interactive form runner.
// A persisted session, when present, is restored before the first slide
// renders unless --fresh is given.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a form interactively",
		Flags: []cli.Flag{
			ConfigFlag,
			VerboseFlag,
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "Ignore any persisted session and start empty",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger := log.Nop()
	if c.Bool("verbose") {
		logger = log.NewLogger(cfg.Form.ID, cfg.Form.Name)
	}

	f, err := buildForm(c.Context, cfg, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("build form: %v", err), 1)
	}
	defer iox.DiscardClose(f)

	if !c.Bool("fresh") {
		found, err := f.Restore(c.Context)
		if err != nil {
			// A broken session must not block a new one.
			logger.Warn("session restore failed, starting fresh", map[string]any{
				"error": err.Error(),
			})
		} else if found {
			logger.Info("restored persisted session", map[string]any{
				"form_id": cfg.Form.ID,
			})
		}
	}

	if err := tui.Run(f); err != nil {
		return cli.Exit(fmt.Sprintf("run form: %v", err), 1)
	}
	return nil
}
