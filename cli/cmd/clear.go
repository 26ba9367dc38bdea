package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/formstep-io/formstep/cli/config"
	"github.com/formstep-io/formstep/iox"
)

// ClearCommand returns the clear command: it drops the persisted
// snapshot for the configured form so the next run starts fresh.
func ClearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete the persisted session for a form",
		Flags: []cli.Flag{
			ConfigFlag,
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Delete every persisted session under the store prefix",
			},
		},
		Action: clearAction,
	}
}

func clearAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	store, err := buildStore(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if store == nil {
		return cli.Exit("no persistence backend configured; nothing to clear", 1)
	}
	defer iox.DiscardClose(store)

	if c.Bool("all") {
		if err := store.ClearAll(c.Context); err != nil {
			return cli.Exit(fmt.Sprintf("clear all: %v", err), 1)
		}
		fmt.Fprintln(c.App.Writer, "cleared all persisted sessions")
		return nil
	}

	if err := store.Clear(c.Context, cfg.Form.ID); err != nil {
		return cli.Exit(fmt.Sprintf("clear %s: %v", cfg.Form.ID, err), 1)
	}
	fmt.Fprintf(c.App.Writer, "cleared persisted session for %s\n", cfg.Form.ID)
	return nil
}
