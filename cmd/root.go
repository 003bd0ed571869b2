package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/spritetj/fb-scraper/internal/app"
)

// Root returns the root CLI command.
func Root() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:  "fb-scraper",
		Usage: "Extract comment threads from dynamically rendered post pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to configuration file",
				Value:       "config.yaml",
				Destination: &configPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			var cfg *app.Config
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				cfg = app.Default()
			} else {
				var err error
				cfg, err = app.Load(configPath)
				if err != nil {
					return ctx, err
				}
			}
			cmd.Metadata["config"] = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			scrapeCommand(),
			serveCommand(),
		},
		Metadata: map[string]any{},
	}
}
