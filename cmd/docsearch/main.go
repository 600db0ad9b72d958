package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"docsearch/internal/config"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "docsearch",
		Usage:     "Type-ahead search over documentation indexes",
		ArgsUsage: "[query]",
		Writer:    os.Stdout,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: config.DefaultPath(),
			},
		},
		Commands: []*cli.Command{
			InitCommand(),
			SearchCommand(),
			QueryCommand(),
			IndexCommand(),
			ServeCommand(),
		},
		// Without a subcommand the interactive search opens.
		Action: func(ctx context.Context, c *cli.Command) error {
			return runSearch(ctx, c, false, "")
		},
	}
}
