package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"docsearch/internal/config"
)

// InitCommand creates the command that writes a starter configuration
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default configuration file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c)
		},
	}
}

func initConfig(c *cli.Command) error {
	cs := config.NewConfigServiceAt(c.String("config"))
	if _, err := os.Stat(cs.Path()); err == nil && !c.Bool("force") {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", cs.Path())
	}

	if err := cs.Save(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(output(c), "Configuration written to %s\n", cs.Path())
	return nil
}
