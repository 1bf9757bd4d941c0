package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
)

func main() {
	app := &cli.Command{
		Name:        "insight-apis",
		Usage:       "insight-apis [command] [flags]",
		Description: "Address and transaction APIs for Bitcoin and Litecoin backed by a local index.",
		Commands: []*cli.Command{
			serveCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Syncs the enabled chains and serves the HTTP API. Terminates gracefully on SIGINT or SIGTERM.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"))
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Prints the build version",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Printf("insight-apis %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
