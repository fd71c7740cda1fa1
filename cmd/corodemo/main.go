// Command corodemo runs a small simulated world on the coroutine runtime and
// exposes its registry over Prometheus.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "corodemo",
		Usage: "Drive a coroutine registry with a simulated workload",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML or TOML config file",
				EnvVars: []string{"CORODEMO_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			checkCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
