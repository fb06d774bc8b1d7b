package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/rumdl-go/rumdl/internal/config"
	"github.com/rumdl-go/rumdl/internal/driver"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect effective configuration",
		Commands: []*cli.Command{
			configShowCommand(),
			configDiscoverCommand(),
		},
	}
}

func configShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print the effective configuration for a target path",
		ArgsUsage: "[PATH]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output as JSON instead of TOML"},
			&cli.BoolFlag{Name: "validate", Usage: "Validate the effective config against its JSON Schema before printing"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			target := cmd.Args().First()
			if target == "" {
				target = "."
			}
			cfg, err := config.Load(target)
			if err != nil {
				fmt.Fprintf(os.Stderr, "rumdl: %v\n", err)
				return cli.Exit("", driver.ExitConfigError)
			}
			if cmd.Bool("validate") {
				if err := validateConfig(cfg); err != nil {
					fmt.Fprintf(os.Stderr, "rumdl: %v\n", err)
					return cli.Exit("", driver.ExitConfigError)
				}
			}
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func configDiscoverCommand() *cli.Command {
	return &cli.Command{
		Name:      "discover",
		Usage:     "Print the project config file that would be used for a target path",
		ArgsUsage: "[PATH]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			target := cmd.Args().First()
			if target == "" {
				target = "."
			}
			path := config.Discover(target)
			if path == "" {
				fmt.Println("no project config file found")
				return nil
			}
			fmt.Println(path)
			return nil
		},
	}
}
