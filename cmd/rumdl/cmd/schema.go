package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rumdl-go/rumdl/internal/driver"
	"github.com/rumdl-go/rumdl/internal/schemas"
	"github.com/rumdl-go/rumdl/internal/schemas/runtime"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print JSON Schema documents for config validation and editor completion",
		Commands: []*cli.Command{
			schemaRootCommand(),
			schemaRuleCommand(),
			schemaListCommand(),
		},
	}
}

func schemaRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "root",
		Usage: "Print the root configuration schema",
		Action: func(_ context.Context, _ *cli.Command) error {
			return printSchema(schemas.RootConfigSchemaID)
		},
	}
}

func schemaRuleCommand() *cli.Command {
	return &cli.Command{
		Name:      "rule",
		Usage:     "Print the options schema for one rule",
		ArgsUsage: "CODE",
		Action: func(_ context.Context, cmd *cli.Command) error {
			code := cmd.Args().First()
			if code == "" {
				return cli.Exit("schema rule requires a rule code", driver.ExitConfigError)
			}
			schemaID, ok := schemas.RuleSchemaID(code)
			if !ok {
				return cli.Exit(fmt.Sprintf("rule %q has no options schema", code), driver.ExitConfigError)
			}
			return printSchema(schemaID)
		},
	}
}

func schemaListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every embedded schema ID",
		Action: func(_ context.Context, _ *cli.Command) error {
			for _, id := range schemas.AllSchemaIDs() {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func printSchema(schemaID string) error {
	data, err := schemas.ReadSchemaByID(schemaID)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// validateConfig is used by `rumdl config show --validate` and is kept here
// next to the schema commands it shares runtime.DefaultValidator with.
func validateConfig(cfg any) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := runtime.DefaultValidator()
	if err != nil {
		return err
	}
	return v.ValidateRootConfig(raw)
}
