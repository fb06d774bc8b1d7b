package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	_ "github.com/rumdl-go/rumdl/internal/rules/all" // register the full rule catalog
	"github.com/rumdl-go/rumdl/internal/version"
)

// NewApp creates the rumdl CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "rumdl",
		Usage:   "A fast Markdown linter and formatter",
		Version: version.Version(),
		Description: `rumdl lints and formats Markdown, parsing each document once into a
shared context that every rule reuses.

Examples:
  rumdl check README.md
  rumdl check --fix docs/
  rumdl fmt .
  rumdl rule list
  rumdl config show`,
		Commands: []*cli.Command{
			checkCommand(),
			fmtCommand(),
			ruleCommand(),
			configCommand(),
			schemaCommand(),
			versionCommand(),
			initCommand(),
			importCommand(),
			serverCommand(),
			vscodeCommand(),
			cleanCommand(),
		},
	}
}

// Execute runs the CLI application with the given context.
func Execute(ctx context.Context) error {
	return NewApp().Run(ctx, programArgs())
}
