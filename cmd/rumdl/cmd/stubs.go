package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
)

// These commands are named in the CLI surface but have no implementation in
// the core engine build: init scaffolds a project, import converts configs
// from other linters, server is a language server front end, vscode
// installs/manages the editor extension, and clean prunes caches/generated
// artifacts beyond what `check --no-cache` already covers. All five are
// external collaborators out of scope for this engine build.
func stubCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(_ context.Context, _ *cli.Command) error {
			return cli.Exit(name+": not implemented in the core engine build", ExitNotImplemented)
		},
	}
}

// ExitNotImplemented is returned by commands named in the CLI surface that
// have no implementation in this build.
const ExitNotImplemented = 3

func initCommand() *cli.Command {
	return stubCommand("init", "Scaffold a new project's rumdl configuration")
}

func importCommand() *cli.Command {
	return stubCommand("import", "Import configuration from another Markdown linter")
}

func serverCommand() *cli.Command {
	return stubCommand("server", "Start the rumdl language server")
}

func vscodeCommand() *cli.Command {
	return stubCommand("vscode", "Install or manage the VS Code extension")
}

func cleanCommand() *cli.Command {
	return stubCommand("clean", "Remove Lint Cache and generated artifacts")
}
