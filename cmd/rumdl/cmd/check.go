package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rumdl-go/rumdl/internal/config"
	"github.com/rumdl-go/rumdl/internal/discovery"
	"github.com/rumdl-go/rumdl/internal/driver"
	"github.com/rumdl-go/rumdl/internal/reporter"
)

func checkFlags(defaultFix bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file (default: auto-discover)"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format: text, json, sarif, github-actions, markdown", Sources: cli.EnvVars("RUMDL_OUTPUT_FORMAT")},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output path: stdout, stderr, or a file path", Sources: cli.EnvVars("RUMDL_OUTPUT_PATH")},
		&cli.BoolFlag{Name: "no-color", Usage: "Disable colored output", Sources: cli.EnvVars("NO_COLOR")},
		&cli.BoolFlag{Name: "hide-source", Usage: "Hide source code snippets in text output"},
		&cli.StringFlag{Name: "fail-level", Usage: "Minimum severity that causes a non-zero exit: error, warning, info, style, none", Sources: cli.EnvVars("RUMDL_OUTPUT_FAIL_LEVEL")},
		&cli.StringFlag{Name: "flavor", Usage: "Markdown flavor: commonmark, gfm, mkdocs, mdx, quarto", Sources: cli.EnvVars("RUMDL_FLAVOR")},
		&cli.BoolFlag{Name: "no-inline-directives", Usage: "Disable processing of inline rumdl-disable directives"},
		&cli.BoolFlag{Name: "warn-unused-directives", Usage: "Warn about ignore directives that suppress nothing"},
		&cli.StringSliceFlag{Name: "exclude", Usage: "Glob pattern to exclude files (repeatable)", Sources: cli.EnvVars("RUMDL_EXCLUDE")},
		&cli.BoolFlag{Name: "respect-gitignore", Usage: "Skip files matched by .gitignore/.rumdlignore", Value: true},
		&cli.StringSliceFlag{Name: "select", Usage: "Enable rules by pattern, e.g. MD0* (repeatable)", Sources: cli.EnvVars("RUMDL_RULES_SELECT")},
		&cli.StringSliceFlag{Name: "ignore", Usage: "Disable rules by pattern (repeatable)", Sources: cli.EnvVars("RUMDL_RULES_IGNORE")},
		&cli.BoolFlag{Name: "fix", Usage: "Apply safe fixes and rewrite files", Value: defaultFix},
		&cli.StringSliceFlag{Name: "fix-rule", Usage: "Only fix these rule codes (repeatable)"},
		&cli.BoolFlag{Name: "fix-unsafe", Usage: "Also apply suggestion/unsafe fixes (requires --fix)"},
		&cli.BoolFlag{Name: "no-cache", Usage: "Bypass and do not write to the Lint Cache", Sources: cli.EnvVars("RUMDL_NO_CACHE")},
		&cli.StringFlag{Name: "cache-dir", Usage: "Lint Cache root directory", Sources: cli.EnvVars("RUMDL_CACHE_DIR")},
		&cli.BoolFlag{Name: "per-file-config", Usage: "Re-discover config per file instead of once for the whole run"},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Lint Markdown files",
		ArgsUsage: "[FILE|DIR|GLOB...]",
		Flags:     checkFlags(false),
		Action:    runCheck,
	}
}

func fmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "Format Markdown files (alias for check --fix)",
		ArgsUsage: "[FILE|DIR|GLOB...]",
		Flags:     checkFlags(true),
		Action:    runCheck,
	}
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	stop := driver.IgnoreSIGPIPE()
	defer stop()

	inputs := cmd.Args().Slice()
	if len(inputs) == 0 {
		inputs = []string{"."}
	}

	cfg, err := loadCheckConfig(cmd, inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rumdl: config error: %v\n", err)
		return cli.Exit("", driver.ExitConfigError)
	}
	applyCheckOverrides(cfg, cmd)

	discOpts := discovery.Options{
		ExcludePatterns:  cmd.StringSlice("exclude"),
		RespectGitignore: cmd.Bool("respect-gitignore"),
	}

	opts := driver.Options{
		Inputs:          inputs,
		Discovery:       discOpts,
		Config:          cfg,
		DiscoverPerFile: cmd.Bool("per-file-config"),
		Fix:             cmd.Bool("fix"),
		FixUnsafe:       cmd.Bool("fix-unsafe"),
		FixRuleFilter:   cmd.StringSlice("fix-rule"),
	}
	if dir := cmd.String("cache-dir"); dir != "" {
		cfg.Cache.Dir = dir
	}
	opts.NoCache = cmd.Bool("no-cache") || !cfg.Cache.Enabled

	res, err := driver.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rumdl: %v\n", err)
		return cli.Exit("", driver.ExitConfigError)
	}

	if err := report(cmd, cfg, res); err != nil {
		return cli.Exit("", driver.ExitConfigError)
	}

	code, err := driver.DetermineExitCode(res.Violations, failLevel(cmd, cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "rumdl: %v\n", err)
		return cli.Exit("", driver.ExitConfigError)
	}
	if code != driver.ExitSuccess {
		return cli.Exit("", code)
	}
	return nil
}

func loadCheckConfig(cmd *cli.Command, inputs []string) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		return config.LoadFromFile(path)
	}
	target := "."
	if len(inputs) > 0 {
		target = inputs[0]
	}
	return config.Load(target)
}

func applyCheckOverrides(cfg *config.Config, cmd *cli.Command) {
	if f := cmd.String("format"); f != "" {
		cfg.Output.Format = f
	}
	if o := cmd.String("output"); o != "" {
		cfg.Output.Path = o
	}
	if cmd.Bool("hide-source") {
		cfg.Output.ShowSource = false
	}
	if fl := cmd.String("fail-level"); fl != "" {
		cfg.Output.FailLevel = fl
	}
	if flv := cmd.String("flavor"); flv != "" {
		cfg.Flavor = flv
	}
	if cmd.Bool("no-inline-directives") {
		cfg.InlineDirectives.Enabled = false
	}
	if cmd.Bool("warn-unused-directives") {
		cfg.InlineDirectives.WarnUnused = true
	}
	cfg.Rules.Include = append(cfg.Rules.Include, cmd.StringSlice("select")...)
	cfg.Rules.Exclude = append(cfg.Rules.Exclude, cmd.StringSlice("ignore")...)
}

func failLevel(cmd *cli.Command, cfg *config.Config) string {
	if fl := cmd.String("fail-level"); fl != "" {
		return fl
	}
	return cfg.Output.FailLevel
}

func report(cmd *cli.Command, cfg *config.Config, res *driver.Result) error {
	format, err := reporter.ParseFormat(cfg.Output.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rumdl: %v\n", err)
		return err
	}

	writer, closeFn, err := reporter.GetWriter(cfg.Output.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rumdl: %v\n", err)
		return err
	}
	defer closeFn()

	var colorOverride *bool
	if cmd.Bool("no-color") {
		disabled := false
		colorOverride = &disabled
	}

	rep, err := reporter.New(reporter.Options{
		Format:     format,
		Writer:     writer,
		Color:      colorOverride,
		ShowSource: cfg.Output.ShowSource,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "rumdl: %v\n", err)
		return err
	}

	violations := reporter.SortViolations(res.Violations)
	return rep.Report(violations, res.FileSources, reporter.ReportMetadata{
		FilesScanned: res.FilesScanned,
		RulesEnabled: res.RulesEnabled,
	})
}
