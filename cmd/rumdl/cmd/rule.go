package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/rumdl-go/rumdl/internal/driver"
	"github.com/rumdl-go/rumdl/internal/rules"
)

func ruleCommand() *cli.Command {
	return &cli.Command{
		Name:  "rule",
		Usage: "Inspect the rule catalog",
		Commands: []*cli.Command{
			ruleListCommand(),
			ruleShowCommand(),
		},
	}
}

func ruleListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every registered rule",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "Filter by category"},
			&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			all := rules.DefaultRegistry().All()
			category := cmd.String("category")

			var filtered []rules.RuleMetadata
			for _, rule := range all {
				meta := rule.Metadata()
				if category != "" && meta.Category != category {
					continue
				}
				filtered = append(filtered, meta)
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tCATEGORY\tSEVERITY\tENABLED\tDESCRIPTION")
			for _, meta := range filtered {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", meta.Code, meta.Category, meta.DefaultSeverity, meta.EnabledByDefault, meta.Description)
			}
			return w.Flush()
		},
	}
}

func ruleShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show detail for one rule",
		ArgsUsage: "CODE",
		Action: func(_ context.Context, cmd *cli.Command) error {
			code := cmd.Args().First()
			if code == "" {
				return cli.Exit("rule show requires a rule code", driver.ExitConfigError)
			}
			rule := rules.DefaultRegistry().Get(code)
			if rule == nil {
				return cli.Exit(fmt.Sprintf("unknown rule %q", code), driver.ExitConfigError)
			}

			meta := rule.Metadata()
			fmt.Printf("%s: %s\n", meta.Code, meta.Name)
			if meta.Description != "" {
				fmt.Println(meta.Description)
			}
			fmt.Printf("category: %s\n", meta.Category)
			fmt.Printf("default severity: %s\n", meta.DefaultSeverity)
			fmt.Printf("enabled by default: %v\n", meta.EnabledByDefault)
			if len(meta.Aliases) > 0 {
				fmt.Printf("aliases: %v\n", meta.Aliases)
			}
			if meta.DocURL != "" {
				fmt.Printf("docs: %s\n", meta.DocURL)
			}
			if cfgRule, ok := rule.(rules.ConfigurableRule); ok {
				data, err := json.MarshalIndent(cfgRule.DefaultConfig(), "", "  ")
				if err == nil {
					fmt.Printf("default config:\n%s\n", data)
				}
			}
			if _, ok := rule.(rules.FixableRule); ok {
				fmt.Println("fixable: yes")
			}
			return nil
		},
	}
}
