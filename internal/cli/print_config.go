package cli

import (
	"context"
	"fmt"

	"scrub/internal/rules"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg *rules.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved rules and sources",
		Long:  "Display the effective rules and which files they were loaded from.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPrintConfig(o, cfg)
		},
	}
}

func execPrintConfig(o *IO, cfg *rules.Config) error {
	o.Println("effective_cwd=" + cfg.EffectiveCwd)
	o.Println("field=" + cfg.Field)

	for i, p := range cfg.Patterns() {
		o.Println(fmt.Sprintf("rule.%d=%q -> %q (token %q)", i, p.Phrase(), p.Replacement(), p.Token()))
	}

	for i, tr := range cfg.TextRules {
		o.Println(fmt.Sprintf("text_rule.%d=%q -> %q", i, tr.Old, tr.New))
	}

	o.Println("")
	o.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			o.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			o.Println("project_config=" + cfg.Sources.Project)
		}
	}

	return nil
}
