package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"

	"scrub/internal/rules"

	flag "github.com/spf13/pflag"
)

// TextCmd returns the text command.
func TextCmd(cfg *rules.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("text", flag.ContinueOnError),
		Usage: "text <file>...",
		Short: "Apply plain text substitutions to text files",
		Long: "Run the configured text_rules (literal string replacements, no fuzzy\n" +
			"matching) over each file and write changed files back atomically.\n" +
			"Meant for decoded JSON and other plain text; use apply for binary\n" +
			"buffers with corrupted separators.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execText(o, cfg, args)
		},
	}
}

func execText(o *IO, cfg *rules.Config, args []string) error {
	if len(args) == 0 {
		return errFilesRequired
	}

	if len(cfg.TextRules) == 0 {
		return errNoTextRules
	}

	pairs := make([]string, 0, len(cfg.TextRules)*2)
	for _, tr := range cfg.TextRules {
		pairs = append(pairs, tr.Old, tr.New)
	}

	replacer := strings.NewReplacer(pairs...)

	for _, path := range args {
		data, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		replaced := replacer.Replace(string(data))
		if replaced == string(data) {
			o.Printf("%s: unchanged\n", path)

			continue
		}

		if err := atomic.WriteFile(path, strings.NewReader(replaced)); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		o.Printf("%s: substituted\n", path)
	}

	return nil
}
