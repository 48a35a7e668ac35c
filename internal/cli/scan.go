package cli

import (
	"context"
	"fmt"
	"os"

	"scrub/internal/rules"

	flag "github.com/spf13/pflag"
)

// ScanCmd returns the scan command.
func ScanCmd(cfg *rules.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("scan", flag.ContinueOnError),
		Usage: "scan <file>...",
		Short: "Report matches without modifying anything",
		Long: "Scan each file for occurrences of the configured phrases and print\n" +
			"their byte offsets. Files are never written.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execScan(o, cfg, args)
		},
	}
}

func execScan(o *IO, cfg *rules.Config, args []string) error {
	if len(args) == 0 {
		return errFilesRequired
	}

	if len(cfg.Patterns()) == 0 {
		return rules.ErrNoRules
	}

	for _, path := range args {
		data, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		found := 0

		for _, p := range cfg.Patterns() {
			start := 0

			for {
				m, ok := p.Find(data, start)
				if !ok {
					break
				}

				found++

				o.Printf("%s: %q at %d..%d\n", path, p.Phrase(), m.Start, m.End)

				if m.Anchor < 0 {
					o.Warn(
						fmt.Sprintf("%s: match at %d has no anchor byte", path, m.Start),
						"apply would skip this occurrence")
				}

				start = m.Start + 1
			}
		}

		if found == 0 {
			o.Printf("%s: no matches\n", path)
		}
	}

	return nil
}
