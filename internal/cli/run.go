package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"scrub/internal/rules"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

var (
	errFlagRequiresArg = errors.New("flag requires an argument")
	errUnknownFlag     = errors.New("unknown flag")
	errFilesRequired   = errors.New("at least one file is required")
	errNoTextRules     = errors.New("no text rules configured")
)

// Run is the main entry point. Returns exit code.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	if len(args) < minArgs {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	cmdName := flags.remaining[0]

	if cmdName == "-h" || cmdName == helpFlag {
		printUsage(out)

		return 0
	}

	// Load and compile rules; an oversized replacement dies here, before
	// any file is opened.
	cfg, err := rules.Load(rules.LoadInput{
		WorkDirOverride:     flags.workDir,
		ConfigPath:          flags.configPath,
		PhraseOverride:      flags.phrase,
		ReplacementOverride: flags.replacement,
		Env:                 env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	ioCtx := NewIO(out, errOut)

	cmd := lookupCommand(cmdName, &cfg)
	if cmd == nil {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut)

		return 1
	}

	if code := cmd.Run(context.Background(), ioCtx, flags.remaining[1:]); code != 0 {
		return code
	}

	// Finish handles warnings and exit code
	return ioCtx.Finish()
}

func lookupCommand(name string, cfg *rules.Config) *Command {
	switch name {
	case "scan":
		return ScanCmd(cfg)
	case "apply":
		return ApplyCmd(cfg)
	case "text":
		return TextCmd(cfg)
	case "print-config":
		return PrintConfigCmd(cfg)
	}

	return nil
}

type globalFlags struct {
	workDir     string
	configPath  string
	phrase      string
	replacement string
	remaining   []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "-C"); ok && after != "" {
		flags.workDir = after

		return consumedOne, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	// -c/--config flag (rules file)
	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	// --phrase flag (single-rule override)
	if arg == "--phrase" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.phrase = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--phrase="); ok {
		flags.phrase = after

		return consumedOne, nil
	}

	// --replacement flag (single-rule override)
	if arg == "--replacement" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.replacement = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--replacement="); ok {
		flags.replacement = after

		return consumedOne, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", errUnknownFlag, arg)
	}

	// Not a flag
	return consumedNone, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(writer io.Writer) {
	fprintln(writer, `scrub - fuzzy in-place byte phrase patcher

Usage: scrub [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified rules file
  --phrase <phrase>      Single rule: search phrase (pairs with --replacement)
  --replacement <word>   Single rule: replacement for the phrase's last word

Commands:
  scan <file>...           Report matches without modifying anything
  apply [flags] <file>...  Patch files with the configured rules
  text <file>...           Apply plain text substitutions to text files
  print-config             Show resolved rules and sources`)
}
