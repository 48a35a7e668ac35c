// scrubsh is an interactive shell for inspecting and patching a binary
// file in place through a writable memory mapping.
//
// Usage:
//
//	scrubsh <file>
//
// Commands (in REPL):
//
//	find <phrase>                  Show fuzzy matches for a phrase
//	patch <phrase> <replacement>   Patch every match (last word of the
//	                               phrase is replaced; replacement must
//	                               not be longer than it)
//	hex [off] [len]                Hex dump a region (default 256 bytes)
//	sync                           Flush mutated pages to disk
//	help                           Show this help
//	exit / quit / q                Exit
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"scrub/internal/mapfile"
	"scrub/pkg/bytepatch"
)

const defaultHexLen = 256

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: scrubsh <file>")
		return errors.New("missing file path")
	}

	path := os.Args[1]

	m, err := mapfile.Open(path)
	if err != nil {
		return err
	}
	defer m.Close()

	r := &REPL{file: m, path: path}

	return r.Run()
}

// REPL holds the interactive session state.
type REPL struct {
	file  *mapfile.File
	path  string
	liner *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".scrubsh_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	// Load history
	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("scrubsh - in-place byte patcher (%s, %d bytes mapped)\n", r.path, len(r.file.Data()))
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("scrubsh> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		cmd, rest, _ := strings.Cut(line, " ")

		switch strings.ToLower(cmd) {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "find":
			r.cmdFind(strings.TrimSpace(rest))

		case "patch":
			r.cmdPatch(strings.Fields(rest))

		case "hex", "dump":
			r.cmdHex(strings.Fields(rest))

		case "sync":
			r.cmdSync()

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("unknown command: %s (try 'help')\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{"find ", "patch ", "hex ", "sync", "help", "exit", "quit"}

	var matches []string

	for _, c := range commands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			matches = append(matches, c)
		}
	}

	return matches
}

func (r *REPL) printHelp() {
	fmt.Println(`Commands:
  find <phrase>                  Show fuzzy matches for a phrase
  patch <phrase> <replacement>   Patch every match in the mapping
  hex [off] [len]                Hex dump a region (default 256 bytes)
  sync                           Flush mutated pages to disk
  help                           Show this help
  exit / quit / q                Exit`)
}

func (r *REPL) cmdFind(phrase string) {
	if phrase == "" {
		fmt.Println("usage: find <phrase>")

		return
	}

	// Empty replacement is always valid, we only want the scanner.
	p, err := bytepatch.Compile(phrase, "")
	if err != nil {
		fmt.Println("error:", err)

		return
	}

	buf := r.file.Data()
	found := 0
	start := 0

	for {
		m, ok := p.Find(buf, start)
		if !ok {
			break
		}

		found++

		fmt.Printf("  %d..%d  %q\n", m.Start, m.End, previewBytes(buf[m.Start:m.End]))

		start = m.Start + 1
	}

	fmt.Printf("%d match(es)\n", found)
}

func (r *REPL) cmdPatch(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: patch <phrase> <replacement>")

		return
	}

	phrase := strings.Join(args[:len(args)-1], " ")
	replacement := args[len(args)-1]

	p, err := bytepatch.Compile(phrase, replacement)
	if err != nil {
		fmt.Println("error:", err)

		return
	}

	st := p.Apply(r.file.Data())

	fmt.Printf("%d matched, %d patched, %d skipped, %d parenthetical(s) erased\n",
		st.Matches, st.Patched, st.Skipped, st.Erased)

	if st.Patched > 0 {
		fmt.Println("(pages not flushed yet, run 'sync' to force them to disk)")
	}
}

func (r *REPL) cmdHex(args []string) {
	buf := r.file.Data()

	off := 0
	length := defaultHexLen

	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			fmt.Println("usage: hex [off] [len]")

			return
		}

		off = v
	}

	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v <= 0 {
			fmt.Println("usage: hex [off] [len]")

			return
		}

		length = v
	}

	if off >= len(buf) {
		fmt.Printf("offset %d beyond mapping (%d bytes)\n", off, len(buf))

		return
	}

	end := off + length
	if end > len(buf) {
		end = len(buf)
	}

	fmt.Print(hex.Dump(buf[off:end]))
}

func (r *REPL) cmdSync() {
	if err := r.file.Sync(); err != nil {
		fmt.Println("error:", err)

		return
	}

	fmt.Println("synced")
}

// previewBytes maps non-printable bytes to '.' for display.
func previewBytes(b []byte) string {
	out := make([]byte, len(b))

	for i, c := range b {
		if c >= 0x20 && c < 0x7f {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}

	return string(out)
}
