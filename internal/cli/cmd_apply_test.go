package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"scrub/internal/cli"
	"scrub/internal/rules"
)

const gulfRules = `{
	"rules": [{"phrase": "Gulf of Mexico", "replacement": "Sweden"}],
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	return string(data)
}

func Test_Apply_Patches_File_With_Binary_Separators(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, rules.ConfigFileName), gulfRules)

	target := filepath.Join(c.Dir, "doc.bin")
	writeFile(t, target, "the Gulf\x01\x02of\nMexico coast")

	stdout := c.MustRun("apply", target)
	cli.AssertContains(t, stdout, "1 matched, 1 patched")

	got := readFile(t, target)
	want := "the Gulf\x01\x02of\nSweden coast"

	if got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func Test_Apply_Erases_Parenthetical_Annotation(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, rules.ConfigFileName), gulfRules)

	target := filepath.Join(c.Dir, "doc.bin")
	writeFile(t, target, "Gulf of Mexico (Gulf of America)")

	c.MustRun("apply", target)

	got := readFile(t, target)
	want := "Gulf of Sweden                  "

	if got != want {
		t.Errorf("file = %q, want %q", got, want)
	}

	if len(got) != len("Gulf of Mexico (Gulf of America)") {
		t.Errorf("file length changed: %d", len(got))
	}
}

func Test_Apply_DryRun_Leaves_File_Unchanged(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, rules.ConfigFileName), gulfRules)

	target := filepath.Join(c.Dir, "doc.bin")
	original := "the Gulf of Mexico coast"
	writeFile(t, target, original)

	stdout := c.MustRun("apply", "--dry-run", target)
	cli.AssertContains(t, stdout, "1 matched, 1 patched")

	if got := readFile(t, target); got != original {
		t.Errorf("dry run modified the file: %q", got)
	}
}

func Test_Apply_InPlace_Patches_Through_Mapping(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, rules.ConfigFileName), gulfRules)

	target := filepath.Join(c.Dir, "doc.bin")
	writeFile(t, target, "Gulf\x1fof\x1fMexico and the Gulf of Mexico")

	stdout := c.MustRun("apply", "--in-place", target)
	cli.AssertContains(t, stdout, "2 matched, 2 patched")

	got := readFile(t, target)
	want := "Gulf\x1fof\x1fSweden and the Gulf of Sweden"

	if got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func Test_Apply_Succeeds_With_Phrase_Override_And_No_Rules_File(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	target := filepath.Join(c.Dir, "doc.bin")
	writeFile(t, target, "Gulf of Mexico")

	c.MustRun("--phrase", "Gulf of Mexico", "--replacement", "Sweden", "apply", target)

	if got := readFile(t, target); got != "Gulf of Sweden" {
		t.Errorf("file = %q", got)
	}
}

func Test_Apply_Fails_When_No_Rules_Configured(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	target := filepath.Join(c.Dir, "doc.bin")
	writeFile(t, target, "Gulf of Mexico")

	stderr := c.MustFail("apply", target)
	cli.AssertContains(t, stderr, "no rules configured")
}

func Test_Apply_Fails_When_Replacement_Too_Long(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	target := filepath.Join(c.Dir, "doc.bin")
	original := "Gulf of Mexico"
	writeFile(t, target, original)

	stderr := c.MustFail("--phrase", "Gulf of Mexico", "--replacement", "Switzerland", "apply", target)
	cli.AssertContains(t, stderr, "replacement longer than target word")

	// Rejected at the boundary: no byte was written.
	if got := readFile(t, target); got != original {
		t.Errorf("file modified despite rejected rule: %q", got)
	}
}

func Test_Apply_Fails_Without_Files(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, rules.ConfigFileName), gulfRules)

	stderr := c.MustFail("apply")
	cli.AssertContains(t, stderr, "at least one file is required")
}

func Test_Apply_Reports_No_Write_When_Nothing_Matches(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	writeFile(t, filepath.Join(c.Dir, rules.ConfigFileName), gulfRules)

	target := filepath.Join(c.Dir, "doc.bin")
	writeFile(t, target, "nothing here")

	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}

	stdout := c.MustRun("apply", target)
	cli.AssertContains(t, stdout, "0 matched")

	after, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}

	// No rewrite happened: same mtime.
	if !after.ModTime().Equal(info.ModTime()) {
		t.Error("file was rewritten despite zero matches")
	}
}
