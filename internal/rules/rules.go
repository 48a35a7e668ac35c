// Package rules loads and compiles the scrub rules configuration.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"scrub/pkg/bytepatch"
)

// ConfigFileName is the default project rules file name.
const ConfigFileName = ".scrub.json"

// DefaultField is the byte field the pipeline hook patches when the rules
// file does not name one.
const DefaultField = "body"

var (
	ErrConfigFileNotFound = errors.New("rules file not found")
	ErrConfigFileRead     = errors.New("cannot read rules file")
	ErrConfigInvalid      = errors.New("invalid rules file")
	ErrRuleInvalid        = errors.New("invalid rule")
	ErrNoRules            = errors.New("no rules configured")
)

// Rule pairs a search phrase with the replacement for its trailing word.
// Phrases are fuzzy: spaces match any run of non-alphabetic separator
// bytes (see scrub/pkg/bytepatch).
type Rule struct {
	Phrase      string `json:"phrase"`
	Replacement string `json:"replacement"`
}

// TextRule is a plain string substitution applied to decoded text fields.
// No fuzzy matching; this is the trivial half of the system.
type TextRule struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Sources tracks which rules files were loaded (for diagnostics).
type Sources struct {
	Global  string // path to global config if loaded, empty otherwise
	Project string // path to project config if loaded, empty otherwise
}

// Config holds all rules and their compiled patterns.
type Config struct {
	// From rules files (serialized)
	Rules     []Rule     `json:"rules"`
	TextRules []TextRule `json:"text_rules,omitempty"`
	Field     string     `json:"field,omitempty"`

	// Resolved (computed, not serialized)
	EffectiveCwd string  `json:"-"` // absolute working directory
	Sources      Sources `json:"-"`

	compiled []*bytepatch.Pattern
}

// Patterns returns the compiled pattern for each rule, in rule order.
func (c *Config) Patterns() []*bytepatch.Pattern { return c.compiled }

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Field: DefaultField}
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride     string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath          string            // -c/--config flag value
	PhraseOverride      string            // --phrase flag value
	ReplacementOverride string            // --replacement flag value
	Env                 map[string]string // environment variables
}

// Load loads the rules configuration with the following precedence
// (highest wins):
//  1. Defaults
//  2. Global user config (~/.config/scrub/config.json or
//     $XDG_CONFIG_HOME/scrub/config.json)
//  3. Project rules file at default location (.scrub.json, if exists)
//  4. Explicit rules file via ConfigPath (if non-empty)
//  5. --phrase/--replacement, which replace the rule list with that single
//     rule
//
// A non-empty rule list in a later source replaces the earlier list
// wholesale; rules never merge across files. Every rule is compiled here so
// an oversized replacement is rejected before any buffer is touched.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	// CLI override replaces the rule list with a single rule
	if input.PhraseOverride != "" {
		cfg.Rules = []Rule{{Phrase: input.PhraseOverride, Replacement: input.ReplacementOverride}}
	}

	cfg.EffectiveCwd = workDir

	compileErr := cfg.compile()
	if compileErr != nil {
		return Config{}, compileErr
	}

	return cfg, nil
}

// compile builds the pattern for every rule, rejecting invalid ones.
func (c *Config) compile() error {
	c.compiled = make([]*bytepatch.Pattern, 0, len(c.Rules))

	for i, rule := range c.Rules {
		p, err := bytepatch.Compile(rule.Phrase, rule.Replacement)
		if err != nil {
			return fmt.Errorf("%w %d (%q -> %q): %w", ErrRuleInvalid, i, rule.Phrase, rule.Replacement, err)
		}

		c.compiled = append(c.compiled, p)
	}

	return nil
}

// getGlobalConfigPath returns the path to the global rules file.
// Uses $XDG_CONFIG_HOME/scrub/config.json if set, otherwise
// ~/.config/scrub/config.json. Returns empty string if home cannot be
// determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "scrub", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "scrub", "config.json")
	}

	return ""
}

func loadGlobalConfig(env map[string]string) (Config, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return Config{}, "", nil
	}

	globalCfg, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return globalCfg, globalCfgPath, nil
}

// loadProjectConfig loads the project rules file (.scrub.json) or an
// explicit file given via -c. Explicit files must exist.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	fileCfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a rules file. If mustExist is false, missing files
// return zero config. Returns the config, whether a file was loaded, and
// any error.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

// mergeConfig overlays src onto dst. A non-empty rule or text-rule list in
// src replaces dst's list entirely.
func mergeConfig(dst, src Config) Config {
	if len(src.Rules) > 0 {
		dst.Rules = src.Rules
	}

	if len(src.TextRules) > 0 {
		dst.TextRules = src.TextRules
	}

	if src.Field != "" {
		dst.Field = src.Field
	}

	return dst
}
