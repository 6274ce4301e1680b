// Package config loads xmlannotator settings. Load order, lowest first:
// defaults, config file, environment, command-line overrides.
//
// Environment variables:
//   - XMLANNOTATOR_BASE (ancestor, report or git)
//   - XMLANNOTATOR_ANCESTOR_DEPTH (non-negative integer)
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	BaseAncestor = "ancestor"
	BaseReport   = "report"
	BaseGit      = "git"

	// DefaultAncestorDepth is how many directories above the report's own
	// directory report paths are relative to. Build tools usually write
	// reports five levels below the project root (e.g.
	// build/reports/checkstyle/main/<tool>/report.xml).
	DefaultAncestorDepth = 5
)

const (
	envBase          = "XMLANNOTATOR_BASE"
	envAncestorDepth = "XMLANNOTATOR_ANCESTOR_DEPTH"
)

// ResolveConfig controls how report-relative file names become paths.
type ResolveConfig struct {
	Base          string `toml:"base"`
	AncestorDepth int    `toml:"ancestor_depth"`
}

// StyleConfig overrides the colours of one severity. Empty fields keep the default.
type StyleConfig struct {
	Fill   string `toml:"fill"`
	Border string `toml:"border"`
}

type Config struct {
	Resolve      ResolveConfig          `toml:"resolve"`
	IgnoredFiles []string               `toml:"ignore_files"`
	IgnoredPaths []string               `toml:"ignore_paths"`
	Styles       map[string]StyleConfig `toml:"styles"`
	ShowProgress bool                   `toml:"show_progress"`
	SummaryTop   int                    `toml:"summary_top"`
	ExportDir    string                 `toml:"export_dir"`
}

// Overrides holds command-line values. A nil field leaves the config as is.
type Overrides struct {
	Base          *string
	AncestorDepth *int
	ExportDir     *string
}

func NewConfig() *Config {
	return &Config{
		Resolve: ResolveConfig{
			Base:          BaseAncestor,
			AncestorDepth: DefaultAncestorDepth,
		},
		IgnoredFiles: []string{},
		IgnoredPaths: []string{},
		Styles:       make(map[string]StyleConfig),
		ShowProgress: true,
		SummaryTop:   15,
	}
}

// configFiles are searched in order, relative to the working directory.
var configFiles = []string{
	".xmlannotator.toml",
	"xmlannotator.toml",
	filepath.Join(".config", "xmlannotator.toml"),
}

// LoadConfig returns the first config file found, or defaults, with the
// environment applied on top. The second result names the file used.
func LoadConfig() (*Config, string, error) {
	cfg := NewConfig()
	var used string
	for _, file := range configFiles {
		if _, err := os.Stat(file); err == nil {
			used = file
			break
		}
	}
	if used != "" {
		if err := parseConfigFile(used, cfg); err != nil {
			return nil, used, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, used, err
	}
	return cfg, used, cfg.Validate()
}

// LoadConfigFromFile loads filename over the defaults, then the environment.
func LoadConfigFromFile(filename string) (*Config, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("config file not found: %s", filename)
	}
	cfg := NewConfig()
	if err := parseConfigFile(filename, cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func parseConfigFile(filename string, cfg *Config) error {
	md, err := toml.DecodeFile(filename, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", filename, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys in %s: %s", filename, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(envBase)); v != "" {
		c.Resolve.Base = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(envAncestorDepth)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %s", envAncestorDepth, v)
		}
		c.Resolve.AncestorDepth = n
	}
	return nil
}

// Apply sets every non-nil override and validates the result.
func (c *Config) Apply(o Overrides) error {
	if o.Base != nil {
		c.Resolve.Base = strings.ToLower(*o.Base)
	}
	if o.AncestorDepth != nil {
		c.Resolve.AncestorDepth = *o.AncestorDepth
	}
	if o.ExportDir != nil {
		c.ExportDir = *o.ExportDir
	}
	return c.Validate()
}

// Validate rejects values the resolver and summary cannot use.
func (c *Config) Validate() error {
	switch c.Resolve.Base {
	case BaseAncestor, BaseReport, BaseGit:
	default:
		return fmt.Errorf("invalid resolve base %q (want ancestor, report or git)", c.Resolve.Base)
	}
	if c.Resolve.AncestorDepth < 0 {
		return fmt.Errorf("invalid ancestor depth %d", c.Resolve.AncestorDepth)
	}
	for name := range c.Styles {
		switch name {
		case "error", "warning", "other":
		default:
			return fmt.Errorf("unknown style %q (want error, warning or other)", name)
		}
	}
	if c.SummaryTop < 0 {
		return fmt.Errorf("invalid summary_top %d", c.SummaryTop)
	}
	return nil
}

// ShouldIgnoreFile reports whether a report entry is excluded from annotation.
// Patterns match the base name, the whole path, or a path fragment.
func (c *Config) ShouldIgnoreFile(filePath string) bool {
	slashed := filepath.ToSlash(filePath)
	for _, pattern := range c.IgnoredFiles {
		if matched, _ := filepath.Match(pattern, filepath.Base(filePath)); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, slashed); matched {
			return true
		}
	}
	for _, fragment := range c.IgnoredPaths {
		if fragment != "" && strings.Contains(slashed, fragment) {
			return true
		}
	}
	return false
}

func GenerateConfigFile(filename string) error {
	if filename == "" {
		filename = configFiles[0]
	}
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("%s already exists", filename)
	}

	content := `# xmlannotator configuration

[resolve]
# Where report file names are resolved from:
#   ancestor - ancestor_depth directories above the report's directory
#   report   - the report's own directory
#   git      - the git work tree containing the report
base = "ancestor"
ancestor_depth = 5

# Report entries to skip (globs on the base name or path)
ignore_files = ["*.min.js", "*_generated.go"]

# Path fragments to skip
ignore_paths = ["node_modules/", "vendor/"]

# Progress bar for the annotate command
show_progress = true

# Rows in the --summary table
summary_top = 15

# Colour overrides per severity (error, warning, other)
[styles.error]
fill = "#ffdddd"
border = "#ff0000"

[styles.warning]
fill = "#fff3cd"
border = "#ff9900"

[styles.other]
fill = "#cce5ff"
border = "#0056b3"
`

	return os.WriteFile(filename, []byte(content), 0644)
}

// PrintSummary writes the effective settings to w.
func (c *Config) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "Configuration Summary:\n")
	fmt.Fprintf(w, "  • Resolve base: %s\n", c.Resolve.Base)
	if c.Resolve.Base != BaseReport {
		fmt.Fprintf(w, "  • Ancestor depth: %d\n", c.Resolve.AncestorDepth)
	}
	fmt.Fprintf(w, "  • Ignored files: %d patterns\n", len(c.IgnoredFiles))
	fmt.Fprintf(w, "  • Ignored paths: %d patterns\n", len(c.IgnoredPaths))
	fmt.Fprintf(w, "  • Show progress: %t\n", c.ShowProgress)

	if len(c.Styles) > 0 {
		names := make([]string, 0, len(c.Styles))
		for name := range c.Styles {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(w, "  • Style overrides: %s\n", strings.Join(names, ", "))
	}
	if c.ExportDir != "" {
		fmt.Fprintf(w, "  • Export directory: %s\n", c.ExportDir)
	}
}
