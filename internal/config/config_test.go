package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfig(t *testing.T) {
	c := NewConfig()

	if c.Resolve.Base != BaseAncestor {
		t.Errorf("Expected base to be %q, but got %q", BaseAncestor, c.Resolve.Base)
	}

	if c.Resolve.AncestorDepth != 5 {
		t.Errorf("Expected AncestorDepth to be 5, but got %d", c.Resolve.AncestorDepth)
	}

	if !c.ShowProgress {
		t.Errorf("Expected ShowProgress to be true, but got false")
	}

	if err := c.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, but got %v", err)
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xmlannotator.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeTemp(t, `
ignore_files = ["*.log", "*.tmp"]

[resolve]
base = "report"

[styles.warning]
border = "#123456"
`)

	c, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if c.Resolve.Base != BaseReport {
		t.Errorf("Expected base to be report, but got %s", c.Resolve.Base)
	}

	if c.Resolve.AncestorDepth != DefaultAncestorDepth {
		t.Errorf("Expected unset depth to keep default, but got %d", c.Resolve.AncestorDepth)
	}

	if len(c.IgnoredFiles) != 2 || c.IgnoredFiles[0] != "*.log" || c.IgnoredFiles[1] != "*.tmp" {
		t.Errorf("Expected ignored files [*.log *.tmp], but got %v", c.IgnoredFiles)
	}

	if c.Styles["warning"].Border != "#123456" {
		t.Errorf("Expected warning border override, but got %+v", c.Styles["warning"])
	}
}

func TestLoadConfigFromFileErrors(t *testing.T) {
	if _, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}

	if _, err := LoadConfigFromFile(writeTemp(t, "resolve = [")); err == nil {
		t.Errorf("Expected an error for invalid TOML")
	}

	if _, err := LoadConfigFromFile(writeTemp(t, "colour = \"red\"")); err == nil {
		t.Errorf("Expected an error for an unknown key")
	}

	if _, err := LoadConfigFromFile(writeTemp(t, "[resolve]\nbase = \"cwd\"")); err == nil {
		t.Errorf("Expected an error for an unknown base")
	}

	if _, err := LoadConfigFromFile(writeTemp(t, "[styles.fatal]\nfill = \"#000000\"")); err == nil {
		t.Errorf("Expected an error for an unknown style name")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XMLANNOTATOR_ANCESTOR_DEPTH", "2")
	t.Setenv("XMLANNOTATOR_BASE", "GIT")

	c, err := LoadConfigFromFile(writeTemp(t, "[resolve]\nancestor_depth = 7"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Resolve.AncestorDepth != 2 {
		t.Errorf("Expected env depth 2, but got %d", c.Resolve.AncestorDepth)
	}
	if c.Resolve.Base != BaseGit {
		t.Errorf("Expected env base git, but got %s", c.Resolve.Base)
	}

	t.Setenv("XMLANNOTATOR_ANCESTOR_DEPTH", "deep")
	if _, err := LoadConfigFromFile(writeTemp(t, "")); err == nil {
		t.Errorf("Expected an error for a non-numeric depth")
	}
}

func TestLoadConfigSearchOrder(t *testing.T) {
	dir := t.TempDir()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	c, used, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if used != "" {
		t.Errorf("Expected no config file, but got %s", used)
	}
	if c.Resolve.AncestorDepth != DefaultAncestorDepth {
		t.Errorf("Expected default depth, but got %d", c.Resolve.AncestorDepth)
	}

	if err := os.WriteFile("xmlannotator.toml", []byte("[resolve]\nancestor_depth = 3"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(".xmlannotator.toml", []byte("[resolve]\nancestor_depth = 1"), 0644); err != nil {
		t.Fatal(err)
	}

	c, used, err = LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if used != ".xmlannotator.toml" {
		t.Errorf("Expected .xmlannotator.toml to win, but got %s", used)
	}
	if c.Resolve.AncestorDepth != 1 {
		t.Errorf("Expected depth 1, but got %d", c.Resolve.AncestorDepth)
	}
}

func TestApplyOverrides(t *testing.T) {
	c := NewConfig()
	depth := 0
	base := "report"
	if err := c.Apply(Overrides{AncestorDepth: &depth, Base: &base}); err != nil {
		t.Fatal(err)
	}
	if c.Resolve.AncestorDepth != 0 || c.Resolve.Base != BaseReport {
		t.Errorf("Expected overrides to apply, but got %+v", c.Resolve)
	}

	negative := -1
	if err := c.Apply(Overrides{AncestorDepth: &negative}); err == nil {
		t.Errorf("Expected an error for a negative depth")
	}
}

func TestShouldIgnoreFile(t *testing.T) {
	c := NewConfig()
	c.IgnoredFiles = []string{"*.log", "gen/*.go"}
	c.IgnoredPaths = []string{"node_modules/"}

	if !c.ShouldIgnoreFile("logs/test.log") {
		t.Errorf("Expected to ignore logs/test.log")
	}

	if !c.ShouldIgnoreFile("gen/model.go") {
		t.Errorf("Expected to ignore gen/model.go")
	}

	if !c.ShouldIgnoreFile("web/node_modules/lib/index.js") {
		t.Errorf("Expected to ignore web/node_modules/lib/index.js")
	}

	if c.ShouldIgnoreFile("src/main.go") {
		t.Errorf("Expected not to ignore src/main.go")
	}
}

func TestGenerateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".xmlannotator.toml")
	if err := GenerateConfigFile(path); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("Expected generated config to load, but got %v", err)
	}
	if c.Styles["error"].Border != "#ff0000" {
		t.Errorf("Expected generated error border #ff0000, but got %s", c.Styles["error"].Border)
	}

	if err := GenerateConfigFile(path); err == nil {
		t.Errorf("Expected an error when the file already exists")
	}
}

func TestPrintSummary(t *testing.T) {
	c := NewConfig()
	c.Resolve.Base = BaseReport
	c.ExportDir = "out"

	var buf bytes.Buffer
	c.PrintSummary(&buf)

	out := buf.String()
	if !strings.Contains(out, "Resolve base: report") {
		t.Errorf("Expected the resolve base, but got %q", out)
	}
	if strings.Contains(out, "Ancestor depth") {
		t.Errorf("Expected no ancestor depth for the report base, but got %q", out)
	}
	if !strings.Contains(out, "Export directory: out") {
		t.Errorf("Expected the export directory, but got %q", out)
	}
}
