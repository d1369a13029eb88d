package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigParsing(t *testing.T) {
	configContent := `# Global options
log.level debug
color auto

[run]
timeout 30s
strict true`

	config, err := LoadFromReader(strings.NewReader(configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if value, ok := config.GetGlobalOption("log.level"); !ok || value != "debug" {
		t.Errorf("Expected log.level=debug, got %s (exists: %v)", value, ok)
	}

	if value, ok := config.GetGlobalOption("color"); !ok || value != "auto" {
		t.Errorf("Expected color=auto, got %s (exists: %v)", value, ok)
	}

	if value := config.Commands["run"]["timeout"]; value != "30s" {
		t.Errorf("Expected run.timeout=30s, got %q", value)
	}

	if _, ok := config.Commands["run"]["color"]; ok {
		t.Error("Expected global color not to be copied into [run]")
	}

	if config.HasWarnings() {
		t.Errorf("expected no warnings, got %v", config.GetWarnings())
	}
}

func TestEmptyConfig(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Failed to load empty config: %v", err)
	}

	if len(config.Global) != 0 {
		t.Errorf("Expected empty global config, got %v", config.Global)
	}

	if len(config.Commands) != 0 {
		t.Errorf("Expected empty commands config, got %v", config.Commands)
	}
}

func TestConfigWithComments(t *testing.T) {
	configContent := `# This is a comment
page.strict true
# Another comment
color never
# Command section
[run]
# Command option comment
ready manual`

	config, err := LoadFromReader(strings.NewReader(configContent))
	if err != nil {
		t.Fatalf("Failed to load config with comments: %v", err)
	}

	if value := config.Global["page.strict"]; value != "true" {
		t.Errorf("Expected page.strict=true, got %q", value)
	}

	if value := config.Commands["run"]["ready"]; value != "manual" {
		t.Errorf("Expected run.ready=manual, got %q", value)
	}
}

func TestConfigOptionWithoutValue(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader("log.file\nlog.level   warn  "))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if value, ok := config.GetGlobalOption("log.file"); !ok || value != "" {
		t.Errorf("Expected empty log.file, got %q (exists: %v)", value, ok)
	}
	if value := config.Global["log.level"]; value != "warn" {
		t.Errorf("Expected trimmed log.level=warn, got %q", value)
	}
}

func TestConfigEmptySectionName(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("color auto\n[ ]\n")); err == nil {
		t.Fatal("expected error for empty section name")
	}
}

func TestConfigWarnings(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader("verbose true\ncolor sometimes\n[run]\ntimeout soon"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	warnings := config.GetWarnings()
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", warnings)
	}
	joined := strings.Join(warnings, "\n")
	for _, want := range []string{`unknown global option: "verbose"`, `global option "color"`, `option "timeout" in [run]`} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected warning containing %q, got %v", want, warnings)
		}
	}
}

// setCommandOption sets key in section, creating the section if needed.
func setCommandOption(c *Config, section, key, value string) {
	if c.Commands[section] == nil {
		c.Commands[section] = make(map[string]string)
	}
	c.Commands[section][key] = value
}

func TestLoadFromPathMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-config")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("expected no error loading missing config, got %v", err)
	}

	if len(cfg.Global) != 0 || len(cfg.Commands) != 0 {
		t.Fatalf("expected empty config for missing file, got %+v", cfg)
	}
}

func TestLoadFromPathExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("log.level error\n[run]\nstrict yes"), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("expected load success, got %v", err)
	}

	if got, ok := cfg.GetGlobalOption("log.level"); !ok || got != "error" {
		t.Fatalf("expected log.level global option, got %q exists=%v", got, ok)
	}

	if got := cfg.Commands["run"]["strict"]; got != "yes" {
		t.Fatalf("expected run strict option, got %q", got)
	}
}

func TestLoadFromPathRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	if err := os.WriteFile(target, []byte("color auto"), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	link := filepath.Join(dir, "config")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := LoadFromPath(link); err == nil || !strings.Contains(err.Error(), "symlink") {
		t.Fatalf("expected symlink error, got %v", err)
	}
}

func TestLoadUsesConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("color always"), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv(EnvConfigPath, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected load success, got %v", err)
	}

	if got, ok := cfg.GetGlobalOption("color"); !ok || got != "always" {
		t.Fatalf("expected color option from env-config, got %q exists=%v", got, ok)
	}
}

func TestLoadNoFileReturnsEmptyConfig(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "config"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected load success, got %v", err)
	}

	if len(cfg.Global) != 0 || len(cfg.Commands) != 0 {
		t.Fatalf("expected empty config when file missing, got %+v", cfg)
	}
}
