package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeDuration is a Go time.Duration value (e.g. "30s", "5m", "1h").
	TypeDuration OptionType = "duration"
	// TypeEnum is one of the values listed in ConfigOption.Values.
	TypeEnum OptionType = "enum"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file (kebab-case).
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Default is the default value as a string, or "" for no default.
	Default string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a command/section name.
	Section string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
	// Values lists the accepted values of a TypeEnum option.
	Values []string
}

// ConfigSchema declares the expected configuration options for the application.
// It is used for validation, documentation, typed resolution, and env var mapping.
type ConfigSchema struct {
	options []*ConfigOption
	// byKey indexes global options by key for fast lookup.
	byKey map[string]*ConfigOption
	// bySection indexes command/section options by section then key.
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds a ConfigOption to the schema. Duplicate keys within the same
// section are silently overwritten (last registration wins).
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
	} else {
		if s.bySection[opt.Section] == nil {
			s.bySection[opt.Section] = make(map[string]*ConfigOption)
		}
		s.bySection[opt.Section][opt.Key] = ref
	}
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the ConfigOption for a key in a given section ("" for global).
// Returns nil if the key is not registered.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	if sec, ok := s.bySection[section]; ok {
		return sec[key]
	}
	return nil
}

// IsKnown returns true if the key is registered in the given section.
// For command sections, global keys are also considered known (they can
// appear in command sections and fall back to the global value).
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if section == "" {
		return s.byKey[key] != nil
	}
	// Command section: check section-specific, then global.
	if sec, ok := s.bySection[section]; ok {
		if sec[key] != nil {
			return true
		}
	}
	return s.byKey[key] != nil
}

// Validate is shorthand for ValidateConfig(c, s).
func (s *ConfigSchema) Validate(c *Config) []string {
	return ValidateConfig(c, s)
}

// GlobalOptions returns all registered global options (Section == "").
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == "" {
			out = append(out, *o)
		}
	}
	return out
}

// SectionOptions returns all registered options for a specific section.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns a sorted list of all registered non-empty section names.
func (s *ConfigSchema) Sections() []string {
	seen := make(map[string]bool)
	for sec := range s.bySection {
		seen[sec] = true
	}
	out := make([]string, 0, len(seen))
	for sec := range seen {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value for a global config key by checking,
// in order: (1) the environment variable declared in the schema for this key,
// (2) the config value, (3) the schema default. Returns "" if the key is not
// found anywhere.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	// Check env var override from schema.
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	// Check config value.
	v, ok := c.GetGlobalOption(key)
	if ok {
		return v
	}
	// Fall back to schema default.
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ResolveCommand returns the effective value of key for a command: the
// command section's own value if set, otherwise the global option fallback
// resolved as by [ConfigSchema.Resolve], otherwise the section default.
func (s *ConfigSchema) ResolveCommand(c *Config, section, key, fallback string) string {
	if opts, ok := c.Commands[section]; ok {
		if v, ok := opts[key]; ok {
			return v
		}
	}
	if fallback != "" {
		if v := s.Resolve(c, fallback); v != "" {
			return v
		}
	}
	if opt := s.Lookup(section, key); opt != nil {
		return opt.Default
	}
	return ""
}

// ValidateConfig checks a loaded Config against the schema and returns a list
// of human-readable issues (empty if the config is valid). Validation includes:
//   - Unknown global options (not in schema)
//   - Unknown command options (not in schema for that section, and not global)
//   - Type mismatches for options with declared types
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	// Validate global options.
	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateOption(opt, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	// Validate command-section options.
	for section, opts := range c.Commands {
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
				continue
			}
			// Find the option definition (section-specific or global fallback).
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if opt != nil {
				if err := validateOption(opt, value); err != nil {
					issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// ValidateValue checks value against the option registered for key in
// section ("" for global).
func (s *ConfigSchema) ValidateValue(section, key, value string) error {
	opt := s.Lookup(section, key)
	if opt == nil && section != "" {
		opt = s.Lookup("", key)
	}
	if opt == nil {
		return fmt.Errorf("unknown option %q", key)
	}
	return validateOption(opt, value)
}

func validateOption(opt *ConfigOption, value string) error {
	if opt.Type == TypeEnum {
		if !slices.Contains(opt.Values, value) {
			return fmt.Errorf("expected one of %s, got %q", strings.Join(opt.Values, ", "), value)
		}
		return nil
	}
	return validateType(opt.Type, value)
}

// validateType checks that a string value matches the expected OptionType.
func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		// Anything is valid for string.
		return nil
	case TypeBool:
		if _, err := ParseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// --- Typed resolution ---

// resolveValid resolves key as [ConfigSchema.ResolveCommand] does (or as
// [ConfigSchema.Resolve] when section is "") and checks the result against the
// option's declared type.
func (s *ConfigSchema) resolveValid(c *Config, section, key, fallback string) (string, error) {
	name := key
	var value string
	if section == "" {
		value = s.Resolve(c, key)
	} else {
		name = section + "." + key
		value = s.ResolveCommand(c, section, key, fallback)
	}
	if err := s.ValidateValue(section, key, value); err != nil {
		return "", fmt.Errorf("option %s: %w", name, err)
	}
	return value, nil
}

// ResolveString resolves a string or enum option, rejecting values outside an
// enum's declared set.
func (s *ConfigSchema) ResolveString(c *Config, section, key, fallback string) (string, error) {
	return s.resolveValid(c, section, key, fallback)
}

// ResolveBool resolves a bool option.
func (s *ConfigSchema) ResolveBool(c *Config, section, key, fallback string) (bool, error) {
	v, err := s.resolveValid(c, section, key, fallback)
	if err != nil {
		return false, err
	}
	return ParseBool(v)
}

// ResolveInt resolves an int option.
func (s *ConfigSchema) ResolveInt(c *Config, section, key, fallback string) (int, error) {
	v, err := s.resolveValid(c, section, key, fallback)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

// ResolveDuration resolves a duration option.
func (s *ConfigSchema) ResolveDuration(c *Config, section, key, fallback string) (time.Duration, error) {
	v, err := s.resolveValid(c, section, key, fallback)
	if err != nil {
		return 0, err
	}
	return time.ParseDuration(v)
}

// --- Help text generation ---

// FormatHelp returns a formatted, human-readable reference of all registered
// options in the schema, grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	// Global options first.
	globals := s.GlobalOptions()
	if len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	// Section options.
	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n[%s] Options:\n", sec))
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	b.WriteString(fmt.Sprintf("  %-35s %s", o.Key, o.Description))
	parts := make([]string, 0, 3)
	switch o.Type {
	case "", TypeString:
	case TypeEnum:
		parts = append(parts, fmt.Sprintf("one of: %s", strings.Join(o.Values, "|")))
	default:
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %s", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		b.WriteString(fmt.Sprintf(" (%s)", strings.Join(parts, ", ")))
	}
	b.WriteString("\n")
}

// --- Default schema for grain ---

// DefaultSchema returns the canonical schema declaring all known grain
// configuration options. This is the single source of truth for option names,
// types, defaults, descriptions, and environment variable overrides.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll(defaultGlobalOptions())
	s.RegisterAll(defaultCommandOptions())
	return s
}

func defaultGlobalOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "color", Type: TypeEnum, Default: "auto", Values: []string{"auto", "always", "never"}, Description: "Color mode for diagnostic reports", EnvVar: "GRAIN_COLOR"},

		// Logging options
		{Key: "log.file", Type: TypeString, Default: "", Description: "Log file path (JSON output)", EnvVar: "GRAIN_LOG_FILE"},
		{Key: "log.level", Type: TypeEnum, Default: "info", Values: []string{"debug", "info", "warn", "error"}, Description: "Log level", EnvVar: "GRAIN_LOG_LEVEL"},
		{Key: "log.buffer-size", Type: TypeInt, Default: "1000", Description: "In-memory log buffer size (entries)"},

		// Page options
		{Key: "page.timeout", Type: TypeDuration, Default: "5s", Description: "Bound on each event loop round trip", EnvVar: "GRAIN_PAGE_TIMEOUT"},
		{Key: "page.strict", Type: TypeBool, Default: "false", Description: "Treat unresolved definitions and mixins as failures"},
	}
}

func defaultCommandOptions() []ConfigOption {
	return []ConfigOption{
		// [run] section
		{Key: "timeout", Section: "run", Type: TypeDuration, Default: "", Description: "Overrides page.timeout for run"},
		{Key: "strict", Section: "run", Type: TypeBool, Default: "", Description: "Overrides page.strict for run"},
		{Key: "ready", Section: "run", Type: TypeEnum, Default: "auto", Values: []string{"auto", "manual"}, Description: "Readiness mode for bare script runs"},
	}
}
