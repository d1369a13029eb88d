package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/joeycumines/grain/internal/config"
	"github.com/joeycumines/grain/internal/manifest"
	"github.com/joeycumines/grain/internal/report"
	"github.com/joeycumines/grain/internal/scripting"
)

// ErrRunFailed is returned by run when a script failed to load, a payload
// failed, or readiness left failures behind.
var ErrRunFailed = errors.New("run failed")

// RunCommand loads a page and reports how its modules resolved.
type RunCommand struct {
	*BaseCommand
	config *config.Config
	schema *config.ConfigSchema

	logLevel   string
	logFile    string
	timeout    time.Duration
	strict     bool
	noColor    bool
	ready      string
	showLogs   bool
	logsMatch  string
	bufferSize int

	// flags is the set configured by SetupFlags; configErrs holds configured
	// values that failed validation, keyed by the flag that overrides them.
	flags      *flag.FlagSet
	configErrs map[string]error
}

// NewRunCommand creates a new run command. Flag defaults come from cfg.
func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Load page scripts, dispatch readiness and report unresolved operations",
			"run [options] <manifest.yaml | script.js...>",
		),
		config:     cfg,
		schema:     config.DefaultSchema(),
		logLevel:   "info",
		timeout:    scripting.DefaultSyncTimeout,
		ready:      string(manifest.ReadyAuto),
		bufferSize: 1000,
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	c.flags = fs
	c.configErrs = make(map[string]error)

	if v, err := c.schema.ResolveString(c.config, "", "log.level", ""); c.check("log-level", err) {
		c.logLevel = v
	}
	if v, err := c.schema.ResolveString(c.config, "", "log.file", ""); c.check("log-file", err) {
		c.logFile = v
	}
	if v, err := c.schema.ResolveDuration(c.config, c.Name(), "timeout", "page.timeout"); c.check("timeout", err) {
		c.timeout = v
	}
	if v, err := c.schema.ResolveBool(c.config, c.Name(), "strict", "page.strict"); c.check("strict", err) {
		c.strict = v
	}
	if v, err := c.schema.ResolveString(c.config, c.Name(), "ready", ""); c.check("ready", err) {
		c.ready = v
	}
	if v, err := c.schema.ResolveInt(c.config, "", "log.buffer-size", ""); c.check("log.buffer-size", err) {
		if v <= 0 {
			c.configErrs["log.buffer-size"] = fmt.Errorf("option log.buffer-size: must be positive, got %d", v)
		} else {
			c.bufferSize = v
		}
	}

	fs.StringVar(&c.logLevel, "log-level", c.logLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&c.logFile, "log-file", c.logFile, "Append JSON logs to this file")
	fs.DurationVar(&c.timeout, "timeout", c.timeout, "Bound on each event loop round trip (0 disables)")
	fs.BoolVar(&c.strict, "strict", c.strict, "Also fail on unresolved definitions and mixins")
	fs.BoolVar(&c.noColor, "no-color", false, "Disable colored output")
	fs.StringVar(&c.ready, "ready", c.ready, "Readiness for bare scripts: auto or manual")
	fs.BoolVar(&c.showLogs, "logs", false, "Print retained log records to stderr after the report")
	fs.StringVar(&c.logsMatch, "logs-match", "", "Only print retained log records containing this text (implies -logs)")
}

func (c *RunCommand) check(name string, err error) bool {
	if err != nil {
		c.configErrs[name] = err
		return false
	}
	return true
}

// configError joins the configuration errors not overridden on the command
// line.
func (c *RunCommand) configError() error {
	set := make(map[string]bool)
	if c.flags != nil {
		c.flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	}
	names := make([]string, 0, len(c.configErrs))
	for name := range c.configErrs {
		if !set[name] {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	errs := make([]error, len(names))
	for i, name := range names {
		errs[i] = c.configErrs[name]
	}
	return errors.Join(errs...)
}

// Execute runs the page.
func (c *RunCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := c.configError(); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return err
	}

	m, err := c.manifest(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return err
	}

	level, err := scripting.ParseLogLevel(c.logLevel)
	if err != nil {
		return err
	}
	var next slog.Handler
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		next = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	}
	logs := scripting.NewLogBuffer(level, c.bufferSize, next)

	mode := report.ColorNever
	if !c.noColor {
		color, err := c.schema.ResolveString(c.config, "", "color", "")
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
			return err
		}
		if mode, err = report.ParseColorMode(color); err != nil {
			return err
		}
	}

	page, err := scripting.NewPage(ctx,
		scripting.WithLogger(slog.New(logs)),
		scripting.WithTitle(m.Title),
		scripting.WithTimeout(c.timeout),
	)
	if err != nil {
		return err
	}
	defer page.Close()

	// Like a browser, one failing script does not stop the rest loading.
	var failures []error
	for _, s := range m.Scripts {
		if s.Code != "" {
			err = page.LoadScript(s.Label(), s.Code)
		} else {
			err = page.LoadFile(m.Path(s))
		}
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "%s: %v\n", s.Label(), err)
			failures = append(failures, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if m.Ready == manifest.ReadyAuto {
		if err := page.Ready(); err != nil {
			_, _ = fmt.Fprintf(stderr, "ready: %v\n", err)
			failures = append(failures, err)
		}
	}

	snapshot, err := page.Snapshot()
	if err != nil {
		return errors.Join(append(failures, err)...)
	}

	name := m.Title
	if name == "" {
		name = page.ID()
	}
	summary := report.Summary{
		Page:        name,
		Ready:       snapshot.Ready,
		Modules:     len(snapshot.Modules),
		Buffered:    snapshot.Buffered,
		Pending:     snapshot.Pending(),
		Diagnostics: snapshot.Diagnostics,
		Strict:      c.strict,
	}
	if err := report.NewPrinter(stdout, mode).Print(summary); err != nil {
		return err
	}
	if c.showLogs || c.logsMatch != "" {
		for _, entry := range logs.Search(c.logsMatch) {
			_, _ = fmt.Fprintln(stderr, entry)
		}
	}

	if len(failures) != 0 || summary.Failed() {
		return fmt.Errorf("%w: %s", ErrRunFailed, name)
	}
	return nil
}

func (c *RunCommand) manifest(args []string) (*manifest.Manifest, error) {
	if len(args) == 0 {
		return nil, errors.New("run: no manifest or scripts given")
	}
	if manifest.IsManifest(args[0]) {
		if len(args) > 1 {
			return nil, fmt.Errorf("run: unexpected arguments after manifest: %v", args[1:])
		}
		return manifest.Load(args[0])
	}
	if err := c.schema.ValidateValue(c.Name(), "ready", c.ready); err != nil {
		return nil, fmt.Errorf("run: -ready: %w", err)
	}
	m := manifest.FromScripts(args...)
	m.Ready = manifest.ReadyMode(c.ready)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
