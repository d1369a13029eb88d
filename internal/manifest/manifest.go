// Package manifest describes a page: its title, the scripts it loads (in
// <script> order) and how its readiness signal is dispatched.
//
//	title: Dashboard
//	ready: auto
//	scripts:
//	  - lib/model.js
//	  - name: boot
//	    code: |
//	      Grain(['app/view'], function (view) { view.render(); });
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadyMode selects who dispatches DOMContentLoaded.
type ReadyMode string

const (
	// ReadyAuto dispatches readiness once every script has loaded.
	ReadyAuto ReadyMode = "auto"
	// ReadyManual never dispatches readiness; requires stay buffered.
	ReadyManual ReadyMode = "manual"
)

// Script is one page script. In YAML it is either a path, or a mapping with
// exactly one of src and code.
type Script struct {
	Name string `yaml:"name,omitempty"`
	Src  string `yaml:"src,omitempty"`
	Code string `yaml:"code,omitempty"`
}

// UnmarshalYAML accepts the scalar shorthand for {src: path}.
func (s *Script) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var src string
		if err := node.Decode(&src); err != nil {
			return err
		}
		*s = Script{Src: src}
		return nil
	}
	type plain Script
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Script(p)
	return nil
}

// Label names the script in logs and stack traces.
func (s Script) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Src != "":
		return s.Src
	default:
		return "inline"
	}
}

// Manifest is a parsed page description.
type Manifest struct {
	Title   string    `yaml:"title,omitempty"`
	Ready   ReadyMode `yaml:"ready,omitempty"`
	Scripts []Script  `yaml:"scripts"`

	// Dir is the directory relative script paths resolve against.
	Dir string `yaml:"-"`
}

// Parse decodes and validates a manifest. Relative script paths are resolved
// against dir.
func Parse(data []byte, dir string) (*Manifest, error) {
	m, err := parse(data, dir)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return m, nil
}

func parse(data []byte, dir string) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("payload is empty")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	m.Dir = dir
	if m.Ready == "" {
		m.Ready = ReadyAuto
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return m, nil
}

// FromScripts builds an automatic-readiness manifest loading paths in order.
func FromScripts(paths ...string) *Manifest {
	m := &Manifest{Ready: ReadyAuto}
	for _, p := range paths {
		m.Scripts = append(m.Scripts, Script{Src: p})
	}
	return m
}

// Validate reports structural problems.
func (m *Manifest) Validate() error {
	if err := m.validate(); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

func (m *Manifest) validate() error {
	switch m.Ready {
	case ReadyAuto, ReadyManual:
	default:
		return fmt.Errorf("ready must be %q or %q, got %q", ReadyAuto, ReadyManual, m.Ready)
	}
	if len(m.Scripts) == 0 {
		return errors.New("no scripts")
	}
	for i, s := range m.Scripts {
		hasSrc := strings.TrimSpace(s.Src) != ""
		hasCode := strings.TrimSpace(s.Code) != ""
		if hasSrc == hasCode {
			return fmt.Errorf("script %d (%s): exactly one of src and code is required", i, s.Label())
		}
	}
	return nil
}

// Path resolves a script's src against the manifest directory.
func (m *Manifest) Path(s Script) string {
	if s.Src == "" || filepath.IsAbs(s.Src) || m.Dir == "" {
		return s.Src
	}
	return filepath.Join(m.Dir, s.Src)
}

// IsManifest reports whether path names a YAML manifest rather than a script.
func IsManifest(path string) bool {
	lower := strings.ToLower(strings.TrimSpace(path))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
