// Package driver configures a type-checking session from a session.yml
// manifest: which native extensions to preload, how strictly to treat
// deprecated names, and any session-local name remappings.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tempo/compiler-go/pkg/dl"
	"tempo/compiler-go/pkg/typecheck"
)

// Manifest represents the parsed contents of session.yml.
type Manifest struct {
	Path         string
	Name         string
	Deprecations DeprecationPolicy
	Extensions   []string
	Remap        map[string]string
	Reserve      []string
}

// DeprecationPolicy selects how the checker treats retired names.
type DeprecationPolicy string

const (
	DeprecationStop   DeprecationPolicy = "stop"
	DeprecationWarn   DeprecationPolicy = "warn"
	DeprecationIgnore DeprecationPolicy = "ignore"
)

// IsValid reports whether the policy is recognised.
func (p DeprecationPolicy) IsValid() bool {
	switch p {
	case DeprecationStop, DeprecationWarn, DeprecationIgnore:
		return true
	default:
		return false
	}
}

// Level translates the policy into the checker's setting.
func (p DeprecationPolicy) Level() int {
	switch p {
	case DeprecationStop:
		return typecheck.DeprecateStop
	case DeprecationIgnore:
		return typecheck.DeprecateIgnore
	default:
		return typecheck.DeprecateWarn
	}
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses session.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	m, err := ParseManifest(file)
	if err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}
	m.Path = absPath
	return m, nil
}

// ParseManifest decodes and validates manifest content from r.
func ParseManifest(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest is empty")
		}
		return nil, err
	}

	m := raw.toManifest()
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Deprecations != "" && !m.Deprecations.IsValid() {
		errs.Issues = append(errs.Issues, fmt.Sprintf("deprecations must be stop, warn, or ignore (got %q)", m.Deprecations))
	}
	seen := make(map[string]struct{}, len(m.Extensions))
	for i, ext := range m.Extensions {
		if ext == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("extensions[%d] must be a non-empty string", i))
			continue
		}
		if _, dup := seen[ext]; dup {
			errs.Issues = append(errs.Issues, fmt.Sprintf("extension %q listed twice", ext))
		}
		seen[ext] = struct{}{}
	}
	for former, latter := range m.Remap {
		if latter == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("remap.%s must name a replacement", former))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// Apply configures env from the manifest: deprecation strictness, name
// remappings, extra reserved words, and every listed extension, preloaded
// from the process registry.
func (m *Manifest) Apply(env *typecheck.Env) error {
	if env == nil {
		return fmt.Errorf("manifest: apply requires an environment")
	}
	if m.Deprecations != "" {
		env.DeprecateLevel = m.Deprecations.Level()
	}
	for former, latter := range m.Remap {
		env.RegisterDeprecate(former, latter)
	}
	for _, name := range m.Reserve {
		env.EnableReserved(name, true)
	}
	for _, name := range m.Extensions {
		ext, ok := dl.Lookup(name)
		if !ok {
			return fmt.Errorf("manifest: extension %q is not registered (have: %s)", name, strings.Join(dl.Names(), ", "))
		}
		if err := env.AddDL(ext); err != nil {
			return fmt.Errorf("manifest: extension %q: %w", name, err)
		}
	}
	return nil
}

type manifestFile struct {
	Name         string            `yaml:"name"`
	Deprecations string            `yaml:"deprecations"`
	Extensions   stringList        `yaml:"extensions"`
	Remap        map[string]string `yaml:"remap"`
	Reserve      stringList        `yaml:"reserve"`
}

func (mf manifestFile) toManifest() *Manifest {
	remap := make(map[string]string, len(mf.Remap))
	for former, latter := range mf.Remap {
		former = strings.TrimSpace(former)
		if former == "" {
			continue
		}
		remap[former] = strings.TrimSpace(latter)
	}
	return &Manifest{
		Name:         strings.TrimSpace(mf.Name),
		Deprecations: DeprecationPolicy(strings.TrimSpace(mf.Deprecations)),
		Extensions:   mf.Extensions.Clone(),
		Remap:        remap,
		Reserve:      mf.Reserve.Clone(),
	}
}

type stringList []string

func (l stringList) Clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, str)
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("expected string or sequence for list but found %s", value.ShortTag())
	}
}
