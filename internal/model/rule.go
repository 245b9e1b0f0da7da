package model

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/qobs-build/qobsgen/internal/expand"
	"github.com/qobs-build/qobsgen/internal/paths"
)

// RuleProperty is a property a rule declares, with its default value.
type RuleProperty struct {
	Name    string
	Default string
}

// Rule builds files matching one of its patterns. Its build step fields are
// templates expanded against an Environ.
type Rule struct {
	Name string
	// Match holds doublestar patterns. A pattern without a slash is matched
	// against the file name, otherwise against the project-relative path.
	Match      []string
	Step       BuildStep
	Properties []RuleProperty
}

// Matches reports whether the file is handled by this rule.
func (r *Rule) Matches(relpath string) bool {
	name := path.Base(relpath)
	for _, pat := range r.Match {
		subject := name
		if strings.Contains(pat, "/") {
			subject = relpath
		}
		if ok, err := doublestar.Match(pat, subject); err == nil && ok {
			return true
		}
	}
	return false
}

// Environ is the variable environment rule templates are evaluated against.
type Environ map[string]any

// Environ builds the environment for applying the rule to node in cfg. Every
// declared property takes its default, then the configuration's value, then
// the file's value.
func (r *Rule) Environ(node *Node, cfg *Config) Environ {
	prj := cfg.Project
	fc := node.Config(cfg)

	props := make(map[string]any, len(r.Properties))
	for _, prop := range r.Properties {
		v := prop.Default
		if cv, ok := cfg.Properties[prop.Name]; ok {
			v = cv
		}
		if fc != nil {
			if fv, ok := fc.Properties[prop.Name]; ok {
				v = fv
			}
		}
		props[prop.Name] = v
	}

	// commands run in the project location
	relpath := paths.Slash.Rel(prj.Location, node.Path)
	ext := path.Ext(node.Name)
	return Environ{
		"file": map[string]any{
			"name":      node.Name,
			"basename":  strings.TrimSuffix(node.Name, ext),
			"extension": ext,
			"relpath":   relpath,
			"abspath":   node.Path,
			"directory": path.Dir(relpath),
		},
		"cfg": map[string]any{
			"name":      cfg.Name,
			"system":    cfg.System,
			"targetdir": cfg.TargetDir,
		},
		"prj": map[string]any{
			"name":     prj.Name,
			"location": prj.Location,
			"basedir":  prj.BaseDir,
		},
		"props": props,
	}
}

// Apply expands the rule's templates against env.
func (r *Rule) Apply(env Environ) (BuildStep, error) {
	var (
		step BuildStep
		err  error
	)
	if step.Message, err = expand.String(r.Step.Message, map[string]any(env)); err != nil {
		return BuildStep{}, fmt.Errorf("rule %q: message: %w", r.Name, err)
	}
	if step.Commands, err = expand.Strings(r.Step.Commands, map[string]any(env)); err != nil {
		return BuildStep{}, fmt.Errorf("rule %q: commands: %w", r.Name, err)
	}
	if step.Inputs, err = expand.Strings(r.Step.Inputs, map[string]any(env)); err != nil {
		return BuildStep{}, fmt.Errorf("rule %q: inputs: %w", r.Name, err)
	}
	if step.Outputs, err = expand.Strings(r.Step.Outputs, map[string]any(env)); err != nil {
		return BuildStep{}, fmt.Errorf("rule %q: outputs: %w", r.Name, err)
	}
	return step, nil
}

// RuleSet is an ordered collection of rules.
type RuleSet []*Rule

// ForFile returns the first rule matching relpath, or nil.
func (rs RuleSet) ForFile(relpath string) *Rule {
	for _, r := range rs {
		if r.Matches(relpath) {
			return r
		}
	}
	return nil
}

// Lookup returns the rule called name, or nil.
func (rs RuleSet) Lookup(name string) *Rule {
	for _, r := range rs {
		if r.Name == name {
			return r
		}
	}
	return nil
}
