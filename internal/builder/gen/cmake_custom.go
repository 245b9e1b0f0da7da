package gen

import (
	"fmt"

	"github.com/qobs-build/qobsgen/internal/model"
	"github.com/qobs-build/qobsgen/internal/paths"
)

type stepSource int

const (
	stepNone     stepSource = iota
	stepExplicit            // the file configuration's own settings
	stepRule                // a matching rule applied to the file
)

type resolvedStep struct {
	source stepSource
	step   model.BuildStep
	rule   *model.Rule
}

// resolveStep decides how node is built in cfg. Explicit file settings take
// precedence over a matching rule; the rule is not applied in that case.
func resolveStep(node *model.Node, cfg *model.Config) (resolvedStep, error) {
	fc := node.Config(cfg)
	if fc.HasSettings() {
		return resolvedStep{source: stepExplicit, step: fc.BuildStep}, nil
	}

	prj := cfg.Project
	rule := prj.Rules.ForFile(paths.Slash.Rel(prj.BaseDir, node.Path))
	if rule == nil {
		return resolvedStep{}, nil
	}
	step, err := rule.Apply(rule.Environ(node, cfg))
	if err != nil {
		return resolvedStep{}, fmt.Errorf("file %s: %w", node.Path, err)
	}
	return resolvedStep{source: stepRule, step: step, rule: rule}, nil
}

// customCommands writes the custom step of every file, then the
// configuration's own step.
func (e *projectEmitter) customCommands(cfg *model.Config) error {
	for _, node := range e.prj.Files.Leaves() {
		res, err := resolveStep(node, cfg)
		if err != nil {
			return err
		}
		if res.source == stepNone {
			continue
		}
		e.customCommand(cfg, res.step, node.Path)
	}
	e.customCommand(cfg, cfg.Build, "")
	return nil
}

// customCommand writes step as an add_custom_command. source, when set, is
// the file the step depends on. Outputs and inputs are rooted in the source
// tree since relative ones would resolve against the binary directory.
func (e *projectEmitter) customCommand(cfg *model.Config, step model.BuildStep, source string) {
	if step.Empty() {
		return
	}

	tr := e.translator(cfg)
	e.w.writeln(1, "add_custom_command(OUTPUT ", quoteAll(e.sourcePaths(step.Outputs)))
	if step.Message != "" {
		e.w.writeln(2, "COMMAND ", escape(tr.Echo(step.Message)))
	}
	for _, cmd := range tr.Commands(step.Commands) {
		e.w.writeln(2, "COMMAND ", escape(cmd))
	}

	var depends []string
	if source != "" {
		depends = append(depends, e.sourcePath(source))
	}
	depends = append(depends, e.sourcePaths(step.Inputs)...)
	if len(depends) > 0 {
		e.w.writeln(2, "DEPENDS ", quoteAll(depends))
	}
	e.w.writeln(2, "WORKING_DIRECTORY ", e.workingDir())
	e.w.writeln(1, ")")
}
