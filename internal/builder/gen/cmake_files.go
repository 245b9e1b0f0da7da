package gen

import "github.com/qobs-build/qobsgen/internal/model"

// files writes the flattened source list of the target. A file built by a
// custom step is replaced by the step's outputs.
func (e *projectEmitter) files() error {
	for _, node := range e.prj.Files.Leaves() {
		outputs, err := e.generatedOutputs(node)
		if err != nil {
			return err
		}
		if len(outputs) == 0 {
			e.w.writeln(1, quote(e.rel(node.Path)))
			continue
		}
		for _, out := range outputs {
			e.w.writeln(1, quote(e.rel(out)))
		}
	}
	return nil
}

// generatedOutputs returns the outputs of the first configuration that builds
// node with explicit settings or a rule. A file is assumed to produce the
// same outputs in every configuration.
func (e *projectEmitter) generatedOutputs(node *model.Node) ([]string, error) {
	for _, cfg := range e.prj.Configs {
		res, err := resolveStep(node, cfg)
		if err != nil {
			return nil, err
		}
		if res.source != stepNone {
			return res.step.Outputs, nil
		}
	}
	return nil, nil
}
