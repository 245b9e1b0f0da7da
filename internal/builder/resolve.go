package builder

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/qobs-build/qobsgen/internal/model"
	"github.com/qobs-build/qobsgen/internal/paths"
)

var (
	ErrNoWorkspaceName   = errors.New("workspace has no name ([workspace] name is empty)")
	ErrNoProjects        = errors.New("workspace declares no [[project]]")
	ErrUnknownRule       = errors.New("unknown rule")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrDuplicateProject  = errors.New("duplicate project name")
	ErrUnknownKind       = errors.New("unknown project kind")
	ErrNotLinkable       = errors.New("cannot link against project")
)

// ResolveOptions controls how a manifest becomes a workspace model.
type ResolveOptions struct {
	// Dir is the directory holding the manifest and the default workspace
	// location.
	Dir string
	// System overrides the target system of every configuration.
	System string
}

// pending carries a project between the two resolution passes.
type pending struct {
	prj     *model.Project
	section ProjectSection
	raw     map[string]any
}

// Resolve evaluates every project table once per configuration and links the
// projects together.
func (m *Manifest) Resolve(opts ResolveOptions) (*model.Workspace, error) {
	dir := paths.ToSlash(opts.Dir)
	location := dir
	if m.Workspace.Location != "" {
		var err error
		if location, err = resolvePath(dir, m.Workspace.Location); err != nil {
			return nil, fmt.Errorf("workspace location: %w", err)
		}
	}

	wks := &model.Workspace{
		Name:           m.Workspace.Name,
		Location:       paths.ToSlash(location),
		Configurations: m.Workspace.Configurations,
		Rules:          m.rules(),
	}

	var projects []*pending
	for i, raw := range m.projects {
		p, err := m.declareProject(wks, dir, raw)
		if err != nil {
			return nil, fmt.Errorf("project #%d: %w", i+1, err)
		}
		if wks.Project(p.prj.Name) != nil {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateProject, p.prj.Name)
		}
		wks.Projects = append(wks.Projects, p.prj)
		projects = append(projects, p)
	}

	// links and dependencies may name any project, so they need every
	// project declared first
	for _, p := range projects {
		if err := p.configure(wks, opts.System); err != nil {
			return nil, fmt.Errorf("project %q: %w", p.prj.Name, err)
		}
	}
	// a project's kind may come from its settings, so links are checked once
	// every project is configured
	if err := checkLinks(wks); err != nil {
		return nil, err
	}
	return wks, nil
}

// checkLinks rejects links to projects that produce something other than a
// library. Kindless projects are header-only and may be linked.
func checkLinks(wks *model.Workspace) error {
	for _, prj := range wks.Projects {
		for _, cfg := range prj.Configs {
			for _, dep := range cfg.ProjectLinks() {
				kind := dep.ResolvedKind()
				if kind != model.KindUnset && !kind.IsLibrary() {
					return fmt.Errorf("project %q, configuration %q: %w: %q is a %s project",
						prj.Name, cfg.Name, ErrNotLinkable, dep.Name, kind)
				}
			}
		}
	}
	return nil
}

func (m *Manifest) rules() model.RuleSet {
	var rs model.RuleSet
	for _, r := range m.Rules {
		rule := &model.Rule{
			Name:  r.Name,
			Match: r.Match,
			Step: model.BuildStep{
				Message:  r.Message,
				Commands: r.Commands,
				Inputs:   r.Inputs,
				Outputs:  r.Outputs,
			},
		}
		for _, name := range slices.Sorted(maps.Keys(r.Properties)) {
			rule.Properties = append(rule.Properties, model.RuleProperty{Name: name, Default: r.Properties[name]})
		}
		rs = append(rs, rule)
	}
	return rs
}

func (m *Manifest) declareProject(wks *model.Workspace, dir string, raw map[string]any) (*pending, error) {
	var section ProjectSection
	if err := toml.Unmarshal(mustMarshal(raw), &section); err != nil {
		return nil, fmt.Errorf("failed to parse [[project]] section: %w", err)
	}
	if section.Name == "" {
		return nil, errors.New("project has no name")
	}

	kind := model.Kind(section.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, section.Kind)
	}

	basedir := paths.Join(dir, section.BaseDir)
	location := basedir
	if section.Location != "" {
		location = paths.Join(dir, section.Location)
	}

	prj := &model.Project{
		Name:            section.Name,
		Kind:            kind,
		BaseDir:         basedir,
		Location:        location,
		TargetExtension: section.TargetExtension,
		Workspace:       wks,
		Files:           model.NewSourceTree(basedir),
	}

	files, err := collectFiles(basedir, section.Files)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", section.Name, err)
	}
	for _, f := range files {
		prj.Files.Add(f)
	}

	for _, name := range section.Rules {
		rule := wks.Rules.Lookup(name)
		if rule == nil {
			return nil, fmt.Errorf("project %q: %w %q", section.Name, ErrUnknownRule, name)
		}
		prj.Rules = append(prj.Rules, rule)
	}

	return &pending{prj: prj, section: section, raw: raw}, nil
}

// collectFiles expands the glob patterns of a project against basedir.
// Absolute patterns are taken as they are.
func collectFiles(basedir string, patterns []string) ([]string, error) {
	fsys := os.DirFS(basedir)
	var files []string
	for _, pat := range patterns {
		if paths.IsAbs(pat) {
			files = append(files, paths.Join(basedir, pat))
			continue
		}
		matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad files pattern %q: %w", pat, err)
		}
		for _, match := range matches {
			files = append(files, path.Join(basedir, match))
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func (p *pending) configure(wks *model.Workspace, system string) error {
	prj := p.prj
	for _, name := range p.section.DependsOn {
		dep := wks.Project(name)
		if dep == nil {
			return fmt.Errorf("%w %q", ErrUnknownDependency, name)
		}
		prj.Dependencies = appendUnique(prj.Dependencies, dep)
	}

	for _, name := range wks.Configurations {
		env := NewConfigEnv(name, system)
		cfg, err := p.config(wks, env)
		if err != nil {
			return fmt.Errorf("configuration %q: %w", name, err)
		}
		prj.Configs = append(prj.Configs, cfg)
		for _, dep := range cfg.ProjectLinks() {
			prj.Dependencies = appendUnique(prj.Dependencies, dep)
		}
	}
	return nil
}

// resolvePath makes p absolute against base after expanding a leading "~".
func resolvePath(base, p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("path %q: %w", p, err)
	}
	return paths.Join(base, expanded), nil
}

func appendUnique(list []*model.Project, prj *model.Project) []*model.Project {
	if slices.Contains(list, prj) {
		return list
	}
	return append(list, prj)
}

func (p *pending) config(wks *model.Workspace, env ConfigEnv) (*model.Config, error) {
	prj := p.prj
	processed, err := processExpressions(cloneTable(p.raw), env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions: %w", err)
	}
	raw := processed.(map[string]any)

	var s SettingsSection
	if err := unmarshalConditionalSection(raw, "settings", &s, env); err != nil {
		return nil, err
	}

	kind := model.Kind(s.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, s.Kind)
	}

	var pathErr error
	abs := func(ps []string) []string {
		if len(ps) == 0 {
			return nil
		}
		out := make([]string, len(ps))
		for i, v := range ps {
			r, err := resolvePath(prj.BaseDir, v)
			if err != nil && pathErr == nil {
				pathErr = err
			}
			out[i] = r
		}
		return out
	}

	cfg := &model.Config{
		Project:        prj,
		Name:           env.Configuration,
		System:         env.System,
		Toolset:        s.Toolset,
		Kind:           kind,
		TargetDir:      prj.Location,
		TargetName:     s.TargetName,
		IncludeDirs:    abs(s.IncludeDirs),
		SysIncludeDirs: abs(s.SysIncludeDirs),
		LibDirs:        abs(s.LibDirs),
		ForceIncludes:  abs(s.ForceIncludes),
		Defines:        s.Defines,
		BuildOptions:   s.BuildOptions,
		LinkOptions:    s.LinkOptions,
		PIC:            s.PIC,
		LTO:            s.LTO,
		LinkGroups:     s.LinkGroups,
		NoPCH:          s.NoPCH,
		CppDialect:     s.CppDialect,
		PCHHeader:      s.PCHHeader,

		PreBuildMessage:   s.PreBuildMessage,
		PreBuildCommands:  s.PreBuildCommands,
		PostBuildMessage:  s.PostBuildMessage,
		PostBuildCommands: s.PostBuildCommands,
		Build: model.BuildStep{
			Message:  s.BuildMessage,
			Commands: s.BuildCommands,
			Inputs:   s.BuildInputs,
			Outputs:  s.BuildOutputs,
		},
		Properties: s.Properties,
		Settings:   s.settings(),
	}
	if s.TargetDir != "" {
		cfg.TargetDir, err = resolvePath(prj.BaseDir, s.TargetDir)
		if err != nil {
			return nil, err
		}
	}
	if pathErr != nil {
		return nil, pathErr
	}

	for _, link := range s.Links {
		if dep := wks.Project(link); dep != nil && dep != prj {
			cfg.Links = append(cfg.Links, model.Link{Project: dep})
		} else {
			cfg.Links = append(cfg.Links, model.Link{System: link})
		}
	}

	if err := p.fileConfigs(raw, cfg, env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfigs attaches the [project.file."<glob>"] sections to every matching
// file. Several globs matching the same file are merged in key order.
func (p *pending) fileConfigs(raw map[string]any, cfg *model.Config, env ConfigEnv) error {
	section, ok := raw["file"]
	if !ok {
		return nil
	}
	globs, ok := section.(map[string]any)
	if !ok {
		return errors.New("invalid [project.file] section format: expected a table")
	}

	merged := make(map[*model.Node]*FileSection)
	leaves := p.prj.Files.Leaves()
	for _, glob := range slices.Sorted(maps.Keys(globs)) {
		if !doublestar.ValidatePattern(glob) {
			return fmt.Errorf("bad file pattern %q", glob)
		}
		var fs FileSection
		if err := unmarshalConditionalSection(globs, glob, &fs, env); err != nil {
			return err
		}
		for _, node := range leaves {
			rel := paths.Slash.Rel(p.prj.BaseDir, node.Path)
			if ok, _ := doublestar.Match(glob, rel); !ok {
				continue
			}
			dst, ok := merged[node]
			if !ok {
				dst = new(FileSection)
				merged[node] = dst
			}
			if err := mergeStructs(dst, fs); err != nil {
				return err
			}
		}
	}

	for node, fs := range merged {
		node.SetConfig(cfg.Name, fs.fileConfig())
	}
	return nil
}
