// Package model holds the resolved, read-only description of a workspace that
// the generators consume.
package model

// Kind is the artifact a project produces.
type Kind string

const (
	KindUnset       Kind = ""
	KindStaticLib   Kind = "StaticLib"
	KindSharedLib   Kind = "SharedLib"
	KindConsoleApp  Kind = "ConsoleApp"
	KindWindowedApp Kind = "WindowedApp"
	KindUtility     Kind = "Utility"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUnset, KindStaticLib, KindSharedLib, KindConsoleApp, KindWindowedApp, KindUtility:
		return true
	}
	return false
}

// IsLibrary reports whether k produces something other projects can link against.
func (k Kind) IsLibrary() bool {
	return k == KindStaticLib || k == KindSharedLib
}

// Workspace groups the projects that are generated together.
type Workspace struct {
	Name string
	// Location is the absolute directory the workspace script is written to.
	// Every project-relative path in the output is relative to it.
	Location       string
	Configurations []string
	Projects       []*Project
	Rules          RuleSet
}

// Project returns the project called name, or nil.
func (w *Workspace) Project(name string) *Project {
	for _, prj := range w.Projects {
		if prj.Name == name {
			return prj
		}
	}
	return nil
}

// Project is a single target of the workspace.
type Project struct {
	Name string
	Kind Kind
	// BaseDir is the directory relative paths of the project definition are resolved against.
	BaseDir string
	// Location is the directory the project script is written to.
	Location string
	// TargetExtension overrides the platform's output suffix when set.
	TargetExtension string

	Workspace *Workspace
	// Dependencies are ordered as the author declared them.
	Dependencies []*Project
	Files        *SourceTree
	Rules        RuleSet
	Configs      []*Config
}

// ResolvedKind returns the project's kind, falling back to the first
// configuration that declares one. KindUnset means nothing declared a kind.
func (p *Project) ResolvedKind() Kind {
	if p.Kind != KindUnset {
		return p.Kind
	}
	for _, cfg := range p.Configs {
		if cfg.Kind != KindUnset {
			return cfg.Kind
		}
	}
	return KindUnset
}

// HasTarget reports whether the project declares a build target. Utility and
// kindless projects produce no script and cannot be referenced by one.
func (p *Project) HasTarget() bool {
	kind := p.ResolvedKind()
	return kind != KindUnset && kind != KindUtility
}

// Config returns the configuration with the given build type name, or nil.
func (p *Project) Config(name string) *Config {
	for _, cfg := range p.Configs {
		if cfg.Name == name {
			return cfg
		}
	}
	return nil
}

// WorkspaceLocation returns the workspace root, or the project location for a
// detached project.
func (p *Project) WorkspaceLocation() string {
	if p.Workspace != nil && p.Workspace.Location != "" {
		return p.Workspace.Location
	}
	return p.Location
}
