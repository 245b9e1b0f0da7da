package model

// Settings are the abstract compiler settings a toolset maps onto flags. They
// appear on configurations and, as per-file overrides, on file configurations.
type Settings struct {
	Optimize      string // Off, On, Debug, Size, Speed, Full
	Warnings      string // Off, Default, Extra, Everything
	Symbols       bool
	FatalWarnings bool
	Architecture  string // x86, x86_64
	Exceptions    string // Off disables C++ exceptions
	RTTI          string // Off disables C++ RTTI
}

// BuildStep is a custom command producing Outputs from Inputs.
type BuildStep struct {
	Message  string
	Commands []string
	Inputs   []string
	Outputs  []string
}

// Empty reports whether the step has nothing to run or nothing to produce.
func (s BuildStep) Empty() bool {
	return len(s.Commands) == 0 || len(s.Outputs) == 0
}

// Link is an entry of a configuration's link list: either a sibling project
// or a system library given by name or path.
type Link struct {
	Project *Project
	System  string
}

// Config is one build type of a project.
type Config struct {
	Project *Project
	Name    string
	System  string
	// Toolset selects the compiler family; empty picks the system default.
	Toolset string
	Kind    Kind

	TargetDir  string
	TargetName string

	IncludeDirs    []string
	SysIncludeDirs []string
	LibDirs        []string
	ForceIncludes  []string
	Defines        []string
	BuildOptions   []string
	LinkOptions    []string
	Links          []Link

	PIC        bool
	LTO        bool
	LinkGroups bool
	NoPCH      bool

	CppDialect string
	PCHHeader  string

	PreBuildMessage   string
	PreBuildCommands  []string
	PostBuildMessage  string
	PostBuildCommands []string

	// Build is the whole-configuration custom build step.
	Build BuildStep

	// Properties feed rule property values for every file of the configuration.
	Properties map[string]string

	Settings
}

// ProjectLinks returns the sibling projects in link order.
func (c *Config) ProjectLinks() []*Project {
	var out []*Project
	for _, l := range c.Links {
		if l.Project != nil {
			out = append(out, l.Project)
		}
	}
	return out
}

// SystemLinks returns the system libraries in link order.
func (c *Config) SystemLinks() []string {
	var out []string
	for _, l := range c.Links {
		if l.Project == nil && l.System != "" {
			out = append(out, l.System)
		}
	}
	return out
}
